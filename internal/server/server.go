// Package server hosts the stepwise web app: the learner websocket, the
// REST API, and the course file watcher.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	course "github.com/stepwise/stepwise"
	"github.com/stepwise/stepwise/internal/config"
	"github.com/stepwise/stepwise/internal/session"
	"github.com/stepwise/stepwise/internal/stepgen"
	"github.com/stepwise/stepwise/internal/store"
)

// Server is the stepwise application server.
type Server struct {
	config    *config.Config
	catalog   *course.Catalog
	store     store.Store       // may be nil when storage is disabled
	generator stepgen.Generator // may be nil when no API key is configured

	watcher *Watcher

	connMu      sync.RWMutex
	connections map[*websocket.Conn]bool // Track connected WebSocket clients

	rateLimitCancel context.CancelFunc
	rateLimitDone   <-chan struct{}
}

// New creates a server over the given catalog and collaborators.
func New(cfg *config.Config, catalog *course.Catalog, st store.Store, gen stepgen.Generator) *Server {
	return &Server{
		config:      cfg,
		catalog:     catalog,
		store:       st,
		generator:   gen,
		connections: make(map[*websocket.Conn]bool),
	}
}

// Handler builds the full middleware chain around the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/ws", NewWebSocketHandler(s))
	mux.Handle("/api/", s.apiHandler())
	mux.HandleFunc("/", s.handleIndex)

	var handler http.Handler = mux
	handler = SecurityHeadersMiddleware()(handler)
	handler = WithCompression(handler)
	return handler
}

// apiHandler wraps the REST API with its own middleware stack.
func (s *Server) apiHandler() http.Handler {
	var handler http.Handler = NewAPIHandler(s.catalog, s.store, s.generator)

	apiCfg := s.config.API
	if apiCfg == nil {
		return handler
	}

	if apiCfg.IsAuthEnabled() {
		handler = AuthMiddleware(apiCfg.Auth)(handler)
	}

	if apiCfg.RateLimit != nil {
		ctx, cancel := context.WithCancel(context.Background())
		middleware, done := RateLimitMiddleware(ctx,
			apiCfg.GetRateLimitRPS(), apiCfg.GetRateLimitBurst(), 0)
		s.rateLimitCancel = cancel
		s.rateLimitDone = done
		handler = middleware(handler)
	}

	handler = CORSMiddleware(apiCfg.GetCORSOrigins(), authHeaderName(apiCfg))(handler)
	return handler
}

func authHeaderName(apiCfg *config.APIConfig) string {
	if apiCfg.Auth == nil {
		return ""
	}
	return apiCfg.Auth.GetHeaderName()
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s.config.Features.HotReload {
		if err := s.startWatcher(); err != nil {
			log.Printf("[Server] File watching disabled: %v", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections are long-lived
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on http://%s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cleanup()
		return err
	case <-ctx.Done():
	}

	log.Printf("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	s.cleanup()
	return err
}

func (s *Server) cleanup() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.rateLimitCancel != nil {
		s.rateLimitCancel()
		<-s.rateLimitDone
	}
	s.closeConnections()
}

// startWatcher watches the courses directory and reloads edited documents.
func (s *Server) startWatcher() error {
	watcher, err := NewWatcher(s.catalog.Dir(), func(path string) error {
		if err := s.catalog.Reload(path); err != nil {
			return err
		}
		s.BroadcastReload()
		return nil
	}, s.config.Server.Debug)
	if err != nil {
		return err
	}

	s.watcher = watcher
	s.watcher.Start()
	return nil
}

// RegisterConnection tracks a websocket client for reload broadcasts.
func (s *Server) RegisterConnection(conn *websocket.Conn) {
	s.connMu.Lock()
	s.connections[conn] = true
	s.connMu.Unlock()
}

// UnregisterConnection removes a websocket client.
func (s *Server) UnregisterConnection(conn *websocket.Conn) {
	s.connMu.Lock()
	delete(s.connections, conn)
	s.connMu.Unlock()
}

// BroadcastReload tells every connected client to refetch its course.
func (s *Server) BroadcastReload() {
	s.connMu.RLock()
	defer s.connMu.RUnlock()

	message := []byte(`{"action":"reload","meta":{"success":true}}`)
	for conn := range s.connections {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("[Server] Failed to send reload: %v", err)
		}
	}
}

func (s *Server) closeConnections() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	for conn := range s.connections {
		conn.Close()
	}
	s.connections = make(map[*websocket.Conn]bool)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"courses": len(s.catalog.List()),
	})
}

// handleIndex serves a plain course listing so the server is browsable
// without the client bundle.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>")
	b.WriteString(htmlEscape(s.config.Title))
	b.WriteString("</title></head><body><h1>")
	b.WriteString(htmlEscape(s.config.Title))
	b.WriteString("</h1><ul>\n")
	for _, c := range s.catalog.List() {
		fmt.Fprintf(&b, "<li><a href=\"/api/courses/%s\">%s</a> (%d lessons)</li>\n",
			htmlEscape(c.ID), htmlEscape(c.Title), len(c.Lessons))
	}
	b.WriteString("</ul></body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(b.String()))
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// newSessionID generates an identifier for one learner connection.
func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	return "sess-" + hex.EncodeToString(b)
}

// newWorkspace builds a workspace wired to the server's collaborators.
func (s *Server) newWorkspace() *session.Workspace {
	layout := session.Layout{
		LineHeight:     s.config.Workspace.GetLineHeight(),
		TopPadding:     s.config.Workspace.GetTopPadding(),
		ViewportHeight: s.config.Workspace.GetViewportHeight(),
		AdvanceNotice:  s.config.Workspace.GetAdvanceNotice(),
	}
	return session.NewWorkspace(s.catalog, s.store, layout, newSessionID())
}
