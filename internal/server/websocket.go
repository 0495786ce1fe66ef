package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/stepwise/stepwise/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// WebSocketHandler upgrades connections and runs one workspace per client.
type WebSocketHandler struct {
	server *Server
}

// NewWebSocketHandler creates the websocket endpoint handler.
func NewWebSocketHandler(s *Server) *WebSocketHandler {
	return &WebSocketHandler{server: s}
}

// ServeHTTP handles websocket upgrade and the message loop.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Failed to upgrade connection: %v", err)
		return
	}
	defer func() {
		h.server.UnregisterConnection(conn)
		conn.Close()
	}()

	h.server.RegisterConnection(conn)

	debug := h.server.config.Server.Debug
	if debug {
		log.Printf("[WS] Client connected: %s", conn.RemoteAddr())
	}

	workspace := h.server.newWorkspace()
	router := session.NewRouter(workspace)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close: %v", err)
			}
			break
		}

		if debug {
			log.Printf("[WS] Received: %s", message)
		}

		var envelope session.MessageEnvelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			log.Printf("[WS] Failed to parse message: %v", err)
			continue
		}

		response := router.Route(r.Context(), &envelope)
		h.sendResponse(conn, response, debug)
	}

	if debug {
		log.Printf("[WS] Client disconnected: %s", conn.RemoteAddr())
	}
}

// sendResponse marshals and writes a response envelope.
func (h *WebSocketHandler) sendResponse(conn *websocket.Conn, response *session.ResponseEnvelope, debug bool) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("[WS] Failed to marshal response: %v", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[WS] Failed to send message: %v", err)
		return
	}

	if debug {
		log.Printf("[WS] Sent: %s", data)
	}
}
