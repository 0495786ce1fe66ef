package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// gzipWriter defers the encoding decision to the first header write so
// responses that are already encoded or not worth compressing pass
// through untouched.
type gzipWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	compressing bool
	wroteHeader bool
}

func (w *gzipWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	h := w.Header()
	if compressible(h.Get("Content-Type")) && h.Get("Content-Encoding") == "" {
		w.compressing = true
		h.Set("Content-Encoding", "gzip")
		// Length of the uncompressed body no longer applies
		h.Del("Content-Length")
		w.gz.Reset(w.ResponseWriter)
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *gzipWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		// Sniff before deciding; net/http cannot once we set headers
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.compressing {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *gzipWriter) close() {
	if w.compressing {
		w.gz.Close()
	}
}

// compressible reports whether a content type is worth gzipping. Course
// documents are JSON and markdown-rendered HTML, which compress well;
// media assets are already compressed.
func compressible(ct string) bool {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	switch strings.TrimSpace(ct) {
	case "application/json", "application/javascript", "image/svg+xml":
		return true
	}
	return strings.HasPrefix(ct, "text/")
}

// WithCompression gzips responses for clients that accept it. WebSocket
// upgrades bypass the wrapper entirely so the session socket can be
// hijacked.
func WithCompression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") ||
			strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzPool.Get().(*gzip.Writer)
		gw := &gzipWriter{ResponseWriter: w, gz: gz}
		defer func() {
			gw.close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()

		w.Header().Add("Vary", "Accept-Encoding")
		next.ServeHTTP(gw, r)
	})
}
