package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stepwise/stepwise/internal/session"
)

func dialTestServer(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendAction(t *testing.T, conn *websocket.Conn, action string, data interface{}) session.ResponseEnvelope {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal data: %v", err)
	}
	envelope := session.MessageEnvelope{Action: action, Data: raw}
	if err := conn.WriteJSON(envelope); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp session.ResponseEnvelope
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp
}

func TestWebSocketLessonFlow(t *testing.T) {
	conn := dialTestServer(t, testServer(t))

	resp := sendAction(t, conn, "selectLesson", map[string]string{
		"courseId": "go-basics",
		"lessonId": "hello",
	})
	if resp.Meta["success"] != true {
		t.Fatalf("selectLesson failed: %v", resp.Meta)
	}
	if resp.Guidance == nil || resp.Guidance.TotalSteps != 1 {
		t.Fatalf("expected guidance with 1 step, got %+v", resp.Guidance)
	}

	resp = sendAction(t, conn, "bufferChange", map[string]string{
		"code": "println(\"hi\")\n",
	})
	if resp.Meta["success"] != true {
		t.Fatalf("bufferChange failed: %v", resp.Meta)
	}
	if !resp.Guidance.Completed {
		t.Errorf("expected lesson completion, got %+v", resp.Guidance)
	}
}

func TestWebSocketUnknownActionStaysConnected(t *testing.T) {
	conn := dialTestServer(t, testServer(t))

	resp := sendAction(t, conn, "teleport", map[string]string{})
	if resp.Meta["success"] != false {
		t.Fatalf("expected failure meta, got %v", resp.Meta)
	}

	// The connection survives the bad action
	resp = sendAction(t, conn, "selectLesson", map[string]string{
		"courseId": "go-basics",
		"lessonId": "hello",
	})
	if resp.Meta["success"] != true {
		t.Errorf("expected connection to keep working, got %v", resp.Meta)
	}
}

func TestWebSocketMalformedMessageIgnored(t *testing.T) {
	conn := dialTestServer(t, testServer(t))

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	// The server drops the malformed frame; the next valid message works
	resp := sendAction(t, conn, "selectLesson", map[string]string{
		"courseId": "go-basics",
		"lessonId": "hello",
	})
	if resp.Meta["success"] != true {
		t.Errorf("expected connection to keep working, got %v", resp.Meta)
	}
}
