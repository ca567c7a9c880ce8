package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, s *Server, header http.Header) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/search"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
}

func TestSearchSocket(t *testing.T) {
	conn := dial(t, newTestServer(t, Config{}), nil)

	if err := conn.WriteJSON(map[string]any{"q": "remover", "limit": 5}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var reply SearchReply
	readJSON(t, conn, &reply)
	if reply.Type != "results" || reply.Query != "remover" {
		t.Fatalf("reply = %+v", reply)
	}
	if reply.Results.Total != 1 || reply.Results.Limit != 5 {
		t.Errorf("pagination = %+v", reply.Results.Pagination)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	readJSON(t, conn, &reply)
	if reply.Type != "error" || reply.Error.Code != "INVALID_JSON" {
		t.Errorf("reply = %+v, want INVALID_JSON", reply)
	}

	if err := conn.WriteJSON(map[string]any{"q": "god", "limit": 1000}); err != nil {
		t.Fatal(err)
	}
	reply = SearchReply{}
	readJSON(t, conn, &reply)
	if reply.Type != "error" || reply.Error.Code != "INVALID_PARAM" {
		t.Errorf("reply = %+v, want INVALID_PARAM", reply)
	}
}

func TestSearchSocketRateLimit(t *testing.T) {
	s := newTestServer(t, Config{WebSocket: WebSocketConfig{MaxMessageRate: 1, MaxMessageSize: 1024}})
	conn := dial(t, s, nil)

	for i := 0; i < 3; i++ {
		if err := conn.WriteJSON(map[string]any{"q": "god"}); err != nil {
			t.Fatal(err)
		}
	}
	var codes []string
	for i := 0; i < 3; i++ {
		var reply SearchReply
		readJSON(t, conn, &reply)
		if reply.Error != nil {
			codes = append(codes, reply.Error.Code)
		} else {
			codes = append(codes, reply.Type)
		}
	}
	if codes[0] != "results" || codes[1] != "results" || codes[2] != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("replies = %v", codes)
	}
}

func TestSearchSocketReceivesProgress(t *testing.T) {
	s := newTestServer(t, Config{})
	conn := dial(t, s, nil)

	s.Hub().Broadcast(ProgressMessage{Type: "progress", Operation: "update", JobID: "j1", Stage: "gleanings", Progress: 50})

	var msg ProgressMessage
	readJSON(t, conn, &msg)
	if msg.JobID != "j1" || msg.Stage != "gleanings" || msg.Progress != 50 {
		t.Errorf("message = %+v", msg)
	}
	if msg.Timestamp == "" {
		t.Error("timestamp not set")
	}
}

func TestSearchSocketOrigin(t *testing.T) {
	s := newTestServer(t, Config{AllowedOrigins: []string{"https://ok.example"}})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/search"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("connection from a foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://ok.example"}})
	if err != nil {
		t.Fatalf("allowed origin rejected: %v", err)
	}
	conn.Close()
}

func TestSearchSocketRequiresKey(t *testing.T) {
	s := newTestServer(t, Config{Auth: AuthConfig{Enabled: true, APIKey: testKey}})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/search"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("dial without key: err = %v, resp = %v", err, resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?api_key="+testKey, nil)
	if err != nil {
		t.Fatalf("dial with key failed: %v", err)
	}
	conn.Close()
}

func TestCloseDisconnectsClients(t *testing.T) {
	s := newTestServer(t, Config{})
	conn := dial(t, s, nil)

	s.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatal("connection still open after Close")
	}
	if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
		t.Errorf("ReadMessage error = %v, want a close frame", err)
	}
}

func TestHubDropsUnknownClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	stranger := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.sendTo(stranger, map[string]string{"type": "results"})

	cancel()
	<-hub.done
	select {
	case msg := <-stranger.send:
		t.Errorf("unregistered client received %s", msg)
	default:
	}
	if hub.add(stranger) {
		t.Error("add succeeded after the hub stopped")
	}
	hub.remove(stranger)
}

func TestProgressMessageJSON(t *testing.T) {
	data, err := json.Marshal(ProgressMessage{Type: "complete", Operation: "update", Progress: 100})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "job_id") || !strings.Contains(string(data), `"progress":100`) {
		t.Errorf("JSON = %s", data)
	}
}
