package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/FocuswithJustin/writings/core/search"
	"github.com/FocuswithJustin/writings/internal/logging"
	"github.com/FocuswithJustin/writings/internal/server"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

// ProgressMessage is broadcast to every websocket client while an update
// job runs.
type ProgressMessage struct {
	Type      string         `json:"type"`      // "progress", "complete", "error"
	Operation string         `json:"operation"` // "update"
	JobID     string         `json:"job_id,omitempty"`
	Stage     string         `json:"stage,omitempty"` // work being updated
	Progress  int            `json:"progress"`        // 0-100
	Message   string         `json:"message,omitempty"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// SearchReply answers one search query sent over a websocket.
type SearchReply struct {
	Type    string          `json:"type"` // "results" or "error"
	Query   string          `json:"query,omitempty"`
	Results *search.Results `json:"results,omitempty"`
	Error   *APIError       `json:"error,omitempty"`
}

// Client is one websocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	limiter *tokenBucket
}

type outbound struct {
	client *Client
	data   []byte
}

// Hub tracks websocket clients. Only Run touches a client's send channel,
// so a message to a client that has gone away is dropped, never sent on a
// closed channel.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	unicast    chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub; it serves nothing until Run is called.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		unicast:    make(chan outbound, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_connected", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				h.drop(client)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				h.deliver(client, message)
			}
			h.mu.Unlock()

		case m := <-h.unicast:
			h.mu.Lock()
			if h.clients[m.client] {
				h.deliver(m.client, m.data)
			}
			h.mu.Unlock()
		}
	}
}

// deliver and drop must be called with mu held.
func (h *Hub) deliver(c *Client, message []byte) {
	select {
	case c.send <- message:
	default:
		logging.WebSocketEvent("client_too_slow", len(h.clients)-1)
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	close(c.send)
	delete(h.clients, c)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a progress message to every client.
func (h *Hub) Broadcast(msg ProgressMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("failed to marshal progress message", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logging.Warn("broadcast channel full, dropping message", "type", msg.Type)
	}
}

func (h *Hub) sendTo(c *Client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error("failed to marshal websocket reply", "error", err)
		return
	}
	select {
	case h.unicast <- outbound{client: c, data: data}:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// handleSearchSocket upgrades the connection and answers every search
// query the client sends. The client also receives update progress.
func (s *Server) handleSearchSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return server.OriginAllowed(s.cfg.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.SecurityEvent("websocket_rejected", "websocket",
			"origin", r.Header.Get("Origin"),
			"error", err.Error())
		return
	}
	conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)

	rate := float64(s.cfg.WebSocket.MaxMessageRate)
	client := &Client{
		hub:     s.hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: newTokenBucket(rate*2, rate),
	}
	if !s.hub.add(client) {
		conn.Close()
		return
	}
	logging.WebSocketEvent("search_connected", s.hub.ClientCount(), "remote_addr", getClientIP(r))

	go client.writePump()
	go client.readPump(s.ctx, s.engine.Search)
}

// readPump answers queries until the connection fails.
func (c *Client) readPump(ctx context.Context, find func(context.Context, search.Query) (*search.Results, error)) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn("websocket unexpected close", "error", err)
			}
			return
		}

		if !c.limiter.allow() {
			c.hub.sendTo(c, SearchReply{Type: "error", Error: &APIError{Code: "RATE_LIMIT_EXCEEDED", Message: "too many messages"}})
			continue
		}

		var q search.Query
		if err := json.Unmarshal(data, &q); err != nil {
			c.hub.sendTo(c, SearchReply{Type: "error", Error: &APIError{Code: "INVALID_JSON", Message: "query must be a JSON object"}})
			continue
		}
		results, err := find(ctx, q)
		if err != nil {
			c.hub.sendTo(c, SearchReply{Type: "error", Query: q.Q, Error: apiError(err)})
			continue
		}
		c.hub.sendTo(c, SearchReply{Type: "results", Query: q.Q, Results: results})
	}
}

// writePump writes queued messages and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
