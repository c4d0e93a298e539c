package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeTimeout = 5 * time.Second

// changeEvent is pushed to every subscriber after a project mutation so
// connected dashboards know to refetch
type changeEvent struct {
	Type string `json:"type"`
}

// Hub fans change notifications out to connected websocket clients. Writes
// go through a per-client channel so a slow client never blocks a mutation.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan changeEvent
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// NotifyProjectsChanged queues a projects_changed event for every
// connected client. Clients whose send buffer is full are dropped.
func (h *Hub) NotifyProjectsChanged() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- changeEvent{Type: "projects_changed"}:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// handleStream upgrades the request to a websocket and streams change
// events until the client disconnects
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan changeEvent, 8),
	}
	s.hub.add(c)

	slog.Info("stream client connected", "remote_addr", r.RemoteAddr)

	go c.writeLoop()
	c.readLoop(s.hub)
}

// writeLoop drains the send channel to the connection
func (c *client) writeLoop() {
	defer c.conn.Close()

	for event := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(event); err != nil {
			slog.Debug("stream write failed", "error", err)
			return
		}
	}
}

// readLoop consumes and discards client frames until the connection
// closes, so pings and close frames are handled
func (c *client) readLoop(h *Hub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
