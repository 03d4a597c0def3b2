package dispatch

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/rolo/internal/models"
)

const (
	EventSearchProgress = "search_progress"
	EventRideUpdated    = "ride_updated"
)

// Event is pushed to a rider's open websocket connections.
type Event struct {
	Type     string       `json:"type"`
	RideID   string       `json:"ride_id,omitempty"`
	Progress int          `json:"progress,omitempty"`
	Ride     *models.Ride `json:"ride,omitempty"`
}

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type client struct {
	conn Conn
	mu   sync.Mutex
}

func (c *client) send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(ev)
}

// Hub fans events out to every connection a rider has open.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{}), logger: logger}
}

// Add registers conn for userID and returns a func that unregisters it.
func (h *Hub) Add(userID string, conn Conn) (remove func()) {
	c := &client{conn: conn}
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()
	return func() { h.remove(userID, c) }
}

func (h *Hub) remove(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, userID)
	}
	_ = c.conn.Close()
}

// Connections reports how many connections userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Notify sends ev to all of userID's connections, dropping any that fail.
func (h *Hub) Notify(userID string, ev Event) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.send(ev); err != nil {
			if h.logger != nil {
				h.logger.Warn("ws send failed", "user_id", userID, "error", err)
			}
			h.remove(userID, c)
		}
	}
}

var _ Conn = (*websocket.Conn)(nil)
