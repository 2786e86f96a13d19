package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/pagequest/internal/reading"
)

// Message types sent to device streams.
const (
	TypeResult = "result"
	TypeError  = "error"
)

// Event is what a device sends: the title it has open and OPEN or CLOSED.
type Event struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Message is one frame sent to a device stream.
type Message struct {
	Type    string                `json:"type"`
	Result  *reading.DeviceResult `json:"result,omitempty"`
	Error   string                `json:"error,omitempty"`
	RetryAt *time.Time            `json:"retry_at,omitempty"`
}

// ResultMessage wraps a tracker result.
func ResultMessage(res *reading.DeviceResult) Message {
	return Message{Type: TypeResult, Result: res}
}

// ErrorMessage renders err for a device. Internal failures are not exposed.
func ErrorMessage(err error) Message {
	var re *reading.Error
	if errors.As(err, &re) {
		return Message{Type: TypeError, Error: re.Message, RetryAt: re.RetryAt}
	}
	return Message{Type: TypeError, Error: "internal error"}
}

// EventHandler applies a device event for a child.
type EventHandler interface {
	HandleEvent(ctx context.Context, childID int64, title, status string) (*reading.DeviceResult, error)
}

// Hub tracks open device streams per child so every stream of a child
// sees the results of events reported by any of its devices.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
}

// Publish sends msg to every stream open for userID.
func (h *Hub) Publish(userID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal device message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop
			h.logger.Warn("device stream buffer full", "user_id", userID)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
