package httpapi

import (
	"encoding/json"
	"sync"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// Ensure Hub implements the interface.
var _ driven.StatusPublisher = (*Hub)(nil)

// Hub fans document status events out to the websocket clients of the
// document's owner.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{})}
}

// Publish sends event to every client of event.Owner. Clients whose buffer
// is full miss the event; Publish never blocks.
func (h *Hub) Publish(event domain.StatusEvent) {
	msg, err := json.Marshal(statusMessage{Type: "document_status", StatusEvent: event})
	if err != nil {
		logger.Warn("ws: marshal status event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[event.Owner] {
		select {
		case c.send <- msg:
		default:
			logger.Debug("ws: dropping event for slow client of %s", event.Owner)
		}
	}
}

// Clients returns the number of connected clients for owner.
func (h *Hub) Clients(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[owner])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for owner, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, owner)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.owner]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.owner] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws: client connected for %s", c.owner)
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.owner]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.owner)
	}
	logger.Debug("ws: client disconnected for %s", c.owner)
}

// statusMessage is the websocket frame carrying a status event.
type statusMessage struct {
	Type string `json:"type"`
	domain.StatusEvent
}
