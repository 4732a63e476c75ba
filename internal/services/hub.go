package services

import (
	"sync"

	"github.com/depflow/depflow/internal/models"
)

// BroadcastMessage is the wire shape pushed to connected dashboard clients.
type BroadcastMessage struct {
	Type string        `json:"type"`
	Data BroadcastData `json:"data"`
}

type BroadcastData struct {
	Action     string             `json:"action"` // created, updated, imported
	Dependency *models.Dependency `json:"dependency,omitempty"`
	Count      int                `json:"count,omitempty"`
}

// Hub fans store-mutation events out to connected clients. The transport
// (WebSocket upgrade, write loop) lives in the handler layer; the hub only
// manages subscriptions and delivery channels.
type Hub struct {
	clients map[string]chan BroadcastMessage
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]chan BroadcastMessage),
	}
}

// Subscribe registers a new client and returns a channel for receiving events
func (h *Hub) Subscribe(clientID string) <-chan BroadcastMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Buffered channel to prevent blocking publishers
	ch := make(chan BroadcastMessage, 100)
	h.clients[clientID] = ch
	return ch
}

// Unsubscribe removes a client from the hub
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish broadcasts an event to all connected clients
func (h *Hub) Publish(msg BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		// Non-blocking send - drop event if client buffer is full
		select {
		case ch <- msg:
		default:
			// Client is slow, skip this event
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishDependency announces a created or updated dependency row.
func (h *Hub) PublishDependency(action string, dep *models.Dependency) {
	h.Publish(BroadcastMessage{
		Type: "dependencyUpdate",
		Data: BroadcastData{Action: action, Dependency: dep},
	})
}

// PublishImported announces a completed bulk import with its row count.
func (h *Hub) PublishImported(count int) {
	h.Publish(BroadcastMessage{
		Type: "dependencyUpdate",
		Data: BroadcastData{Action: "imported", Count: count},
	})
}

// Global hub instance
var (
	globalHub *Hub
	hubOnce   sync.Once
)

// GetHub returns the global broadcast hub singleton.
func GetHub() *Hub {
	hubOnce.Do(func() {
		globalHub = NewHub()
	})
	return globalHub
}
