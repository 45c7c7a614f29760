package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Event types pushed to subscribed terminals.
const (
	EventTableStatusChanged = "table_status_changed"
	EventOrderSubmitted     = "order_submitted"
	EventCatalogRefreshed   = "catalog_refreshed"
)

// Event is a message broadcast to all connected terminals.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub maintains the set of connected terminal clients and fans events out to
// them. Terminals only listen; there is no terminal-to-terminal traffic.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		clients:    make(map[*Client]bool),
	}
}

// Run is the hub's main loop; call it as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				log.Printf("ERROR: marshal ws event: %v", err)
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than block the hub.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast marshals payload and queues the event for all connected clients.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal ws payload: %v", err)
		return
	}
	h.broadcast <- Event{Type: eventType, Payload: raw}
}

// CatalogRefreshed implements catalog.Notifier.
func (h *Hub) CatalogRefreshed(itemCount int) {
	h.Broadcast(EventCatalogRefreshed, map[string]int{"item_count": itemCount})
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
