package hub

import (
	"encoding/json"
	"sync"
)

// Event types pushed over a merchant's stock channel. A subscriber receives
// exactly one EventInitial on connect and EventStockUpdate from then on.
const (
	EventInitial     = "initial"
	EventStockUpdate = "stock-update"
)

// StockLevel is the absolute quantity of one item. Updates carry absolute
// post-commit values rather than decrements, so replaying them is idempotent.
type StockLevel struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

// Event represents a real-time stock event to be sent to clients.
type Event struct {
	Type  string       `json:"type"`
	Items []StockLevel `json:"items"`
}

// Client represents a single client connection (a device watching a
// merchant's stock). It's essentially a channel the SSE handler listens to.
type Client chan []byte

// Hub manages all active merchant channels and their clients. There is no
// buffering for offline subscribers: the channel is pure fan-out, and every
// (re)connect starts from a fresh snapshot.
type Hub struct {
	merchants map[uint]map[Client]bool
	mu        sync.RWMutex
}

// GlobalHub is the singleton instance of our Hub.
var GlobalHub = NewHub()

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		merchants: make(map[uint]map[Client]bool),
	}
}

// Subscribe adds a new client to a merchant's channel.
func (h *Hub) Subscribe(merchantID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.merchants[merchantID]; !ok {
		h.merchants[merchantID] = make(map[Client]bool)
	}
	h.merchants[merchantID][client] = true
}

// Unsubscribe removes a client from a merchant's channel. Safe to call for a
// client the hub already tore down.
func (h *Hub) Unsubscribe(merchantID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.remove(merchantID, client)
}

// remove deletes and closes a client. Caller must hold the write lock.
func (h *Hub) remove(merchantID uint, client Client) {
	if clients, ok := h.merchants[merchantID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client) // Close the channel to signal the SSE handler to stop.
			if len(clients) == 0 {
				delete(h.merchants, merchantID)
			}
		}
	}
}

// Broadcast sends an event to every client on one merchant's channel. An
// update for merchant A is never visible to a subscriber of merchant B.
//
// A client whose buffer is full is torn down rather than skipped: silently
// dropping a delta would leave that client's view stale for the rest of its
// connection, while tearing it down forces a reconnect and a fresh snapshot.
func (h *Hub) Broadcast(merchantID uint, event Event) {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	var stalled []Client
	if clients, ok := h.merchants[merchantID]; ok {
		for client := range clients {
			select {
			case client <- messageBytes:
			default:
				stalled = append(stalled, client)
			}
		}
	}
	h.mu.RUnlock()

	if len(stalled) > 0 {
		h.mu.Lock()
		for _, client := range stalled {
			h.remove(merchantID, client)
		}
		h.mu.Unlock()
	}
}

// SubscriberCount reports how many clients are on a merchant's channel.
func (h *Hub) SubscriberCount(merchantID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.merchants[merchantID])
}
