package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub is the subscription registry: it maps poll IDs to the set of live
// client sessions subscribed to that poll's updates. All methods are safe
// for concurrent use; broadcast never blocks on a slow client (each client
// has a buffered send queue and is dropped if it cannot keep up).
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uint]map[*Client]bool),
	}
}

// Join subscribes the client to the poll's room. Joining a room the client
// is already in is a no-op.
func (h *Hub) Join(pollID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[pollID] == nil {
		h.rooms[pollID] = make(map[*Client]bool)
	}
	if h.rooms[pollID][c] {
		return
	}
	h.rooms[pollID][c] = true
	c.rooms[pollID] = true
	log.Printf("ws: client %s joined poll %d (members: %d)", c.id, pollID, len(h.rooms[pollID]))
}

// Leave unsubscribes the client from the poll's room. Leaving a room the
// client is not in is a no-op.
func (h *Hub) Leave(pollID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(pollID, c)
}

func (h *Hub) leaveLocked(pollID uint, c *Client) {
	conns, ok := h.rooms[pollID]
	if !ok || !conns[c] {
		return
	}
	delete(conns, c)
	delete(c.rooms, pollID)
	if len(conns) == 0 {
		delete(h.rooms, pollID)
	}
	log.Printf("ws: client %s left poll %d", c.id, pollID)
}

// Disconnect removes the client from every room it joined and closes its
// send queue. Called exactly once, when the transport connection dies.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for pollID := range c.rooms {
		h.leaveLocked(pollID, c)
	}
	close(c.send)
	log.Printf("ws: client %s disconnected", c.id)
}

// RoomCount returns the number of clients currently subscribed to the poll.
func (h *Hub) RoomCount(pollID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[pollID])
}

// Broadcast delivers the message to every client in the poll's room.
// Best-effort: a client that disconnected between subscribe and broadcast
// simply misses the message.
func (h *Hub) Broadcast(pollID uint, message WSMessage) {
	h.broadcast(pollID, nil, message)
}

// BroadcastExcept delivers to every room member but the given client, e.g.
// userJoined notices that only existing members should see.
func (h *Hub) BroadcastExcept(pollID uint, except *Client, message WSMessage) {
	h.broadcast(pollID, except, message)
}

func (h *Hub) broadcast(pollID uint, except *Client, message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[pollID] {
		if c == except {
			continue
		}
		c.enqueue(data)
	}
}
