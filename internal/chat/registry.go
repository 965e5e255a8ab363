package chat

import (
	"sync"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/metrics"
)

// Registry is the process-wide mapping from room to its live connections.
// It is the one piece of state shared across all chat sessions and is safe
// for concurrent connect, disconnect, and broadcast.
//
// Registration is non-owning: removing a client never closes its transport;
// that remains the job of the client's own session.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomRef]map[*Client]struct{}
}

// NewRegistry creates an empty registry. One instance is constructed at
// process start and injected into every session.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[domain.RoomRef]map[*Client]struct{}),
	}
}

// Connect registers a client under its room, creating the room entry on
// first use. A client must not be connected twice without an intervening
// Disconnect; callers (sessions) register exactly once on admission.
func (r *Registry) Connect(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[client.Room]
	if !ok {
		room = make(map[*Client]struct{})
		r.rooms[client.Room] = room
		metrics.ChatRooms.Inc()
	}
	room[client] = struct{}{}
	metrics.ChatConnections.Inc()
}

// Disconnect removes a client from its room. The room entry is dropped
// when its last connection leaves, so rooms with no viewers cost nothing.
// Disconnecting a client that was never connected is a no-op.
func (r *Registry) Disconnect(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[client.Room]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}

	delete(room, client)
	metrics.ChatConnections.Dec()
	if len(room) == 0 {
		delete(r.rooms, client.Room)
		metrics.ChatRooms.Dec()
	}
}

// SendTo delivers a payload to a single connection only. Delivery to a
// dead connection is silently dropped by the client itself.
func (r *Registry) SendTo(client *Client, payload []byte) {
	client.SendMessage(payload)
}

// Broadcast delivers a payload to every connection currently registered
// under the room, in no guaranteed order. It snapshots the room under the
// read lock and delivers outside of it, so concurrent connects and
// disconnects on the same room are safe; a connection that fails delivery
// is skipped, not removed.
func (r *Registry) Broadcast(room domain.RoomRef, payload []byte) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.rooms[room]))
	for client := range r.rooms[room] {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	for _, client := range clients {
		client.SendMessage(payload)
	}
}

// RoomCount reports how many rooms currently hold at least one connection.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Connections reports the number of live connections in a room.
func (r *Registry) Connections(room domain.RoomRef) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
