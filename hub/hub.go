// Package hub is the in-memory real-time core: the registry of live
// connections, the player-subscription index, room membership, and the
// fan-out broadcast engine. All state is process-lifetime only.
package hub

import (
	"log/slog"
	"sync"

	"github.com/dog-face/snake-game/domain"
)

type room struct {
	// members maps connection id to the player id announced at join time
	// (empty string when the client never announced one).
	members map[string]string
}

// Hub is safe for concurrent use by all connection goroutines and by the
// presence hooks. Broadcasts send on snapshots taken under the read lock,
// so a recipient failing mid-broadcast never invalidates the iteration.
type Hub struct {
	mu sync.RWMutex

	conns map[string]domain.Connection

	// subscription index plus its reverse, so Remove is O(own subs).
	subs     map[string]map[string]struct{} // entity id -> conn ids
	connSubs map[string]map[string]struct{} // conn id -> entity ids

	rooms     map[string]*room
	connRooms map[string]map[string]struct{} // conn id -> room ids
}

func New() *Hub {
	return &Hub{
		conns:     make(map[string]domain.Connection),
		subs:      make(map[string]map[string]struct{}),
		connSubs:  make(map[string]map[string]struct{}),
		rooms:     make(map[string]*room),
		connRooms: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Register(conn domain.Connection) {
	h.mu.Lock()
	h.conns[conn.ID()] = conn
	count := len(h.conns)
	h.mu.Unlock()

	slog.Info("client connected", "connectionId", conn.ID(), "clients", count)
}

// Remove deletes the connection and every subscription and room membership
// that references it. Idempotent; safe to call concurrently with Send and
// the broadcast methods for the same id.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, connID)

	for entity := range h.connSubs[connID] {
		if set := h.subs[entity]; set != nil {
			delete(set, connID)
			if len(set) == 0 {
				delete(h.subs, entity)
			}
		}
	}
	delete(h.connSubs, connID)

	for roomID := range h.connRooms[connID] {
		if r := h.rooms[roomID]; r != nil {
			delete(r.members, connID)
			if len(r.members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.connRooms, connID)
	count := len(h.conns)
	h.mu.Unlock()

	conn.Close()
	slog.Info("client disconnected", "connectionId", connID, "clients", count)
}

// Send delivers to a single connection. A transport failure is treated as a
// disconnect: the connection is removed and the error is not propagated.
func (h *Hub) Send(connID string, data []byte) {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := conn.Send(data); err != nil {
		slog.Warn("send failed, dropping connection", "connectionId", connID, "error", err)
		h.Remove(connID)
	}
}

// Subscribe is idempotent; subscribing an unknown connection is a no-op.
func (h *Hub) Subscribe(connID, entityID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[connID]; !ok {
		return
	}
	if h.subs[entityID] == nil {
		h.subs[entityID] = make(map[string]struct{})
	}
	h.subs[entityID][connID] = struct{}{}
	if h.connSubs[connID] == nil {
		h.connSubs[connID] = make(map[string]struct{})
	}
	h.connSubs[connID][entityID] = struct{}{}
}

// Unsubscribe is idempotent; removing a non-member is a no-op.
func (h *Hub) Unsubscribe(connID, entityID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set := h.subs[entityID]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.subs, entityID)
		}
	}
	if set := h.connSubs[connID]; set != nil {
		delete(set, entityID)
		if len(set) == 0 {
			delete(h.connSubs, connID)
		}
	}
}

// Subscribers returns a point-in-time snapshot of the live connections
// subscribed to the entity.
func (h *Hub) Subscribers(entityID string) []domain.Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.subs[entityID]
	out := make([]domain.Connection, 0, len(set))
	for id := range set {
		if conn, ok := h.conns[id]; ok {
			out = append(out, conn)
		}
	}
	return out
}

// JoinRoom adds the connection to the room, creating the room on first
// join, and records the player id the client announced.
func (h *Hub) JoinRoom(connID, roomID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[connID]; !ok {
		return
	}
	r, ok := h.rooms[roomID]
	if !ok {
		r = &room{members: make(map[string]string)}
		h.rooms[roomID] = r
	}
	r.members[connID] = playerID
	if h.connRooms[connID] == nil {
		h.connRooms[connID] = make(map[string]struct{})
	}
	h.connRooms[connID][roomID] = struct{}{}
}

// LeaveRoom removes the connection from the room and returns the player id
// recorded at join time, if any. The room entry itself is dropped once its
// member set drains.
func (h *Hub) LeaveRoom(connID, roomID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		return ""
	}
	playerID, member := r.members[connID]
	if !member {
		return ""
	}
	delete(r.members, connID)
	if len(r.members) == 0 {
		delete(h.rooms, roomID)
	}
	if set := h.connRooms[connID]; set != nil {
		delete(set, roomID)
		if len(set) == 0 {
			delete(h.connRooms, connID)
		}
	}
	return playerID
}

// BroadcastToEntity delivers data to every live subscriber of the entity
// except exclude. Zero subscribers is a silent no-op.
func (h *Hub) BroadcastToEntity(entityID string, data []byte, exclude string) {
	h.deliver(h.Subscribers(entityID), data, exclude)
}

// BroadcastToRoom delivers data to every member of the room except exclude.
func (h *Hub) BroadcastToRoom(roomID string, data []byte, exclude string) {
	h.mu.RLock()
	var conns []domain.Connection
	if r, ok := h.rooms[roomID]; ok {
		conns = make([]domain.Connection, 0, len(r.members))
		for id := range r.members {
			if conn, ok := h.conns[id]; ok {
				conns = append(conns, conn)
			}
		}
	}
	h.mu.RUnlock()

	h.deliver(conns, data, exclude)
}

// deliver is at-most-once per recipient: a failed send removes that one
// recipient and delivery to the rest continues.
func (h *Hub) deliver(conns []domain.Connection, data []byte, exclude string) {
	var gone []string
	for _, conn := range conns {
		if conn.ID() == exclude {
			continue
		}
		if err := conn.Send(data); err != nil {
			slog.Warn("broadcast recipient gone", "connectionId", conn.ID(), "error", err)
			gone = append(gone, conn.ID())
		}
	}
	for _, id := range gone {
		h.Remove(id)
	}
}

// Stats reports current counters for the stats endpoint.
func (h *Hub) Stats() (clients, rooms, subscriptions int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients = len(h.conns)
	rooms = len(h.rooms)
	for _, set := range h.subs {
		subscriptions += len(set)
	}
	return clients, rooms, subscriptions
}
