package services

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// sendBuffer bounds how far a slow consumer may fall behind before it is
// evicted instead of stalling delivery to the rest of a room.
const sendBuffer = 64

// Connection is one registered realtime session. A user may hold several
// connections at once (multiple devices or tabs). Outbound events flow
// through a buffered channel consumed by a single writer, so delivery to one
// connection is ordered and never blocks the broadcaster.
type Connection struct {
	ID     string
	UserID string

	send      chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewConnection creates a connection for an authenticated user session
func NewConnection(sessionID, userID string) *Connection {
	return &Connection{
		ID:     sessionID,
		UserID: userID,
		send:   make(chan Event, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Events returns the ordered outbound event stream for this connection
func (c *Connection) Events() <-chan Event {
	return c.send
}

// Done is closed when the connection is evicted from the hub
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close marks the connection dead. Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// deliver queues an event without blocking. Returns false when the buffer is
// full or the connection is already closed.
func (c *Connection) deliver(ev Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Hub is the connection registry and message broker. It tracks which session
// is attached to which user and which match rooms it has joined, and fans
// persisted events out to every connection currently in a room. Delivery is
// best-effort; durability lives in chat persistence, not here.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Connection            // sessionID -> connection
	users    map[string]map[string]*Connection // userID -> sessionID -> connection
	rooms    map[string]map[string]*Connection // matchID -> sessionID -> connection
	joined   map[string]map[string]struct{}    // sessionID -> set of matchIDs
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*Connection),
		users:    make(map[string]map[string]*Connection),
		rooms:    make(map[string]map[string]*Connection),
		joined:   make(map[string]map[string]struct{}),
	}
}

// Register adds an authenticated connection to the hub
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[conn.ID] = conn
	if h.users[conn.UserID] == nil {
		h.users[conn.UserID] = make(map[string]*Connection)
	}
	h.users[conn.UserID][conn.ID] = conn
	h.joined[conn.ID] = make(map[string]struct{})

	log.Info().Str("session_id", conn.ID).Str("user_id", conn.UserID).Msg("Connection registered")
}

// Unregister evicts a connection and all of its room memberships. Idempotent:
// unregistering an unknown session is a no-op. No persisted state is touched.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, exists := h.sessions[sessionID]
	if !exists {
		return
	}

	for matchID := range h.joined[sessionID] {
		h.removeFromRoom(sessionID, matchID)
	}
	delete(h.joined, sessionID)
	delete(h.sessions, sessionID)

	if conns := h.users[conn.UserID]; conns != nil {
		delete(conns, sessionID)
		if len(conns) == 0 {
			delete(h.users, conn.UserID)
		}
	}

	conn.Close()
	log.Info().Str("session_id", sessionID).Str("user_id", conn.UserID).Msg("Connection unregistered")
}

// Join adds a connection to a match room. Joining a room twice is a no-op.
func (h *Hub) Join(sessionID, matchID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, exists := h.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session %s is not registered", sessionID)
	}

	if h.rooms[matchID] == nil {
		h.rooms[matchID] = make(map[string]*Connection)
	}
	h.rooms[matchID][sessionID] = conn
	h.joined[sessionID][matchID] = struct{}{}
	return nil
}

// Leave removes a connection from a match room without closing it. Leaving a
// room that was never joined is a no-op.
func (h *Hub) Leave(sessionID, matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.sessions[sessionID]; !exists {
		return
	}
	h.removeFromRoom(sessionID, matchID)
	delete(h.joined[sessionID], matchID)
}

// removeFromRoom must be called with h.mu held
func (h *Hub) removeFromRoom(sessionID, matchID string) {
	if room := h.rooms[matchID]; room != nil {
		delete(room, sessionID)
		if len(room) == 0 {
			delete(h.rooms, matchID)
		}
	}
}

// Broadcast delivers an event to every connection currently joined to the
// match room, including the sender's own connections so their other devices
// stay in sync. A connection whose buffer is full is skipped and scheduled
// for eviction rather than stalling the rest of the room.
func (h *Hub) Broadcast(matchID string, ev Event) {
	h.mu.RLock()
	members := make([]*Connection, 0, len(h.rooms[matchID]))
	for _, conn := range h.rooms[matchID] {
		members = append(members, conn)
	}
	h.mu.RUnlock()

	for _, conn := range members {
		if !conn.deliver(ev) {
			log.Warn().
				Str("session_id", conn.ID).
				Str("match_id", matchID).
				Msg("Dropping slow connection")
			go h.Unregister(conn.ID)
		}
	}
}

// SendToUser delivers an event to every connection a user currently holds,
// regardless of room membership. Used for match notifications, where no room
// exists yet.
func (h *Hub) SendToUser(userID string, ev Event) error {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.users[userID]))
	for _, conn := range h.users[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return fmt.Errorf("user %s is not connected", userID)
	}

	for _, conn := range conns {
		if !conn.deliver(ev) {
			go h.Unregister(conn.ID)
		}
	}
	return nil
}

// SendToSession delivers an event to one specific connection
func (h *Hub) SendToSession(sessionID string, ev Event) error {
	h.mu.RLock()
	conn, exists := h.sessions[sessionID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("session %s is not registered", sessionID)
	}
	if !conn.deliver(ev) {
		go h.Unregister(sessionID)
		return fmt.Errorf("session %s is not keeping up", sessionID)
	}
	return nil
}

// IsOnline reports whether a user has at least one registered connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// InRoom reports whether a session is currently joined to a match room
func (h *Hub) InRoom(sessionID, matchID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.joined[sessionID][matchID]
	return ok
}
