package gateway

import "sync"

// RoomHub tracks which connections joined which channel rooms. A connection
// may sit in any number of rooms; membership is per connection, not per
// user, so a user's other devices only receive room pushes for rooms they
// joined themselves.
type RoomHub struct {
	mu        sync.RWMutex
	rooms     map[string]map[string]*Client // roomId -> connId -> client
	connRooms map[string]map[string]bool    // connId -> roomId set
}

// NewRoomHub creates a new RoomHub
func NewRoomHub() *RoomHub {
	return &RoomHub{
		rooms:     make(map[string]map[string]*Client),
		connRooms: make(map[string]map[string]bool),
	}
}

// Join adds a connection to a room. Joining twice is a no-op.
func (h *RoomHub) Join(roomId string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, exists := h.rooms[roomId]
	if !exists {
		room = make(map[string]*Client, 4)
		h.rooms[roomId] = room
	}
	room[client.ConnId] = client

	joined, exists := h.connRooms[client.ConnId]
	if !exists {
		joined = make(map[string]bool, 4)
		h.connRooms[client.ConnId] = joined
	}
	joined[roomId] = true
}

// Leave removes a connection from a room
func (h *RoomHub) Leave(roomId, connId string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(roomId, connId)
}

// LeaveAll removes a connection from every room it joined
func (h *RoomHub) LeaveAll(connId string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomId := range h.connRooms[connId] {
		h.leaveLocked(roomId, connId)
	}
}

func (h *RoomHub) leaveLocked(roomId, connId string) {
	room := h.rooms[roomId]
	delete(room, connId)
	if len(room) == 0 {
		delete(h.rooms, roomId)
	}

	joined := h.connRooms[connId]
	delete(joined, roomId)
	if len(joined) == 0 {
		delete(h.connRooms, connId)
	}
}

// Members returns a snapshot of a room's connections
func (h *RoomHub) Members(roomId string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, exists := h.rooms[roomId]
	if !exists {
		return nil
	}

	clients := make([]*Client, 0, len(room))
	for _, c := range room {
		clients = append(clients, c)
	}
	return clients
}

// RoomCount returns the number of active rooms
func (h *RoomHub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
