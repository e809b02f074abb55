package websocket

import (
	"sync"

	"live-auction/internal/domain"
	"live-auction/pkg/logger"
)

// RoomManager tracks which connections belong to which named rooms and
// broadcasts room-scoped events. A send failure on one connection never
// affects the others or the caller.
type RoomManager struct {
	rooms     map[string]map[domain.Conn]struct{}
	connRooms map[domain.Conn]map[string]struct{}
	mutex     sync.RWMutex
	log       logger.Logger
}

func NewRoomManager(log logger.Logger) *RoomManager {
	return &RoomManager{
		rooms:     make(map[string]map[domain.Conn]struct{}),
		connRooms: make(map[domain.Conn]map[string]struct{}),
		log:       log,
	}
}

func (rm *RoomManager) Join(room string, conn domain.Conn) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	if rm.rooms[room] == nil {
		rm.rooms[room] = make(map[domain.Conn]struct{})
	}
	rm.rooms[room][conn] = struct{}{}

	if rm.connRooms[conn] == nil {
		rm.connRooms[conn] = make(map[string]struct{})
	}
	rm.connRooms[conn][room] = struct{}{}

	rm.log.Debug("Connection joined room", "client_id", conn.ClientID(), "room", room)
}

func (rm *RoomManager) Leave(room string, conn domain.Conn) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	rm.leaveLocked(room, conn)
	rm.log.Debug("Connection left room", "client_id", conn.ClientID(), "room", room)
}

// LeaveAll removes a disconnecting client from every room it joined.
func (rm *RoomManager) LeaveAll(conn domain.Conn) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	for room := range rm.connRooms[conn] {
		rm.leaveLocked(room, conn)
	}
	rm.log.Debug("Connection left all rooms", "client_id", conn.ClientID())
}

func (rm *RoomManager) leaveLocked(room string, conn domain.Conn) {
	if members, exists := rm.rooms[room]; exists {
		delete(members, conn)
		if len(members) == 0 {
			delete(rm.rooms, room)
		}
	}
	if rooms, exists := rm.connRooms[conn]; exists {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(rm.connRooms, conn)
		}
	}
}

func (rm *RoomManager) Broadcast(room string, event string, payload interface{}) {
	members := rm.members(room)
	if len(members) == 0 {
		return
	}

	for _, conn := range members {
		if err := conn.Send(event, payload); err != nil {
			rm.log.Error("Failed to send event to client",
				"client_id", conn.ClientID(), "room", room, "event", event, "error", err)
			// Continue to the other connections.
		}
	}
}

func (rm *RoomManager) members(room string) []domain.Conn {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()

	conns := make([]domain.Conn, 0, len(rm.rooms[room]))
	for conn := range rm.rooms[room] {
		conns = append(conns, conn)
	}
	return conns
}
