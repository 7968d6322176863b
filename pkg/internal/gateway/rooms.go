package gateway

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Client wraps one websocket connection; the mutex serializes writes since
// broadcasts and acks race on the same socket.
type Client struct {
	UserID string

	conn *websocket.Conn
	mu   sync.Mutex
}

func NewClient(userId string, conn *websocket.Conn) *Client {
	return &Client{UserID: userId, conn: conn}
}

func (v *Client) Write(packet ServerPacket) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.conn.WriteMessage(websocket.TextMessage, packet.Marshal())
}

// RoomRegistry is the per-process join graph: room name to the local sockets
// subscribed to it. Nothing here is persisted; a disconnect drops the client
// from every room.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	joined map[*Client]map[string]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]map[*Client]struct{}),
		joined: make(map[*Client]map[string]struct{}),
	}
}

func (v *RoomRegistry) Join(room string, client *Client) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.rooms[room] == nil {
		v.rooms[room] = make(map[*Client]struct{})
	}
	v.rooms[room][client] = struct{}{}

	if v.joined[client] == nil {
		v.joined[client] = make(map[string]struct{})
	}
	v.joined[client][room] = struct{}{}
}

func (v *RoomRegistry) Leave(room string, client *Client) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.leaveLocked(room, client)
}

func (v *RoomRegistry) leaveLocked(room string, client *Client) {
	if members, ok := v.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(v.rooms, room)
		}
	}
	if rooms, ok := v.joined[client]; ok {
		delete(rooms, room)
	}
}

func (v *RoomRegistry) DropClient(client *Client) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for room := range v.joined[client] {
		v.leaveLocked(room, client)
	}
	delete(v.joined, client)
}

func (v *RoomRegistry) InRoom(room string, client *Client) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.rooms[room][client]
	return ok
}

func (v *RoomRegistry) CountRoom(room string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.rooms[room])
}

// Broadcast writes to every local member of the room, the sender's own other
// connections included.
func (v *RoomRegistry) Broadcast(room string, packet ServerPacket) {
	v.mu.RLock()
	members := make([]*Client, 0, len(v.rooms[room]))
	for client := range v.rooms[room] {
		members = append(members, client)
	}
	v.mu.RUnlock()

	for _, client := range members {
		_ = client.Write(packet)
	}
}
