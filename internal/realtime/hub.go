// Package realtime is the distribution bridge between the event bus and
// connected clients: it admits websocket connections (rate check, then
// auth), fans world data out to everyone, and routes room-scoped chat.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Events emitted to clients. Each is wrapped as {t, data}.
const (
	EventWorldDelta  = "world:delta"
	EventWorldEvent  = "world:event"
	EventQuestNew    = "quest:new"
	EventChatMessage = "chat:message"
)

// systemSender is the fixed sender label stamped on relayed chat.
const systemSender = "system"

type envelope struct {
	T    string `json:"t"`
	Data any    `json:"data"`
}

// ChatMessage is the payload of chat:message events.
type ChatMessage struct {
	Room string    `json:"room"`
	User string    `json:"user"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// client is one authenticated connection. Room membership lives only as
// long as the connection does.
type client struct {
	conn    *websocket.Conn
	mu      sync.Mutex // serializes writes to conn
	subject string
	rooms   map[string]struct{}
}

func (c *client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks connected clients and their rooms.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *Hub) join(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.rooms[room] = struct{}{}
}

func (h *Hub) snapshot() []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *Hub) roomMembers(room string) []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if _, ok := c.rooms[room]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Broadcast sends an event to every connected client, regardless of rooms.
// World data is a global channel; there is no per-client targeting.
func (h *Hub) Broadcast(event string, data any) {
	h.deliver(h.snapshot(), event, data)
}

// ToRoom sends an event to every member of a room.
func (h *Hub) ToRoom(room, event string, data any) {
	h.deliver(h.roomMembers(room), event, data)
}

func (h *Hub) deliver(clients []*client, event string, data any) {
	msg, err := json.Marshal(envelope{T: event, Data: data})
	if err != nil {
		log.Printf("realtime: marshal %s: %v", event, err)
		return
	}
	for _, c := range clients {
		if err := c.send(msg); err != nil {
			// The read loop notices the dead connection and removes it.
			log.Printf("realtime: send %s to %s failed: %v", event, c.subject, err)
		}
	}
}
