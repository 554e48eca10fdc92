package websocket

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

type Envelope struct {
	UserID  uuid.UUID
	Payload any
}

// Hub fans notifications out to every open connection of a user. All map
// access happens on the Run goroutine.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Envelope

	clients map[uuid.UUID]map[Conn]struct{}
	counts  chan chan int
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Envelope, 64),
		clients:    make(map[uuid.UUID]map[Conn]struct{}),
		counts:     make(chan chan int),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for conn := range conns {
					conn.Close()
				}
			}
			h.clients = make(map[uuid.UUID]map[Conn]struct{})
			return
		case client := <-h.Register:
			slog.Debug("websocket client registered", "user_id", client.UserID)
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[Conn]struct{})
				h.clients[client.UserID] = conns
			}
			conns[client.Conn] = struct{}{}
		case client := <-h.Unregister:
			slog.Debug("websocket client unregistered", "user_id", client.UserID)
			h.remove(client.UserID, client.Conn)
		case msg := <-h.Broadcast:
			for conn := range h.clients[msg.UserID] {
				if err := conn.WriteJSON(msg.Payload); err != nil {
					slog.Warn("websocket write failed", "user_id", msg.UserID, "error", err)
					conn.Close()
					h.remove(msg.UserID, conn)
				}
			}
		case reply := <-h.counts:
			n := 0
			for _, conns := range h.clients {
				n += len(conns)
			}
			reply <- n
		}
	}
}

func (h *Hub) remove(userID uuid.UUID, conn Conn) {
	conns, ok := h.clients[userID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, userID)
	}
}

// Push queues payload for userID. It drops the message when the queue is
// full rather than blocking the caller.
func (h *Hub) Push(userID uuid.UUID, payload any) {
	select {
	case h.Broadcast <- Envelope{UserID: userID, Payload: payload}:
	default:
		slog.Warn("websocket broadcast queue full, dropping message", "user_id", userID)
	}
}

// Connections reports the number of open connections. It needs a running hub.
func (h *Hub) Connections(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- reply:
	case <-ctx.Done():
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-ctx.Done():
		return 0
	}
}
