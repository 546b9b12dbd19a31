package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/junaidrashid-git/storefront-api/pkg/outbox"
)

const writeWait = 5 * time.Second

// Message is what websocket subscribers receive for each order event.
type Message struct {
	Type    string          `json:"type"`
	OrderID string          `json:"orderId"`
	Data    json.RawMessage `json:"data"`
}

// Hub keeps the live websocket subscribers of the admin order feed.
type Hub struct {
	log     *slog.Logger
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{log: log, clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish broadcasts ev to every subscriber, dropping the ones that can't be written to.
func (h *Hub) Publish(_ context.Context, ev outbox.Event) error {
	data, err := json.Marshal(Message{Type: ev.Type, OrderID: ev.AggregateID, Data: ev.Payload})
	if err != nil {
		return err
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	// Writes happen outside the lock so a slow subscriber can't stall Add or Remove.
	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("dropping websocket subscriber", "err", err)
			h.Remove(conn)
			_ = conn.Close()
		}
	}
	return nil
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
