// Package stream fans rebase signals out to websocket subscribers.
package stream

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Signals are public notifications; any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks connected subscribers and broadcasts each signal to all of them.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// Subscribe upgrades the request and registers the connection until the peer
// goes away.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Drain reads so pings and close frames are processed; drop on error.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

// Publish implements the signal sink; a slow or dead subscriber is dropped
// rather than blocking the broadcast.
func (h *Hub) Publish(ctx context.Context, sig model.RebaseSignal) error {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(sig); err != nil {
			logger.Warn("dropping signal subscriber", "error", err)
			h.drop(c)
		}
	}
	return nil
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		_ = conn.Close()
	}
	h.mu.Unlock()
}
