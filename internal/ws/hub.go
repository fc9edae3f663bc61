package ws

import (
	"context"
	"sync"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/event"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

const broadcastBuffer = 256

// Hub fans committed stock events out to every connected dashboard.
type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.Mutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
	}
}

// Run serves the register/unregister/broadcast loop until ctx is done, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return

		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			h.log.Debug("client connected", zap.Int("clients", h.ClientCount()))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Publish queues e for broadcast. A full queue drops the event rather than
// stalling the request that produced it.
func (h *Hub) Publish(_ context.Context, e event.Event) error {
	msg, err := e.Marshal()
	if err != nil {
		return err
	}
	select {
	case h.Broadcast <- msg:
	default:
		h.log.Warn("broadcast queue full, dropping event",
			zap.String("type", string(e.Type)),
			zap.Uint("product_id", e.ProductID),
		)
	}
	return nil
}

// Serve keeps one upgraded connection registered until the client goes away.
func (h *Hub) Serve(c *websocket.Conn) {
	if !h.register(c) {
		return
	}
	defer h.unregister(c)

	for {
		// Keep alive loop
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// register hands c to Run. It reports false once Run has stopped.
func (h *Hub) register(c *websocket.Conn) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// unregister hands c back to Run; after Run has stopped the connection is
// already closed and there is nothing left to do.
func (h *Hub) unregister(c *websocket.Conn) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}
