package broadcast

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Raufnarejo505/AI-Predictive-Maintaince/internal/ports"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard clients connect from other origins; auth is out of scope.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans named events out to connected websocket clients. Publish is
// fire-and-forget: when the hub or a client is saturated the event is
// dropped, never blocking the pipeline.
type Hub struct {
	obs ports.Observability

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	mu      sync.Mutex
	clients map[*client]struct{}

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

func NewHub(obs ports.Observability) *Hub {
	h := &Hub{
		obs:        obs,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*client]struct{}),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	go h.run()
	return h
}

// Publish marshals {event, payload} and hands it to the broadcast loop.
func (h *Hub) Publish(event string, payload any) {
	msg, err := json.Marshal(map[string]any{"event": event, "payload": payload})
	if err != nil {
		h.obs.LogError("broadcast_marshal_failed", err,
			ports.Field{Key: "event", Value: event})
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.stopCh:
	default:
		h.obs.IncCounter("pm_broadcast_dropped_total", 1)
	}
}

// ServeWS upgrades an HTTP request into a hub subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.obs.LogError("websocket_upgrade_failed", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	select {
	case h.register <- c:
		go c.writePump()
		go c.readPump()
	case <-h.stopCh:
		conn.Close()
	}
}

func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	<-h.doneCh
}

func (h *Hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) run() {
	defer close(h.doneCh)
	for {
		select {
		case <-h.stopCh:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: drop it rather than stall the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

var _ ports.Broadcaster = (*Hub)(nil)
