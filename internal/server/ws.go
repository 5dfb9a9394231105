package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event feed tuning.
const (
	clientBuffer = 64
	writeTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler fans JSON messages out to WebSocket clients. Slow clients
// lose messages instead of holding up the publisher.
type EventsHandler struct {
	greeting func() any
	clients  map[*websocket.Conn]chan []byte
	mu       sync.RWMutex
	closed   bool
}

// NewEventsHandler creates an EventsHandler. greeting, when set, produces
// the first message every new client receives.
func NewEventsHandler(greeting func() any) *EventsHandler {
	return &EventsHandler{
		greeting: greeting,
		clients:  make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	out := make(chan []byte, clientBuffer)
	if h.greeting != nil {
		if msg, err := json.Marshal(h.greeting()); err == nil {
			out <- msg
		}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.clients[conn] = out
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain client messages so close frames are processed.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-out:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// Broadcast sends v as JSON to every connected client.
func (h *EventsHandler) Broadcast(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Printf("server: encode event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, out := range h.clients {
		select {
		case out <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *EventsHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for conn, out := range h.clients {
		close(out)
		delete(h.clients, conn)
	}
}
