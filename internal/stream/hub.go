package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gaugefetch/gaugefetch/internal/expose"
	"github.com/gaugefetch/gaugefetch/internal/metric"
)

const (
	// writeWait is the deadline for a single frame write.
	writeWait = 5 * time.Second

	// clientBuffer is the per-client queue of pending frames. A client that
	// falls this far behind is dropped.
	clientBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  256,
	WriteBufferSize: 4096,
	// Origin checks belong on the reverse proxy; the stream is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub broadcasts the rendered exposition document to every connected client
// each interval.
type Hub struct {
	store    *metric.Store
	interval time.Duration

	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

// New creates a Hub reading from st and broadcasting every interval.
func New(st *metric.Store, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		interval: interval,
		clients:  make(map[chan []byte]struct{}),
	}
}

// Run drives the broadcast ticker until ctx is cancelled, then disconnects
// all clients.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for ch := range h.clients {
				close(ch)
				delete(h.clients, ch)
			}
			h.mu.Unlock()
			return
		case <-t.C:
			h.broadcast(expose.Render(h.store))
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and streams documents until the client
// disconnects or the hub shuts down. The current document is sent immediately
// so a client never waits a full interval for its first frame.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}
	defer conn.Close()

	ch := make(chan []byte, clientBuffer)
	ch <- expose.Render(h.store)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	defer h.drop(ch)

	// Drain incoming frames so control messages are processed and a client
	// disconnect unblocks the write loop below.
	quit := make(chan struct{})
	go func() {
		defer close(quit)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case doc, ok := <-ch:
			if !ok {
				// Hub shut down — tell the client before closing.
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, doc); err != nil {
				return
			}
		case <-quit:
			return
		}
	}
}

func (h *Hub) broadcast(doc []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- doc:
		default:
			// Client is not keeping up — disconnect it.
			close(ch)
			delete(h.clients, ch)
		}
	}
}

// drop removes ch from the client set if the hub has not already done so.
func (h *Hub) drop(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}
