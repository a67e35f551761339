package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"dlguard/internal/platform/logger"

	dom "dlguard/internal/services/guard/domain"

	"github.com/gorilla/websocket"
)

const (
	// DefaultHistory is the ring size when none is configured
	DefaultHistory = 100

	clientBuffer = 16
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingEvery    = pongWait * 9 / 10
)

// Hub keeps the last notifications in memory and pushes new ones to
// subscribers. Emit never blocks: a subscriber whose buffer is full misses the message
type Hub struct {
	mu      sync.Mutex
	ring    []dom.Notification
	next    int
	full    bool
	clients map[chan dom.Notification]struct{}
	closed  bool

	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewHub keeps up to history notifications; values below 1 use DefaultHistory
func NewHub(history int) *Hub {
	if history < 1 {
		history = DefaultHistory
	}
	return &Hub{
		ring:    make([]dom.Notification, history),
		clients: map[chan dom.Notification]struct{}{},
		upgrader: websocket.Upgrader{
			// served to the local browser extension and CLI
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logger.Named("notify"),
	}
}

// Emit records n and offers it to every subscriber
func (h *Hub) Emit(_ context.Context, n dom.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ring[h.next] = n
	h.next = (h.next + 1) % len(h.ring)
	if h.next == 0 {
		h.full = true
	}
	for ch := range h.clients {
		select {
		case ch <- n:
		default:
			h.log.Warn().Str("notification_id", n.ID).Msg("slow subscriber, notification dropped")
		}
	}
}

// History returns the retained notifications, oldest first
func (h *Hub) History() []dom.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.full {
		return append([]dom.Notification{}, h.ring[:h.next]...)
	}
	out := make([]dom.Notification, 0, len(h.ring))
	out = append(out, h.ring[h.next:]...)
	return append(out, h.ring[:h.next]...)
}

// Subscribe returns a channel of new notifications and a cancel func that closes it
func (h *Hub) Subscribe() (<-chan dom.Notification, func()) {
	ch := make(chan dom.Notification, clientBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
}

// Subscribers reports the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close ends every subscription; later subscribers get a closed channel
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

// ServeWS upgrades the request and streams notifications as JSON text frames
// until the client goes away or the hub closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	log := logger.CNamed(r.Context(), "notify")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already wrote an HTTP error
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	ch, cancel := h.Subscribe()
	defer cancel()
	log.Debug().Msg("notification stream opened")

	// reader: only control frames are expected; any error ends the stream
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingEvery)
	defer ping.Stop()
	for {
		select {
		case n, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			log.Debug().Msg("notification stream closed by client")
			return
		}
	}
}
