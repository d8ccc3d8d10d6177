// Package realtime fans store change notifications out to websocket subscribers.
//
// A subscriber picks a path prefix when it connects ("players", "matches/abc", or empty for
// everything). Matching is per path segment, so "players/a" does not receive "players/ab".
package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Message types.
const (
	TypeSubscribed = "subscribed"
	TypeChanged    = "changed"
)

type Message struct {
	Type    string `json:"type"`
	Path    string `json:"path"`
	Payload any    `json:"payload,omitempty"`
}

// Hub tracks live subscribers. Publish never blocks: a subscriber whose buffer is full is
// disconnected.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	closed   bool
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHub builds a hub. An empty allowedOrigins list or "*" accepts any Origin header.
func NewHub(allowedOrigins []string, logger zerolog.Logger) *Hub {
	h := &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With().Str("module", "realtime").Str("component", "hub").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// Publish notifies every subscriber whose prefix covers path.
func (h *Hub) Publish(path string, payload any) {
	data, err := json.Marshal(Message{Type: TypeChanged, Path: path, Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Str("path", path).Msg("failed to encode change message")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		if !Matches(c.prefix, path) {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn().Str("prefix", c.prefix).Msg("dropping slow subscriber")
		h.unregister(c)
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and subscribes the connection to the "path" query prefix.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	prefix := strings.Trim(r.URL.Query().Get("path"), "/")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), prefix: prefix}
	// queue the ack before the client becomes visible to Publish and Close
	ack, _ := json.Marshal(Message{Type: TypeSubscribed, Path: prefix})
	c.send <- ack
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Debug().Str("prefix", c.prefix).Int("subscribers", len(h.clients)).Msg("subscriber registered")
	return true
}

// unregister is idempotent; the send channel is closed exactly once, under the write lock,
// so Publish can never send on a closed channel.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Matches reports whether a subscription prefix covers path.
func Matches(prefix, path string) bool {
	if prefix == "" || prefix == path {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
