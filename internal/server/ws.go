package server

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ayusman/cosmozoom/internal/app"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type helloMessage struct {
	ClientID string `json:"client_id"`
}

type signalClient struct {
	id      string
	conn    *websocket.Conn
	send    chan app.Update
	limiter *rate.Limiter
}

// SignalHub pushes the gesture signal of every drawn frame to WebSocket
// clients. Each client is throttled separately; a slow client only ever
// gets the newest update.
type SignalHub struct {
	log   *logrus.Logger
	limit rate.Limit

	mu          sync.RWMutex
	clients     map[string]*signalClient
	closed      bool
	unsubscribe func()
}

// NewSignalHub subscribes to the gesture view and pushes at most limit
// updates per second to each client.
func NewSignalHub(view GestureView, limit rate.Limit, log *logrus.Logger) *SignalHub {
	h := &SignalHub{
		log:     log,
		limit:   limit,
		clients: make(map[string]*signalClient),
	}
	h.unsubscribe = view.Subscribe(h.broadcast)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SignalHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	c := &signalClient{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan app.Update, 1),
		limiter: rate.NewLimiter(h.limit, 1),
	}

	hello, _ := json.Marshal(helloMessage{ClientID: c.id})
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		return
	}

	if !h.register(c) {
		return
	}
	defer h.unregister(c)

	go h.write(c)

	entry := h.log.WithField("client_id", c.id)
	entry.Debug("signal client connected")

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	entry.Debug("signal client disconnected")
}

func (h *SignalHub) write(c *signalClient) {
	for u := range c.send {
		msg, err := json.Marshal(u)
		if err != nil {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
}

func (h *SignalHub) register(c *signalClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *SignalHub) unregister(c *signalClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// broadcast runs on the frame consumer and never blocks.
func (h *SignalHub) broadcast(u app.Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if !c.limiter.Allow() {
			continue
		}
		select {
		case c.send <- u:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- u:
			default:
			}
		}
	}
}

// Clients returns the number of connected clients.
func (h *SignalHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unsubscribes from the gesture view and disconnects every client.
func (h *SignalHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.unsubscribe()

	for id, c := range h.clients {
		c.conn.Close()
		close(c.send)
		delete(h.clients, id)
	}
}
