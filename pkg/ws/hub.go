package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type HubOptions struct {
	Logger      *logrus.Logger
	CheckOrigin func(r *http.Request) bool

	// OnConnect runs after the connection is registered; returning an error
	// closes the connection immediately.
	OnConnect    func(r *http.Request, hub *Hub, conn *Connection) error
	OnDisconnect func(conn *Connection)
}

// Hub upgrades HTTP requests to websocket connections and fans messages out
// to every live connection. Delivery is best-effort: a connection that
// cannot keep up has frames dropped rather than blocking the fan-out.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Logger

	onConnect    func(r *http.Request, hub *Hub, conn *Connection) error
	onDisconnect func(conn *Connection)

	mu          sync.RWMutex
	connections map[*Connection]struct{}
}

func NewHub(opts *HubOptions) *Hub {
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:       opts.Logger,
		onConnect:    opts.OnConnect,
		onDisconnect: opts.OnDisconnect,
		connections:  make(map[*Connection]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("ws: upgrade failed")
		return
	}

	c := newConnection(conn, h)
	h.register(c)

	if h.onConnect != nil {
		if err := h.onConnect(r, h, c); err != nil {
			h.logger.WithError(err).Error("ws: connect hook failed")
			_ = c.Close()
			return
		}
	}

	go c.writePump()
	go c.readPump()
}

// Broadcast sends message to every live connection. Connections that are
// closed or whose outbound buffer is full are skipped.
func (h *Hub) Broadcast(message []byte) {
	for _, c := range h.Connections() {
		if err := c.SendMessage(message); err != nil {
			h.logger.WithError(err).Debug("ws: broadcast skipped connection")
		}
	}
}

// Connections returns a snapshot of the live connection set.
func (h *Hub) Connections() []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Connection, 0, len(h.connections))
	for c := range h.connections {
		out = append(out, c)
	}
	return out
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	h.connections[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	_, ok := h.connections[c]
	delete(h.connections, c)
	h.mu.Unlock()
	if ok && h.onDisconnect != nil {
		h.onDisconnect(c)
	}
}
