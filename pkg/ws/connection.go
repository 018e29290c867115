package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

var (
	ErrConnectionClosed = errors.New("ws: connection closed")
	// ErrSlowConsumer is returned when a connection's outbound buffer is full
	// and the frame is dropped. Best-effort push, never a blocking write.
	ErrSlowConsumer = errors.New("ws: slow consumer, frame dropped")
)

// Connectioner is the sending side of a live websocket connection.
type Connectioner interface {
	SendMessage(message []byte) error
	Close() error
}

type Connection struct {
	conn *websocket.Conn
	hub  *Hub

	send      chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newConnection(conn *websocket.Conn, hub *Hub) *Connection {
	return &Connection{
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// SendMessage queues message for delivery. It never blocks: a closed
// connection returns ErrConnectionClosed, a full buffer ErrSlowConsumer.
func (c *Connection) SendMessage(message []byte) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- message:
		return nil
	case <-c.closed:
		return ErrConnectionClosed
	default:
		return ErrSlowConsumer
	}
}

func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
		c.hub.unregister(c)
	})
	return err
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// The protocol has no client-to-server messages; reading only
		// services control frames and detects the peer going away.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
