package relay

import (
	"sync"

	"github.com/gorilla/websocket"
)

const sendQueueSize = 32

// client is one websocket connection joined to a room channel. Outbound
// frames go through the buffered send queue consumed by a single writer
// goroutine; the read loop never writes.
type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(userID string, conn *websocket.Conn) *client {
	return &client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// enqueue queues a frame for delivery. Returns false when the client's
// queue is full or the client is closing; the frame is dropped.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- data:
		return true
	default:
		return false
	}
}

// writeLoop is the single writer for the connection.
func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		}
	}
}

// close is idempotent and safe from any goroutine.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
