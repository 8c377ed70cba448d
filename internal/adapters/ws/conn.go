package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ovrsee/spyglass/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// RelayConn is the outbound half of one dashboard connection: a bounded
// send queue drained by the write pump. TrySend never blocks the caller.
type RelayConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func NewRelayConn(conn *websocket.Conn, sendBuffer int) *RelayConn {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &RelayConn{
		conn: conn,
		send: make(chan core.Frame, sendBuffer),
	}
}

// TrySend queues a frame for delivery. When the queue is full the oldest
// queued frame is discarded first: for live media a stale frame is worth
// less than the one replacing it.
func (c *RelayConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
		return nil
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *RelayConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
