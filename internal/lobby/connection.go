// internal/lobby/connection.go
package lobby

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultOutboundBuffer is the per-connection outbound queue depth.
const DefaultOutboundBuffer = 32

// Connection is the live transport handle of one client. The transport layer
// drains OutChan; everything else only ever calls Write.
type Connection struct {
	ID         string
	RemoteAddr string
	OutChan    chan map[string]interface{}

	cancel    func()
	done      chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	closeReason string
}

// NewConnection creates a handle with an outbound queue of the given depth.
// cancel is invoked once when the connection is closed from the server side.
func NewConnection(remoteAddr string, buffer int, cancel func()) *Connection {
	if buffer <= 0 {
		buffer = DefaultOutboundBuffer
	}
	return &Connection{
		ID:         uuid.NewString(),
		RemoteAddr: remoteAddr,
		OutChan:    make(chan map[string]interface{}, buffer),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Write pushes a message onto the outbound queue without blocking. Messages
// for a closed or backed-up connection are dropped and logged.
func (c *Connection) Write(msg map[string]interface{}) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		logrus.WithFields(logrus.Fields{
			"conn_id": c.ID,
			"remote":  c.RemoteAddr,
			"type":    msgType,
		}).Warn("outbound queue full, dropping message")
	}
}

// WriteError sends an error message to this connection only.
func (c *Connection) WriteError(reason string) {
	c.Write(newError(reason))
}

// Done is closed once the connection has been closed from the server side.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close stops further writes and cancels the transport loops. Safe to call
// more than once; the first reason wins.
func (c *Connection) Close(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeReason = reason
		c.mu.Unlock()
		close(c.done)
		if c.cancel != nil {
			c.cancel()
		}
	})
}

// CloseReason reports why the server closed the connection, or "" if it did not.
func (c *Connection) CloseReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeReason
}
