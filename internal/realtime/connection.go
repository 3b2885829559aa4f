package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Connection is one live socket of one authenticated user. A user has one
// Connection per open tab or device; the registry owns the Connection for
// its whole lifetime.
type Connection struct {
	ID            string
	UserID        uint64
	EstablishedAt time.Time

	mu     sync.Mutex
	closed bool
	send   chan ServerEvent
}

func newConnection(userID uint64, buffer int) *Connection {
	return &Connection{
		ID:            uuid.NewString(),
		UserID:        userID,
		EstablishedAt: time.Now().UTC(),
		send:          make(chan ServerEvent, buffer),
	}
}

// Push queues an event for the connection's write pump without blocking.
// It reports false when the buffer is full or the connection was already
// removed; pushes are best-effort, the poll path is the backstop.
//
// Pushers run concurrently with Remove, so Push and close share the lock:
// a push that loses the race to a disconnect is a drop, not a send on a
// closed channel.
func (c *Connection) Push(ev ServerEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Events is drained by the write pump; the channel closes when the registry
// removes the connection.
func (c *Connection) Events() <-chan ServerEvent {
	return c.send
}

func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
