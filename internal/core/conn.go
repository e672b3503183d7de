package core

import (
	"sync"

	"github.com/google/uuid"
)

// outboxSize bounds how many undelivered payloads a connection may queue
// before further pushes are dropped.
const outboxSize = 32

// Conn is one live bidirectional connection as seen by the core layer.
// Identity is not stored here; the Registry keeps it in a side table so
// that a connection handle stays inert on its own.
type Conn struct {
	ID string

	// Outbox carries payloads to the transport write loop.
	Outbox chan any

	mu     sync.Mutex
	closed bool
}

// NewConn constructs a connection handle with a fresh ID.
func NewConn() *Conn {
	return &Conn{
		ID:     uuid.NewString(),
		Outbox: make(chan any, outboxSize),
	}
}

// TrySend queues a payload without blocking. Payloads are dropped when the
// connection is closed or its outbox is full, so one slow or dead peer
// never stalls a broadcast. Returns true if the payload was queued.
func (c *Conn) TrySend(payload any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Outbox <- payload:
		return true
	default:
		return false
	}
}

// Close marks the connection closed and closes the outbox. Idempotent;
// no sends are attempted on a closed connection.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Outbox)
}
