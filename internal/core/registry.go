package core

import (
	"sync"

	"github.com/kstepanov/dmbridge-server/internal/proto"
)

// identity is what verification attached to a connection, if anything.
type identity struct {
	userID   int64
	username string
	bound    bool
}

// Registry tracks all live connections and their optional identities.
// It is the only owner of that state; transports admit, bind and evict
// through it. All methods are safe for concurrent use and hold the lock
// only for pure map work, never across I/O.
type Registry struct {
	mu    sync.RWMutex
	conns map[*Conn]identity
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[*Conn]identity)}
}

// Admit registers a new connection with no identity bound.
func (r *Registry) Admit(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; ok {
		return
	}
	r.conns[c] = identity{}
}

// Bind attaches a verified identity to an admitted connection. Binding the
// same identity twice is a no-op; binding a different identity to an
// already bound connection is rejected.
func (r *Registry) Bind(c *Conn, userID int64, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.conns[c]
	if !ok {
		return ErrNotRegistered
	}
	if id.bound {
		if id.userID == userID && id.username == username {
			return nil
		}
		return ErrAlreadyBound
	}
	r.conns[c] = identity{userID: userID, username: username, bound: true}
	return nil
}

// Evict removes a connection. Safe to call multiple times.
func (r *Registry) Evict(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c)
}

// ListAll returns every registered connection, bound or not.
func (r *Registry) ListAll() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		out = append(out, c)
	}
	return out
}

// ListByUser returns every connection currently bound to the given user.
// Multi-device: zero or more results, in no particular order.
func (r *Registry) ListByUser(userID int64) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Conn
	for c, id := range r.conns {
		if id.bound && id.userID == userID {
			out = append(out, c)
		}
	}
	return out
}

// Identity returns the bound identity of a connection, if any.
func (r *Registry) Identity(c *Conn) (userID int64, username string, bound bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id := r.conns[c]
	return id.userID, id.username, id.bound
}

// Roster projects one entry per live connection. Unbound connections are
// included with zero-value identity; duplicates per user are preserved.
func (r *Registry) Roster() []proto.RosterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]proto.RosterEntry, 0, len(r.conns))
	for _, id := range r.conns {
		entries = append(entries, proto.RosterEntry{
			UserID:   id.userID,
			Username: id.username,
		})
	}
	return entries
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
