// internal/lobby/registry.go
package lobby

import (
	"sort"
	"sync"
)

// ConnectionRegistry maps participant identities to their live connection.
// It is the only place that answers "is this participant reachable right now".
type ConnectionRegistry struct {
	mu    sync.Mutex
	conns map[string]*Connection // identity -> connection
}

// NewConnectionRegistry returns an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[string]*Connection),
	}
}

// Register binds identity to conn, replacing any earlier binding. The replaced
// connection is returned when it differs from conn so the caller can decide
// what to do with it.
func (r *ConnectionRegistry) Register(identity string, conn *Connection) (superseded *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.conns[identity]; ok && old != conn {
		superseded = old
	}
	r.conns[identity] = conn
	return superseded
}

// Resolve returns the live connection for identity. A miss is normal.
func (r *ConnectionRegistry) Resolve(identity string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[identity]
	return c, ok
}

// Unregister removes the binding for identity. No-op if absent.
func (r *ConnectionRegistry) Unregister(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, identity)
}

// IdentitiesBoundTo returns every identity currently bound to conn. The
// transport reports closes per connection, so this is how a close is mapped
// back to participants.
func (r *ConnectionRegistry) IdentitiesBoundTo(conn *Connection) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, c := range r.conns {
		if c == conn {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of bound identities.
func (r *ConnectionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
