package relay

import "sync"

// Conn is a live, addressable chat connection.
type Conn interface {
	// Send enqueues a frame without blocking.
	Send(frame []byte) error
	Close() error
}

// Registry maps user ids to their single active connection.
// It is the only source of truth for whether a user is reachable on this instance.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register makes conn the active connection for userID and returns the
// connection it replaced, if any.
func (r *Registry) Register(userID string, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	previous := r.conns[userID]
	r.conns[userID] = conn
	if previous == conn {
		return nil
	}
	return previous
}

// Unregister removes userID only while conn is still its active connection.
func (r *Registry) Unregister(userID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[userID]; ok && current == conn {
		delete(r.conns, userID)
		return true
	}
	return false
}

// Lookup returns the active connection for userID.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Len returns the number of reachable users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
