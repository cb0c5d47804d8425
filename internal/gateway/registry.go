package gateway

import (
	"log/slog"
	"sync"
)

// Registry is the shared set of admitted connections and the single broadcast
// point for chat events. Adding and removing a connection are atomic with
// respect to any broadcast iteration: a broadcast in progress never delivers
// to a connection being removed and never skips one that was admitted before
// the broadcast began.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*Connection
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Add admits a connection into the broadcast set.
func (r *Registry) Add(c *Connection) {
	r.mu.Lock()
	r.conns[c.ID] = c
	total := len(r.conns)
	r.mu.Unlock()
	slog.Info("Connection admitted to registry", "connID", c.ID, "userID", c.Identity.ID, "total_connections", total)
}

// Remove takes a connection out of the broadcast set and closes its outbound
// channel. It is idempotent and reports whether the connection was present.
func (r *Registry) Remove(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(connID)
}

func (r *Registry) removeLocked(connID string) bool {
	c, ok := r.conns[connID]
	if !ok {
		return false
	}
	delete(r.conns, connID)
	close(c.send)
	slog.Info("Connection removed from registry", "connID", connID, "userID", c.Identity.ID, "total_connections", len(r.conns))
	return true
}

// Broadcast delivers a payload to every admitted connection except those in
// exclude. A connection whose outbound buffer is full is assumed dead and is
// evicted inline, exactly as if it had disconnected.
func (r *Registry) Broadcast(payload []byte, exclude ...string) {
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.conns {
		if _, excluded := skip[id]; excluded {
			continue
		}
		if !c.enqueue(payload) {
			slog.Warn("Connection send buffer full, evicting", "connID", id, "userID", c.Identity.ID)
			r.removeLocked(id)
		}
	}
}

// Send delivers a payload to a single connection. It reports false when the
// connection is not registered or its buffer is full.
func (r *Registry) Send(connID string, payload []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return false
	}
	if !c.enqueue(payload) {
		slog.Warn("Connection send buffer full, evicting", "connID", connID, "userID", c.Identity.ID)
		r.removeLocked(connID)
		return false
	}
	return true
}

// Len reports the number of admitted connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
