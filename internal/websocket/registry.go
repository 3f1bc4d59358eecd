package websocket

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var ErrConnectionNotFound = fmt.Errorf("connection not found")

// Binding is the (user, space) pair a connection acquires on a successful join.
type Binding struct {
	UserID  uint
	SpaceID uint
}

// Registry tracks every live connection and, for each, the space it currently
// occupies. A connection holds at most one binding at a time; rebinding
// atomically replaces the previous one. All access goes through the methods
// below, the map never leaks outward.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Binding // nil value = registered but unbound
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Binding),
	}
}

// Register allocates a new connection record with no bound space and returns
// its identifier. Called on transport accept.
func (r *Registry) Register() string {
	id := uuid.New().String()

	r.mu.Lock()
	r.conns[id] = nil
	r.mu.Unlock()

	return id
}

// BindSpace records the (user, space) binding for a connection, replacing any
// prior binding. It returns the previous binding, if any, so the caller can
// unsubscribe it from its old room. Rebinding to the same space is idempotent.
func (r *Registry) BindSpace(connID string, userID, spaceID uint) (*Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.conns[connID]
	if !ok {
		return nil, ErrConnectionNotFound
	}

	r.conns[connID] = &Binding{UserID: userID, SpaceID: spaceID}
	return prev, nil
}

// CurrentBinding returns the connection's live binding. The second return is
// false when the connection is unknown or not yet bound. Events are authorized
// against this lookup rather than re-authenticating each frame.
func (r *Registry) CurrentBinding(connID string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.conns[connID]
	if !ok || b == nil {
		return Binding{}, false
	}
	return *b, true
}

// Unregister removes the connection and returns its final binding, if any, so
// the caller can release the matching room subscription. Safe to call
// concurrently with in-flight events for the same connection: they observe
// either the old binding or no binding, never a torn read. Unregistering an
// unknown connection is a no-op.
func (r *Registry) Unregister(connID string) *Binding {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.conns[connID]
	if !ok {
		return nil
	}
	delete(r.conns, connID)
	return b
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
