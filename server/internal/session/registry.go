package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/topchat/topchat/pkg/types"
)

// DefaultName returns the display name assigned to id at registration.
func DefaultName(id types.ClientID) string {
	return fmt.Sprintf("Unknown-%d", id)
}

// Registry maps live client ids to display names.
type Registry struct {
	mu     sync.RWMutex
	nextID types.ClientID
	names  map[types.ClientID]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[types.ClientID]string)}
}

// Register allocates the next client id and stores its default name.
func (r *Registry) Register() types.ClientID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if r.nextID == types.Broadcast {
		// wrapped around after 2^32 connections
		r.nextID++
	}
	id := r.nextID
	r.names[id] = DefaultName(id)
	return id
}

// Rename overwrites the display name of id and returns the previous one.
// ok is false, and nothing changes, when id is not registered.
func (r *Registry) Rename(id types.ClientID, name string) (prev string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok = r.names[id]
	if !ok {
		return "", false
	}
	r.names[id] = name
	return prev, true
}

// Lookup returns the current display name of id.
func (r *Registry) Lookup(id types.ClientID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}

// Unregister removes id. It reports whether id was present.
func (r *Registry) Unregister(id types.ClientID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[id]; !ok {
		return false
	}
	delete(r.names, id)
	return true
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// IsEmpty reports whether no session is registered.
func (r *Registry) IsEmpty() bool {
	return r.Count() == 0
}

// List returns all registered sessions ordered by id.
func (r *Registry) List() []types.SessionInfo {
	r.mu.RLock()
	out := make([]types.SessionInfo, 0, len(r.names))
	for id, name := range r.names {
		out = append(out, types.SessionInfo{ID: id, Name: name})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
