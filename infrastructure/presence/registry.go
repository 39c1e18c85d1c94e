// Package presence tracks which users hold a live connection to this
// process. The registry is process-local: it is rebuilt empty on restart
// and is not shared between instances.
package presence

import (
	"sort"
	"sync"
)

// AdminKey is the single registry slot shared by administrators
const AdminKey = "admin"

// Registry maps a user key to its connection id
type Registry struct {
	mu    sync.RWMutex
	conns map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]string)}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry
func Default() *Registry {
	defaultOnce.Do(func() { defaultRegistry = NewRegistry() })
	return defaultRegistry
}

// KeyFor returns the registry key for a user. Administrators share AdminKey.
func KeyFor(userID, role string) string {
	if role == AdminKey {
		return AdminKey
	}
	return userID
}

// Join records connID for the user, replacing an older connection
func (r *Registry) Join(userID, role, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[KeyFor(userID, role)] = connID
}

// Leave removes every key bound to connID and reports whether any was
func (r *Registry) Leave(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	for key, id := range r.conns {
		if id == connID {
			delete(r.conns, key)
			removed = true
		}
	}
	return removed
}

// Lookup returns the connection for key
func (r *Registry) Lookup(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.conns[key]
	return id, ok
}

// Online returns the connected keys in sorted order
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.conns))
	for key := range r.conns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
