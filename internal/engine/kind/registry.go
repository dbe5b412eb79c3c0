// Package kind provides the block-kind registry.
//
// The registry is an explicit object owned by the engine instance that
// constructed it, never a package-level singleton, so multiple independent
// editor instances can coexist in one process without cross-talk. The engine
// only consults the registry for the kind discriminator; payload shapes are
// owned by the renderers registered for each kind, outside this repository.
package kind

import (
	"errors"
	"sort"
	"sync"

	"github.com/blockpress/blockpress/internal/engine/document"
)

// Errors returned by registry operations.
var (
	ErrEmptyName     = errors.New("kind name cannot be empty")
	ErrAlreadyExists = errors.New("kind already registered")
	ErrNotRegistered = errors.New("kind not registered")
)

// Registry tracks the block kinds a document may contain.
// The reserved default kind is always accepted and need not be registered.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(names ...string) *Registry {
	r := &Registry{kinds: make(map[string]struct{})}
	for _, n := range names {
		if n != "" {
			r.kinds[n] = struct{}{}
		}
	}
	return r
}

// Register adds a kind name.
func (r *Registry) Register(name string) error {
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[name]; exists {
		return ErrAlreadyExists
	}
	r.kinds[name] = struct{}{}
	return nil
}

// Unregister removes a kind name. The default kind cannot be removed.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[name]; !exists {
		return ErrNotRegistered
	}
	delete(r.kinds, name)
	return nil
}

// Has reports whether a kind is accepted: either the reserved default kind
// or a registered name.
func (r *Registry) Has(name string) bool {
	if name == document.DefaultKind {
		return true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.kinds[name]
	return exists
}

// Names returns the registered kind names in sorted order.
// The default kind is included only if explicitly registered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.kinds))
	for n := range r.kinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered kinds.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds)
}
