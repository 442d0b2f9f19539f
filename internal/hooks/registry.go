package hooks

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownHook is returned when a hook name is not registered.
var ErrUnknownHook = errors.New("hooks: unknown hook")

type entry struct {
	name string
	fn   Func
}

// Registry is an ordered set of named hooks.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	index   map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds a hook. Names must be non-empty and unique.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("hooks: register: empty name")
	}
	if fn == nil {
		return fmt.Errorf("hooks: register %q: nil func", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.index[name]; dup {
		return fmt.Errorf("hooks: register %q: already registered", name)
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, entry{name: name, fn: fn})
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *Registry) MustRegister(name string, fn Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Names returns the registered names in registration order. The slice
// is a copy.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Lookup returns the hook registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.entries[i].fn, true
}

// Len reports how many hooks are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) snapshot() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entry(nil), r.entries...)
}
