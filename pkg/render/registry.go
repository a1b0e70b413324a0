package render

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores presenters by name.
type Registry struct {
	mu         sync.RWMutex
	presenters map[string]Presenter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		presenters: make(map[string]Presenter),
	}
}

// Register adds a presenter by its Name(). Duplicate names return an error.
func (r *Registry) Register(presenter Presenter) error {
	if presenter == nil {
		return fmt.Errorf("render: presenter is required")
	}
	name := presenter.Name()
	if name == "" {
		return fmt.Errorf("render: presenter name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.presenters[name]; exists {
		return fmt.Errorf("render: presenter %q already registered", name)
	}
	r.presenters[name] = presenter
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(presenter Presenter) {
	if err := r.Register(presenter); err != nil {
		panic(err)
	}
}

// Get retrieves a presenter by name.
func (r *Registry) Get(name string) (Presenter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	presenter, ok := r.presenters[name]
	if !ok {
		return nil, fmt.Errorf("render: presenter %q not found (have %v)", name, r.namesLocked())
	}
	return presenter, nil
}

// List returns the sorted presenter names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.presenters))
	for name := range r.presenters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
