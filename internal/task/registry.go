package task

import (
	"fmt"
	"sync"
)

// Registry maps task names to implementations. Lookups may run concurrently
// without bound; registrations are serialized against both other
// registrations and lookups. Names are unique and never reused: there is no
// overwrite and no removal.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register adds a task under its own name. It fails if the name is empty or
// already taken; the earlier registration always wins.
func (r *Registry) Register(t Task) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("registry: task name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("registry: task already registered: %s", name)
	}
	r.tasks[name] = t
	return nil
}

// Lookup resolves a task by name.
func (r *Registry) Lookup(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Names returns the registered task names in unspecified order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		out = append(out, name)
	}
	return out
}
