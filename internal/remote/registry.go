package remote

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs an adapter for a backend. projectRef identifies
// the remote project (meaning is backend-specific).
type Factory func(projectRef string) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available by name. Adapters register
// themselves from an init function.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Open constructs the adapter for the named backend.
func Open(name, projectRef string) (Adapter, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %v)", name, Backends())
	}
	return factory(projectRef)
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
