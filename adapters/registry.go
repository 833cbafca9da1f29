package adapters

import (
	"fmt"
	"sync"

	"github.com/brettbedarf/simfs"
	"github.com/bytedance/sonic"
)

// Factory builds a provider from a raw JSON source definition
type Factory func(raw []byte) (simfs.AdapterProvider, error)

// Registry ties source "type" keys to factories. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns a process-wide registry with every built-in registered
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		RegisterBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// Register adds a factory for adapterType. The first registration for a
// type wins; later ones are ignored.
func (r *Registry) Register(adapterType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[adapterType]; ok {
		return
	}
	r.factories[adapterType] = f
}

// Factory returns the factory registered for adapterType
func (r *Registry) Factory(adapterType string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[adapterType]
	if !ok {
		return nil, fmt.Errorf("no factory for %q", adapterType)
	}
	return f, nil
}

// Provider picks the factory from the source's "type" field and builds
// the provider
func (r *Registry) Provider(raw []byte) (simfs.AdapterProvider, error) {
	var meta struct {
		Type string `json:"type"`
	}
	if err := sonic.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("source definition: %w", err)
	}
	f, err := r.Factory(meta.Type)
	if err != nil {
		return nil, err
	}
	return f(raw)
}
