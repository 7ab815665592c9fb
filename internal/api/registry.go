// Package api exposes the hydration engine over HTTP.
package api

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"document-hydrator/internal/hydrator"
)

// ErrUnknownSource reports a request naming a source that is not configured.
var ErrUnknownSource = errors.New("unknown source")

// Registry maps source names to the resolvers that serve them.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]hydrator.Resolver
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]hydrator.Resolver)}
}

// Register binds name to resolver, replacing any previous binding.
func (r *Registry) Register(name string, resolver hydrator.Resolver) error {
	if name == "" {
		return fmt.Errorf("source name is required")
	}
	if resolver == nil {
		return fmt.Errorf("source %q: resolver is required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[name] = resolver
	return nil
}

// Lookup returns the resolver registered under name.
func (r *Registry) Lookup(name string) (hydrator.Resolver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resolver, ok := r.resolvers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return resolver, nil
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.resolvers))
	for name := range r.resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
