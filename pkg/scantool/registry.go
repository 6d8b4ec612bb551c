package scantool

import (
	"slices"
	"sync"

	"scanorch/pkg/domain"
)

// Registry maps protocols to the adapter that scans them. It is safe for
// concurrent use; registration normally happens once at startup.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.Protocol]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[domain.Protocol]Adapter)}
}

// Register binds adapter to protocol, replacing any previous binding.
func (r *Registry) Register(protocol domain.Protocol, adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters[protocol] = adapter
}

// Lookup returns the adapter registered for protocol.
func (r *Registry) Lookup(protocol domain.Protocol) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[protocol]

	return a, ok
}

// Protocols returns the registered protocols in declaration order.
func (r *Registry) Protocols() []domain.Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Protocol, 0, len(r.adapters))
	for _, p := range domain.Protocols {
		if _, ok := r.adapters[p]; ok {
			out = append(out, p)
		}
	}

	return slices.Clip(out)
}
