package model

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRegistry is an in-memory Store.
type MemoryRegistry struct {
	mu     sync.RWMutex
	models map[string]Metadata
}

// NewMemoryRegistry creates a registry holding models.
func NewMemoryRegistry(models ...Metadata) *MemoryRegistry {
	r := &MemoryRegistry{models: make(map[string]Metadata, len(models))}
	for _, m := range models {
		r.models[m.ID] = m
	}
	return r
}

// Get implements Registry.
func (r *MemoryRegistry) Get(_ context.Context, id string) (Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[id]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return m, nil
}

// Put stores m.
func (r *MemoryRegistry) Put(_ context.Context, m Metadata) error {
	if err := m.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.ID] = m
	return nil
}

// Delete removes id.
func (r *MemoryRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.models, id)
	return nil
}
