package model

import (
	"context"

	"github.com/hupe1980/vecfield/internal/cache"
)

// DefaultCacheSize is the number of models a CachingRegistry keeps.
const DefaultCacheSize = 128

// CachingRegistry caches ready models from another registry. Models still
// training or failed are looked up again on every call so state changes are
// picked up.
type CachingRegistry struct {
	next  Registry
	cache *cache.LRU[string, Metadata]
}

// NewCachingRegistry wraps next with an LRU of size entries.
func NewCachingRegistry(next Registry, size int) *CachingRegistry {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &CachingRegistry{
		next:  next,
		cache: cache.NewLRU[string, Metadata](size),
	}
}

// Get implements Registry.
func (r *CachingRegistry) Get(ctx context.Context, id string) (Metadata, error) {
	if m, ok := r.cache.Get(id); ok {
		return m, nil
	}

	m, err := r.next.Get(ctx, id)
	if err != nil {
		return Metadata{}, err
	}
	if m.Ready() == nil {
		r.cache.Set(id, m)
	}
	return m, nil
}

// Invalidate drops id from the cache.
func (r *CachingRegistry) Invalidate(id string) {
	r.cache.Delete(id)
}

// Stats returns cache hit and miss counters.
func (r *CachingRegistry) Stats() (hits, misses int64) {
	return r.cache.Stats()
}
