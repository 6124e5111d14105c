// Package cache provides caching utilities for correlation lookups.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU provides thread-safe LRU caching of values keyed by string ID.
type LRU[V any] struct {
	cache *lru.Cache[string, V]
}

// New creates a new LRU cache with the specified maximum number of items.
func New[V any](maxItems int) (*LRU[V], error) {
	c, err := lru.New[string, V](maxItems)
	if err != nil {
		return nil, err
	}
	return &LRU[V]{cache: c}, nil
}

// Get retrieves a value from the cache by its ID.
// Returns the value and true if found, the zero value and false otherwise.
func (c *LRU[V]) Get(id string) (V, bool) {
	return c.cache.Get(id)
}

// Put adds or updates a value in the cache.
func (c *LRU[V]) Put(id string, v V) {
	c.cache.Add(id, v)
}

// Purge removes every value.
func (c *LRU[V]) Purge() {
	c.cache.Purge()
}

// Len returns the current number of items in the cache.
func (c *LRU[V]) Len() int {
	return c.cache.Len()
}
