// Package query implements the client's invalidate-and-refetch cache
// model: a query key maps to a cached page result, and any mutation that
// can affect membership or ordering invalidates the whole entity kind,
// forcing the next read to hit the server. No cached page is ever patched
// in place.
package query

import (
	"context"
	"sync"
)

// FetchFunc loads the value for a key from the server.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Cache is a keyed fetch-through cache. Concurrent fetches for the same
// or different keys are tolerated because every fetch is idempotent; a
// fetch that resolves after an Invalidate is returned to its caller but
// not cached, so stale data never outlives a mutation.
type Cache[K comparable, V any] struct {
	fetch FetchFunc[K, V]

	mu      sync.Mutex
	entries map[K]V
	version int
}

// NewCache creates a cache backed by fetch.
func NewCache[K comparable, V any](fetch FetchFunc[K, V]) *Cache[K, V] {
	return &Cache[K, V]{
		fetch:   fetch,
		entries: make(map[K]V),
	}
}

// Get returns the cached value for key, fetching it on a miss.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	version := c.version
	c.mu.Unlock()

	v, err := c.fetch(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	if version == c.version {
		c.entries[key] = v
	}
	c.mu.Unlock()
	return v, nil
}

// Peek returns the cached value without fetching.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Invalidate drops every cached entry for this entity kind.
func (c *Cache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]V)
	c.version++
}

// Len reports the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
