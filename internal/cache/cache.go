// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import "sync"

// Cache is a fixed-capacity LRU cache. When full, Put evicts the least
// recently used entry.
//
// Cache is safe for concurrent use and must not be copied after creation.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*lruNode[K, V]
	order    lruList[K, V]
	capacity int

	hits      uint64
	misses    uint64
	evictions uint64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New creates a cache holding at most capacity entries. A capacity of zero
// or less yields a cache that stores nothing.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache[K, V]{
		entries:  make(map[K]*lruNode[K, V]),
		capacity: capacity,
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.MoveToFront(n)
	return n.value, true
}

// Put stores value under key, replacing any previous value.
func (c *Cache[K, V]) Put(key K, value V) {
	if c.capacity == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		n.value = value
		c.order.MoveToFront(n)
		return
	}
	c.entries[key] = c.order.PushFront(key, value)
	for c.order.Len() > c.capacity {
		old := c.order.RemoveOldest()
		delete(c.entries, old.key)
		c.evictions++
	}
}

// Delete removes key. It reports whether the key was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		return false
	}
	c.order.unlink(n)
	delete(c.entries, key)
	return true
}

// Clear removes all entries. Counters are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.order.Clear()
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
