// Package lru implements a fixed-capacity cache with least-recently-used eviction.
//
// Entries are kept on a doubly-linked list ordered by recency, with a map from key to
// list node for constant-time lookup. The front of the list is the least recently used
// entry and is the one evicted when an insertion would exceed capacity.
// All methods are safe for concurrent use.
package lru

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidCapacity is returned by New for a non-positive capacity.
var ErrInvalidCapacity = errors.New("capacity must be positive")

type entry[K comparable, V any] struct {
	key        K
	value      V
	prev, next *entry[K, V]
}

// Cache is a bounded LRU cache.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*entry[K, V]
	// root is a sentinel: root.next is the oldest entry, root.prev the newest.
	root    entry[K, V]
	onEvict func(key K, value V)
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithEvictCallback registers fn to be called for every evicted entry, whether dropped by
// Put for capacity or by RemoveOldest.
// fn runs with the cache lock held and must not call back into the cache.
func WithEvictCallback[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// New creates a Cache holding at most capacity entries.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) (*Cache[K, V], error) {
	const op = "lru.New"

	if capacity <= 0 {
		return nil, fmt.Errorf("%s: got %d: %w", op, capacity, ErrInvalidCapacity)
	}

	c := &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*entry[K, V], capacity),
	}
	c.root.next = &c.root
	c.root.prev = &c.root

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Get returns the value for key and marks it as most recently used.
// A miss has no side effects.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	c.moveToBack(e)
	return e.value, true
}

// Peek returns the value for key without updating its recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	return e.value, true
}

// Contains reports whether key is cached without updating its recency.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}

// Put inserts or updates key and marks it as most recently used.
// It reports whether an older entry was evicted to make room.
func (c *Cache[K, V]) Put(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		c.moveToBack(e)
		return false
	}

	e := &entry[K, V]{key: key, value: value}
	c.items[key] = e
	c.pushBack(e)

	if len(c.items) > c.capacity {
		c.removeOldest()
		return true
	}

	return false
}

// RemoveOldest evicts the least recently used entry and returns it.
func (c *Cache[K, V]) RemoveOldest() (K, V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.removeOldest()
	if e == nil {
		var (
			zeroK K
			zeroV V
		)
		return zeroK, zeroV, false
	}

	return e.key, e.value, true
}

// Keys returns the cached keys from least to most recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for e := c.root.next; e != &c.root; e = e.next {
		keys = append(keys, e.key)
	}

	return keys
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Cap returns the configured capacity.
func (c *Cache[K, V]) Cap() int {
	return c.capacity
}

func (c *Cache[K, V]) removeOldest() *entry[K, V] {
	e := c.root.next
	if e == &c.root {
		return nil
	}

	c.unlink(e)
	delete(c.items, e.key)

	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}

	return e
}

func (c *Cache[K, V]) pushBack(e *entry[K, V]) {
	last := c.root.prev
	e.prev = last
	e.next = &c.root
	last.next = e
	c.root.prev = e
}

func (c *Cache[K, V]) unlink(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}

func (c *Cache[K, V]) moveToBack(e *entry[K, V]) {
	if c.root.prev == e {
		return
	}
	c.unlink(e)
	c.pushBack(e)
}
