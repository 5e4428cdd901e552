// internal/cache/lru.go
//
// Typed, bounded LRU.  The poster generator keeps the day's rendered PDFs
// here so repeated "print poster" clicks skip the render.
//
// Notes
// -----
//   - Safe for concurrent use; one mutex guards list and index.
//   - Values are stored as given.  Callers that hand out mutable values
//     (byte slices) copy on the way out.
//   - Hits and misses are counted for the caller's metrics or logs.
package cache

import (
	"container/list"
	"sync"
)

// LRU evicts the least recently used entry once Len exceeds its capacity.
type LRU[K comparable, V any] struct {
	mu     sync.Mutex
	cap    int
	order  *list.List // front = most recent
	index  map[K]*list.Element
	hits   uint64
	misses uint64
}

type entry[K comparable, V any] struct {
	key K
	val V
}

// New returns an LRU holding at most capacity entries.  Panics on
// capacity < 1.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:   capacity,
		order: list.New(),
		index: make(map[K]*list.Element, capacity),
	}
}

// Get returns the value for key and marks it most recent.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).val, true
}

// Add inserts or replaces key.  It reports whether an older entry was
// evicted to make room.
func (c *LRU[K, V]) Add(key K, val V) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		el.Value.(*entry[K, V]).val = val
		c.order.MoveToFront(el)
		return false
	}
	c.index[key] = c.order.PushFront(&entry[K, V]{key: key, val: val})
	if c.order.Len() <= c.cap {
		return false
	}
	oldest := c.order.Back()
	c.order.Remove(oldest)
	delete(c.index, oldest.Value.(*entry[K, V]).key)
	return true
}

// Remove drops key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.order.Remove(el)
		delete(c.index, key)
	}
}

// Len reports the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cumulative hit and miss counts.
func (c *LRU[K, V]) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
