// Package lru implements a generic, thread-safe LRU cache with TTL support.
//
// Time complexity: O(1) amortized for Get, Put, Delete, Len.
// Space complexity: O(n) where n is capacity.
//
// Recency order is tracked with an arena: entries live in a flat slice
// addressed by integer index, and prev/next pointers are themselves indices
// into that slice rather than pointers to heap nodes. Freed slots go onto a
// free list and are reused by later inserts, so steady-state operation does
// no further allocation once the arena has grown to capacity. This avoids
// the manual-teardown hazard of a reference-counted node graph (nothing to
// null out to break a cycle — slots are just reassigned) and keeps same-
// cache nodes close together in memory.
package lru

import (
	"sync"
	"sync/atomic"
	"time"
)

// nilIdx marks the absence of a neighbor; it never addresses a real slot.
const nilIdx int32 = -1

// entry is one arena slot: a key-value pair with expiration and its
// position in the recency list, expressed as slot indices.
type entry[K comparable, V any] struct {
	key       K
	val       V
	expiresAt time.Time // zero means no expiration
	prev      int32
	next      int32
}

func (e *entry[K, V]) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// OnEvictFunc is called when an entry is evicted from the cache.
// Receives the evicted key and value. Called with the lock released.
type OnEvictFunc[K comparable, V any] func(key K, val V)

// Metrics holds cache performance counters (atomic, lock-free reads).
type Metrics struct {
	Hits        atomic.Int64
	Misses      atomic.Int64
	Evictions   atomic.Int64
	Expirations atomic.Int64
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:        m.Hits.Load(),
		Misses:      m.Misses.Load(),
		Evictions:   m.Evictions.Load(),
		Expirations: m.Expirations.Load(),
	}
}

// MetricsSnapshot is an immutable copy of cache metrics.
type MetricsSnapshot struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
}

// HitRate returns the cache hit ratio (0.0 to 1.0). Returns 0 if no lookups.
func (s MetricsSnapshot) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Option configures the cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithTTL sets a default TTL for all entries.
func WithTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.defaultTTL = ttl
	}
}

// WithOnEvict sets a callback invoked when entries are evicted.
func WithOnEvict[K comparable, V any](fn OnEvictFunc[K, V]) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// Cache is a generic, thread-safe LRU cache with optional TTL and metrics.
// K must be comparable (map key constraint), V can be any type.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	slots      []entry[K, V]
	free       []int32 // reusable slot indices, LIFO
	index      map[K]int32
	head       int32 // sentinel slot, slots[head].next is the MRU entry
	tail       int32 // sentinel slot, slots[tail].prev is the LRU entry
	onEvict    OnEvictFunc[K, V]
	metrics    Metrics
	now        func() time.Time // injectable for testing
}

// New creates an LRU cache with the given capacity and options.
// Panics if capacity < 1.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}

	c := &Cache[K, V]{
		capacity: capacity,
		slots:    make([]entry[K, V], 2, capacity+2),
		index:    make(map[K]int32, capacity),
		head:     0,
		tail:     1,
		now:      time.Now,
	}
	c.slots[c.head] = entry[K, V]{prev: nilIdx, next: c.tail}
	c.slots[c.tail] = entry[K, V]{prev: c.head, next: nilIdx}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// alloc returns a slot index ready to hold a new entry, reusing a freed
// slot when one is available and growing the arena only otherwise.
func (c *Cache[K, V]) alloc() int32 {
	if n := len(c.free); n > 0 {
		idx := c.free[n-1]
		c.free = c.free[:n-1]
		return idx
	}
	c.slots = append(c.slots, entry[K, V]{})
	return int32(len(c.slots) - 1)
}

// release returns a slot to the free list for reuse by a future alloc.
func (c *Cache[K, V]) release(idx int32) {
	c.slots[idx] = entry[K, V]{}
	c.free = append(c.free, idx)
}

// Get retrieves a value by key. Returns the value and true if found and not expired,
// or the zero value and false otherwise.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()

	idx, ok := c.index[key]
	if !ok {
		c.mu.Unlock()
		c.metrics.Misses.Add(1)
		var zero V
		return zero, false
	}

	if c.slots[idx].isExpired(c.now()) {
		evictedKey, evictedVal := c.slots[idx].key, c.slots[idx].val
		c.removeLocked(idx)
		delete(c.index, key)
		c.release(idx)
		c.mu.Unlock()
		c.metrics.Misses.Add(1)
		c.metrics.Expirations.Add(1)
		if c.onEvict != nil {
			c.onEvict(evictedKey, evictedVal)
		}
		var zero V
		return zero, false
	}

	c.moveToFront(idx)
	val := c.slots[idx].val
	c.mu.Unlock()
	c.metrics.Hits.Add(1)
	return val, true
}

// Put inserts or updates a key-value pair using the default TTL.
// If the cache is at capacity, the least recently used entry is evicted.
// Returns the evicted key, value, and true if an eviction occurred.
func (c *Cache[K, V]) Put(key K, val V) (K, V, bool) {
	return c.PutWithTTL(key, val, c.defaultTTL)
}

// PutWithTTL inserts or updates a key-value pair with a specific TTL.
// A zero TTL means no expiration.
func (c *Cache[K, V]) PutWithTTL(key K, val V, ttl time.Duration) (K, V, bool) {
	now := c.now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	c.mu.Lock()

	if idx, ok := c.index[key]; ok {
		c.slots[idx].val = val
		c.slots[idx].expiresAt = expiresAt
		c.moveToFront(idx)
		c.mu.Unlock()
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}

	var evictedKey K
	var evictedVal V
	evicted := false
	if len(c.index) >= c.capacity {
		victim := c.slots[c.tail].prev
		evictedKey = c.slots[victim].key
		evictedVal = c.slots[victim].val
		c.removeLocked(victim)
		delete(c.index, evictedKey)
		c.release(victim)
		evicted = true
	}

	idx := c.alloc()
	c.slots[idx].key = key
	c.slots[idx].val = val
	c.slots[idx].expiresAt = expiresAt
	c.index[key] = idx
	c.pushFront(idx)
	c.mu.Unlock()

	if evicted {
		c.metrics.Evictions.Add(1)
		if c.onEvict != nil {
			c.onEvict(evictedKey, evictedVal)
		}
	}

	return evictedKey, evictedVal, evicted
}

// Delete removes a key from the cache. Returns true if the key existed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()

	idx, ok := c.index[key]
	if !ok {
		c.mu.Unlock()
		return false
	}

	c.removeLocked(idx)
	delete(c.index, key)
	c.release(idx)
	c.mu.Unlock()
	return true
}

// Len returns the current number of entries in the cache (including expired).
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Peek retrieves a value without updating access order. Returns false for expired entries.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.index[key]
	if !ok || c.slots[idx].isExpired(c.now()) {
		var zero V
		return zero, false
	}
	return c.slots[idx].val, true
}

// Keys returns all non-expired keys in order from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	keys := make([]K, 0, len(c.index))
	for cur := c.slots[c.head].next; cur != c.tail; cur = c.slots[cur].next {
		if !c.slots[cur].isExpired(now) {
			keys = append(keys, c.slots[cur].key)
		}
	}
	return keys
}

// Pair is a key-value pair returned by Snapshot.
type Pair[K comparable, V any] struct {
	Key K
	Val V
}

// Snapshot returns every non-expired entry in MRU-to-LRU order. Any expired
// entry encountered along the way is lazily removed (and, if set, onEvict is
// invoked for it) before the walk continues.
func (c *Cache[K, V]) Snapshot() []Pair[K, V] {
	c.mu.Lock()

	now := c.now()
	pairs := make([]Pair[K, V], 0, len(c.index))
	var expired []Pair[K, V]
	cur := c.slots[c.head].next
	for cur != c.tail {
		next := c.slots[cur].next
		if c.slots[cur].isExpired(now) {
			expired = append(expired, Pair[K, V]{Key: c.slots[cur].key, Val: c.slots[cur].val})
			c.removeLocked(cur)
			delete(c.index, c.slots[cur].key)
			c.release(cur)
		} else {
			pairs = append(pairs, Pair[K, V]{Key: c.slots[cur].key, Val: c.slots[cur].val})
		}
		cur = next
	}
	c.mu.Unlock()

	if len(expired) > 0 {
		c.metrics.Expirations.Add(int64(len(expired)))
		if c.onEvict != nil {
			for _, p := range expired {
				c.onEvict(p.Key, p.Val)
			}
		}
	}
	return pairs
}

// Clear removes all entries from the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.slots = make([]entry[K, V], 2, c.capacity+2)
	c.slots[c.head] = entry[K, V]{prev: nilIdx, next: c.tail}
	c.slots[c.tail] = entry[K, V]{prev: c.head, next: nilIdx}
	c.free = nil
	c.index = make(map[K]int32, c.capacity)
	c.mu.Unlock()
}

// Metrics returns the cache metrics (lock-free).
func (c *Cache[K, V]) Metrics() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// --- internal arena list operations (caller must hold lock) ---

// removeLocked detaches a slot from the recency list without releasing it.
func (c *Cache[K, V]) removeLocked(idx int32) {
	e := &c.slots[idx]
	c.slots[e.prev].next = e.next
	c.slots[e.next].prev = e.prev
	e.prev = nilIdx
	e.next = nilIdx
}

// pushFront inserts a slot right after the head sentinel.
func (c *Cache[K, V]) pushFront(idx int32) {
	e := &c.slots[idx]
	e.next = c.slots[c.head].next
	e.prev = c.head
	c.slots[c.slots[c.head].next].prev = idx
	c.slots[c.head].next = idx
}

// moveToFront detaches and reinserts a slot at the front.
func (c *Cache[K, V]) moveToFront(idx int32) {
	c.removeLocked(idx)
	c.pushFront(idx)
}
