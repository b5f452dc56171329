package lru

import (
	"context"
	"sync"
)

// LoadFunc fetches the value of a key missing from the cache.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// Cache is a concurrency safe LRU cache mapping keys to values.
// Recency and eviction are tracked by a Set; the value of an evicted key
// is dropped in the same critical section, so the two never disagree.
type Cache[K comparable, V any] struct {
	mu     sync.Mutex
	keys   *Set[K]
	values map[K]V

	inflightMu sync.Mutex
	inflight   map[K]*inflightLoad[V]

	onEvicted func(key K, value V)
	metrics   MetricsCollector
}

// inflightLoad is a load in progress that concurrent callers wait on.
type inflightLoad[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// CacheOption configures a Cache.
type CacheOption[K comparable, V any] func(*Cache[K, V])

// WithOnEvicted registers fn to be called for every entry evicted because
// the cache was full. fn runs after the cache lock has been released.
func WithOnEvicted[K comparable, V any](fn func(key K, value V)) CacheOption[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvicted = fn
	}
}

// WithMetrics reports hits, misses, evictions and size to m.
func WithMetrics[K comparable, V any](m MetricsCollector) CacheOption[K, V] {
	return func(c *Cache[K, V]) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewCache creates a Cache holding at most capacity entries.
func NewCache[K comparable, V any](capacity int, opts ...CacheOption[K, V]) (*Cache[K, V], error) {
	keys, err := NewSet[K](capacity)
	if err != nil {
		return nil, err
	}

	c := &Cache[K, V]{
		keys:     keys,
		values:   make(map[K]V, capacity),
		inflight: make(map[K]*inflightLoad[V]),
		metrics:  disabledMetrics{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Get returns the value of key, marking it as most recently used.
func (c *Cache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.keys.Get(key) {
		c.metrics.IncMisses()
		return value, false
	}

	c.metrics.IncHits()

	return c.values[key], true
}

// Peek returns the value of key without changing its recency.
func (c *Cache[K, V]) Peek(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.keys.Contains(key) {
		return value, false
	}

	return c.values[key], true
}

// Add stores value under key as the most recently used entry.
// It reports whether another entry was evicted to make room.
func (c *Cache[K, V]) Add(key K, value V) (evicted bool) {
	c.mu.Lock()
	evictedKey, evicted := c.keys.Put(key)
	c.values[key] = value

	var evictedValue V
	if evicted {
		evictedValue = c.values[evictedKey]
		delete(c.values, evictedKey)
		c.metrics.AddEvictions(1)
	}
	c.metrics.SetAmount(c.keys.Len())
	c.mu.Unlock()

	if evicted && c.onEvicted != nil {
		c.onEvicted(evictedKey, evictedValue)
	}

	return evicted
}

// Remove deletes key and reports whether it was present.
// Removal is not an eviction and does not trigger the eviction callback.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.keys.Remove(key) {
		return false
	}

	delete(c.values, key)
	c.metrics.SetAmount(c.keys.Len())

	return true
}

// Purge removes every entry without calling the eviction callback.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.keys.Clear()
	c.values = make(map[K]V, c.keys.Cap())
	c.metrics.SetAmount(0)
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.keys.Len()
}

// Cap returns the maximum number of entries.
func (c *Cache[K, V]) Cap() int {
	return c.keys.Cap()
}

// Keys returns the keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.keys.Keys()
}

// GetOrLoad returns the cached value of key, calling load on a miss and
// caching its result. Concurrent misses on the same key share a single load.
// Failed loads are not cached.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, load LoadFunc[V]) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	if load == nil {
		var zero V
		return zero, ErrNilLoader
	}

	c.inflightMu.Lock()
	if req, exists := c.inflight[key]; exists {
		c.inflightMu.Unlock()

		select {
		case <-req.done:
			return req.value, req.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	req := &inflightLoad[V]{done: make(chan struct{})}
	c.inflight[key] = req
	c.inflightMu.Unlock()

	defer func() {
		c.inflightMu.Lock()
		delete(c.inflight, key)
		c.inflightMu.Unlock()
		close(req.done)
	}()

	// Stays set if load panics, so waiters do not see a zero value as a hit.
	req.err = ErrLoadPanicked

	value, err := load(ctx)
	req.value, req.err = value, err
	if req.err != nil {
		return req.value, req.err
	}

	c.Add(key, req.value)

	return req.value, nil
}

// Stats is a point-in-time view of a cache.
type Stats struct {
	Entries  int `json:"entries" msgpack:"entries"`
	Capacity int `json:"capacity" msgpack:"capacity"`
	Inflight int `json:"inflight" msgpack:"inflight"`
}

// Stats returns the current size and in-flight load count.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	entries := c.keys.Len()
	c.mu.Unlock()

	c.inflightMu.Lock()
	inflight := len(c.inflight)
	c.inflightMu.Unlock()

	return Stats{
		Entries:  entries,
		Capacity: c.keys.Cap(),
		Inflight: inflight,
	}
}
