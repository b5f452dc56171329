// Package safemap provides a concurrency safe generic map.
package safemap

import (
	"sort"
	"sync"

	"golang.org/x/exp/constraints"
)

// Map is a thread-safe map from K to V. The zero value is ready to use.
type Map[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New creates an empty Map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		items: make(map[K]V),
	}
}

// Get retrieves the value stored under key.
// It returns the value and a boolean indicating whether the key was present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.items[key]

	return val, ok
}

// GetOrSet returns the value stored under key if there is one.
// Otherwise it stores val and returns it. loaded reports whether the key was present.
func (m *Map[K, V]) GetOrSet(key K, val V) (actual V, loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.items[key]; ok {
		return cur, true
	}

	m.init()
	m.items[key] = val

	return val, false
}

// Set stores value under key, replacing any previous value.
func (m *Map[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.init()
	m.items[key] = value
}

// Delete removes key from the map. It reports whether the key was present.
func (m *Map[K, V]) Delete(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.items[key]
	delete(m.items, key)

	return ok
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

// Keys returns the keys in unspecified order.
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]K, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}

	return keys
}

// Values returns the values in unspecified order.
func (m *Map[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]V, 0, len(m.items))
	for _, v := range m.items {
		out = append(out, v)
	}

	return out
}

// Snapshot returns a copy of the map.
func (m *Map[K, V]) Snapshot() map[K]V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[K]V, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}

	return out
}

// Range calls fn for every entry until fn returns false.
// fn runs under the read lock and must not modify the map.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for k, v := range m.items {
		if !fn(k, v) {
			return
		}
	}
}

func (m *Map[K, V]) init() {
	if m.items == nil {
		m.items = make(map[K]V)
	}
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K constraints.Ordered, V any](m *Map[K, V]) []K {
	keys := m.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}
