package lru

import (
	"container/list"
	"fmt"
)

// Set is a fixed-capacity set of keys ordered by recency of use.
// When a Put grows the set past its capacity, the least recently
// used key is evicted.
//
// Set is not safe for concurrent use. Callers sharing a Set between
// goroutines must guard it with their own lock, or use Cache.
type Set[K comparable] struct {
	capacity int
	order    *list.List // front is most recent
	index    map[K]*list.Element
}

// NewSet creates an empty Set holding at most capacity keys.
func NewSet[K comparable](capacity int) (*Set[K], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	return &Set[K]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[K]*list.Element, capacity),
	}, nil
}

// Put marks key as the most recently used, inserting it if absent.
// If the insert pushes the set past capacity, the least recently used
// key is removed and returned with ok set to true.
func (s *Set[K]) Put(key K) (evicted K, ok bool) {
	if elem, exists := s.index[key]; exists {
		s.order.MoveToFront(elem)
		return evicted, false
	}

	s.index[key] = s.order.PushFront(key)

	if s.order.Len() <= s.capacity {
		return evicted, false
	}

	return s.removeOldest()
}

// Get reports whether key is present, promoting it to most recently used on a hit.
func (s *Set[K]) Get(key K) bool {
	elem, ok := s.index[key]
	if !ok {
		return false
	}

	s.order.MoveToFront(elem)

	return true
}

// Contains reports whether key is present without touching its recency.
func (s *Set[K]) Contains(key K) bool {
	_, ok := s.index[key]
	return ok
}

// Remove deletes key and reports whether it was present.
func (s *Set[K]) Remove(key K) bool {
	elem, ok := s.index[key]
	if !ok {
		return false
	}

	s.order.Remove(elem)
	delete(s.index, key)

	return true
}

// Len returns the number of keys in the set.
func (s *Set[K]) Len() int {
	return s.order.Len()
}

// Cap returns the capacity the set was created with.
func (s *Set[K]) Cap() int {
	return s.capacity
}

// Keys returns the keys from most to least recently used.
func (s *Set[K]) Keys() []K {
	keys := make([]K, 0, s.order.Len())
	for e := s.order.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(K))
	}

	return keys
}

// Clear removes every key.
func (s *Set[K]) Clear() {
	s.order.Init()
	s.index = make(map[K]*list.Element, s.capacity)
}

func (s *Set[K]) removeOldest() (key K, ok bool) {
	elem := s.order.Back()
	if elem == nil {
		return key, false
	}

	key = s.order.Remove(elem).(K)
	delete(s.index, key)

	return key, true
}
