// Package lru provides least-recently-used structures.
//
// Set tracks membership only: keys double as values, and a Put past
// capacity evicts the least recently touched key. Set is not synchronized.
//
// Cache pairs a Set with a value map behind a mutex, adding eviction
// callbacks, coalesced loading of missing keys and Prometheus metrics.
package lru
