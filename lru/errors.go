package lru

import "errors"

var (
	// ErrInvalidCapacity indicates a capacity below one.
	ErrInvalidCapacity = errors.New("lru: capacity must be at least 1")

	// ErrNilLoader indicates GetOrLoad was called without a loader.
	ErrNilLoader = errors.New("lru: nil loader")

	// ErrLoadPanicked is returned to callers that waited on a load whose
	// loader panicked. The panic itself propagates in the loading goroutine.
	ErrLoadPanicked = errors.New("lru: loader panicked")
)
