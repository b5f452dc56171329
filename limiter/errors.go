package limiter

import "errors"

var (
	// ErrInvalidRate indicates a non-positive call rate.
	ErrInvalidRate = errors.New("limiter: rate must be positive")

	// ErrInvalidLimit indicates a RateLimit with a non-positive interval or count.
	ErrInvalidLimit = errors.New("limiter: invalid rate limit")
)
