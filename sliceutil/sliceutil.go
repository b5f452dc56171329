// Package sliceutil provides generic helpers for slices.
package sliceutil

import (
	"math/rand"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Shuffle permutes s in place using rng.
// The caller owns the random source, so results are reproducible with a fixed seed.
func Shuffle[T any](rng *rand.Rand, s []T) {
	rng.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
}

// Contains reports whether v is present in s.
func Contains[T comparable](s []T, v T) bool {
	return slices.Contains(s, v)
}

// Unique sorts s and removes duplicate values. The result shares s's backing array.
func Unique[T constraints.Ordered](s []T) []T {
	slices.Sort(s)
	return slices.Compact(s)
}

// Slice returns a copy of s[start:end]. Negative indices count from the end
// of s, and both bounds are clamped to [0, len(s)]. An empty slice is
// returned when start >= end after clamping.
func Slice[T any](s []T, start, end int) []T {
	n := len(s)

	start = clamp(relative(start, n), n)
	end = clamp(relative(end, n), n)

	if start >= end {
		return []T{}
	}

	out := make([]T, end-start)
	copy(out, s[start:end])

	return out
}

// Filter returns the elements of s for which keep returns true.
func Filter[T any](s []T, keep func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}

	return out
}

// Map returns the result of applying fn to every element of s.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}

	return out
}

func relative(i, n int) int {
	if i < 0 {
		return n + i
	}

	return i
}

func clamp(i, n int) int {
	return max(0, min(i, n))
}
