package lru

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		s, err := NewSet[int](capacity)
		require.ErrorIs(t, err, ErrInvalidCapacity)
		require.Nil(t, s)
	}
}

func TestSetEviction(t *testing.T) {
	s, err := NewSet[int](2)
	require.NoError(t, err)

	s.Put(1)
	s.Put(2)
	evicted, ok := s.Put(3)

	require.True(t, ok)
	assert.Equal(t, 1, evicted)
	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(2))
	assert.True(t, s.Contains(3))
	assert.Equal(t, 2, s.Len())
}

func TestSetGetRefreshesRecency(t *testing.T) {
	s, err := NewSet[int](2)
	require.NoError(t, err)

	s.Put(1)
	s.Put(2)
	require.True(t, s.Get(1))
	s.Put(3)

	assert.False(t, s.Contains(2))
	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(3))
}

func TestSetGetMissHasNoSideEffect(t *testing.T) {
	s, err := NewSet[string](2)
	require.NoError(t, err)

	s.Put("a")
	s.Put("b")
	require.False(t, s.Get("zzz"))

	assert.Equal(t, []string{"b", "a"}, s.Keys())
	assert.Equal(t, 2, s.Len())
}

func TestSetContainsDoesNotReorder(t *testing.T) {
	s, err := NewSet[int](2)
	require.NoError(t, err)

	s.Put(1)
	s.Put(2)
	require.True(t, s.Contains(1))
	s.Put(3)

	assert.False(t, s.Contains(1), "Contains must not promote")
	assert.True(t, s.Contains(2))
}

func TestSetRepeatedPut(t *testing.T) {
	s, err := NewSet[int](3)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, evicted := s.Put(5)
		require.False(t, evicted)
	}

	assert.Equal(t, 1, s.Len())
}

func TestSetCapacityOne(t *testing.T) {
	s, err := NewSet[int](1)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		evicted, ok := s.Put(i)
		if i == 1 {
			require.False(t, ok)
			continue
		}
		require.True(t, ok)
		require.Equal(t, i-1, evicted)
		require.Equal(t, 1, s.Len())
		require.True(t, s.Contains(i))
	}
}

func TestSetNeverExceedsCapacity(t *testing.T) {
	s, err := NewSet[int](8)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		s.Put(i % 13)
		s.Get(i % 7)
		require.LessOrEqual(t, s.Len(), s.Cap())
	}
}

func TestSetRemoveAndClear(t *testing.T) {
	s, err := NewSet[int](3)
	require.NoError(t, err)

	s.Put(1)
	s.Put(2)
	require.True(t, s.Remove(1))
	require.False(t, s.Remove(1))
	assert.Equal(t, []int{2}, s.Keys())

	s.Clear()
	assert.Zero(t, s.Len())
	assert.False(t, s.Contains(2))
}
