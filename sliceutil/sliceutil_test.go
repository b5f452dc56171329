package sliceutil

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShuffleDeterministic(t *testing.T) {
	a := []int{1, 2, 3, 4, 5, 6, 7, 8}
	b := []int{1, 2, 3, 4, 5, 6, 7, 8}

	Shuffle(rand.New(rand.NewSource(42)), a)
	Shuffle(rand.New(rand.NewSource(42)), b)

	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, a)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.False(t, Contains(nil, 1))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Unique([]int{3, 1, 2, 3, 1}))
	assert.Empty(t, Unique([]string{}))
}

func TestSlice(t *testing.T) {
	s := []int{0, 1, 2, 3, 4}

	tests := []struct {
		name       string
		start, end int
		want       []int
	}{
		{"middle", 1, 3, []int{1, 2}},
		{"whole", 0, 5, []int{0, 1, 2, 3, 4}},
		{"negative start", -2, 5, []int{3, 4}},
		{"negative end", 0, -1, []int{0, 1, 2, 3}},
		{"clamped", -10, 10, []int{0, 1, 2, 3, 4}},
		{"empty", 3, 1, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slice(s, tt.start, tt.end))
		})
	}

	out := Slice(s, 0, 2)
	out[0] = 99
	assert.Equal(t, 0, s[0], "Slice must copy")
}

func TestFilterMap(t *testing.T) {
	even := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4}, even)

	assert.Equal(t, []string{"1", "2"}, Map([]int{1, 2}, strconv.Itoa))
}
