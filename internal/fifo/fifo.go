// Package fifo provides an unsynchronized growable ring buffer.
// Callers are responsible for locking.
package fifo

const minCapacity = 16

// Buffer is a first-in first-out ring buffer of T values.
type Buffer[T any] struct {
	items []T
	head  int
	count int
}

// New returns a Buffer with room for at least capacity items before growing.
func New[T any](capacity int) *Buffer[T] {
	if capacity < minCapacity {
		capacity = minCapacity
	}

	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v at the tail.
func (b *Buffer[T]) Push(v T) {
	if b.items == nil {
		b.items = make([]T, minCapacity)
	}

	if b.count == len(b.items) {
		b.grow()
	}

	b.items[(b.head+b.count)%len(b.items)] = v
	b.count++
}

// Pop removes and returns the head. ok is false if the buffer is empty.
func (b *Buffer[T]) Pop() (v T, ok bool) {
	if b.count == 0 {
		return v, false
	}

	var zero T

	v = b.items[b.head]
	b.items[b.head] = zero // release the reference
	b.head = (b.head + 1) % len(b.items)
	b.count--

	return v, true
}

// Peek returns the head without removing it.
func (b *Buffer[T]) Peek() (v T, ok bool) {
	if b.count == 0 {
		return v, false
	}

	return b.items[b.head], true
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	return b.count
}

func (b *Buffer[T]) grow() {
	items := make([]T, len(b.items)*2)

	n := copy(items, b.items[b.head:])
	copy(items[n:], b.items[:b.head])

	b.items = items
	b.head = 0
}
