// Package history provides the bounded FIFO buffers used for label history,
// score smoothing and landmark windows.
package history

import "iter"

// Ring is a fixed-capacity FIFO. Pushing into a full ring evicts the oldest
// element. The zero value is not usable; create rings with New.
type Ring[T any] struct {
	buf   []T
	start int
	n     int
}

// New creates a ring holding at most capacity elements. A capacity below 1
// is raised to 1.
func New[T any](capacity int) *Ring[T] {
	return &Ring[T]{buf: make([]T, max(capacity, 1))}
}

// Push appends v, evicting the oldest element if the ring is full.
func (r *Ring[T]) Push(v T) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int { return r.n }

// Cap returns the maximum number of elements.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Full reports whether the next Push evicts.
func (r *Ring[T]) Full() bool { return r.n == len(r.buf) }

// At returns the i-th element counting from the oldest. It panics if i is
// out of range.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.n {
		panic("history: index out of range")
	}
	return r.buf[(r.start+i)%len(r.buf)]
}

// Last returns the newest element, false if the ring is empty.
func (r *Ring[T]) Last() (T, bool) {
	if r.n == 0 {
		var zero T
		return zero, false
	}
	return r.At(r.n - 1), true
}

// All iterates from oldest to newest.
func (r *Ring[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range r.n {
			if !yield(i, r.At(i)) {
				return
			}
		}
	}
}

// Values returns a copy of the elements from oldest to newest.
func (r *Ring[T]) Values() []T {
	out := make([]T, r.n)
	for i := range r.n {
		out[i] = r.At(i)
	}
	return out
}

// Tail returns a copy of the newest k elements, oldest first.
func (r *Ring[T]) Tail(k int) []T {
	k = min(max(k, 0), r.n)
	out := make([]T, k)
	for i := range k {
		out[i] = r.At(r.n - k + i)
	}
	return out
}

// Clear drops all elements.
func (r *Ring[T]) Clear() {
	clear(r.buf)
	r.start = 0
	r.n = 0
}
