package cache

import "iter"

// View is a read-only window over a live cache. It behaves like a plain ordered
// slice of the records currently held; it never copies unless asked to and exposes
// no way to mutate the cache.
//
// A View reflects the cache at the time each method is called. Ranging over All or
// Backward while the cache is appended to is not supported.
type View[T any] struct {
	length func() int
	at     func(int) T
	equal  func(a, b T) bool
}

// Len returns the number of records in the window.
func (v *View[T]) Len() int { return v.length() }

// At returns the record at index i. Negative indices count back from the newest.
func (v *View[T]) At(i int) (T, error) {
	idx, err := position(i, v.length())
	if err != nil {
		var zero T
		return zero, err
	}
	return v.at(idx), nil
}

// Slice returns the records selected by (start, stop, step) as a new slice.
func (v *View[T]) Slice(start, stop, step int) ([]T, error) {
	return collect(v.length(), v.at, start, stop, step)
}

// Snapshot copies the window into a new slice, oldest first.
func (v *View[T]) Snapshot() []T {
	n := v.length()
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = v.at(i)
	}
	return out
}

// Tail returns up to n of the newest records, oldest first. n <= 0 returns the whole window.
func (v *View[T]) Tail(n int) []T {
	size := v.length()
	if n <= 0 || n > size {
		n = size
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = v.at(size - n + i)
	}
	return out
}

// All iterates from oldest to newest.
func (v *View[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		n := v.length()
		for i := 0; i < n; i++ {
			if !yield(i, v.at(i)) {
				return
			}
		}
	}
}

// Backward iterates from newest to oldest.
func (v *View[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := v.length() - 1; i >= 0; i-- {
			if !yield(i, v.at(i)) {
				return
			}
		}
	}
}

// Contains reports whether a record structurally equal to x is in the window.
func (v *View[T]) Contains(x T) bool {
	n := v.length()
	for i := 0; i < n; i++ {
		if v.equal(v.at(i), x) {
			return true
		}
	}
	return false
}

// Equal compares the window element-wise, in order, against other.
func (v *View[T]) Equal(other []T) bool {
	n := v.length()
	if n != len(other) {
		return false
	}
	for i := 0; i < n; i++ {
		if !v.equal(v.at(i), other[i]) {
			return false
		}
	}
	return true
}

// Concat returns a new slice holding the window followed by other.
// Neither the cache nor other is modified.
func (v *View[T]) Concat(other []T) []T {
	n := v.length()
	out := make([]T, 0, n+len(other))
	for i := 0; i < n; i++ {
		out = append(out, v.at(i))
	}
	return append(out, other...)
}
