package cache

import (
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"
)

// Handle identifies one pushed element for as long as it stays in a Sequence.
// Handles increase monotonically with every push and are never reused.
type Handle uint64

// Sequence is an arrival-ordered ring buffer. When a capacity is set, pushing onto a
// full sequence evicts the oldest element first.
//
// Sequence is not safe for concurrent use.
type Sequence[T any] struct {
	buf   []T
	head  int // buf index of the oldest element
	size  int
	limit int    // 0 means unbounded
	first Handle // handle of the element at head
}

// NewSequence returns an empty sequence holding at most capacity elements.
func NewSequence[T any](capacity int) (*Sequence[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Sequence[T]{limit: capacity}, nil
}

// NewUnboundedSequence returns an empty sequence that never evicts.
func NewUnboundedSequence[T any]() *Sequence[T] {
	return &Sequence[T]{}
}

// PushBack appends v at the tail. If the sequence was full, the head element is
// removed first and returned with ok set.
func (s *Sequence[T]) PushBack(v T) (evicted T, ok bool) {
	evicted, ok, _ = s.push(v)
	return evicted, ok
}

func (s *Sequence[T]) push(v T) (evicted T, ok bool, h Handle) {
	if s.limit > 0 && s.size == s.limit {
		evicted, ok = s.popFront()
	}
	if s.size == len(s.buf) {
		s.grow()
	}

	s.buf[(s.head+s.size)%len(s.buf)] = v
	s.size++
	return evicted, ok, s.first + Handle(s.size-1)
}

func (s *Sequence[T]) popFront() (T, bool) {
	var zero T
	if s.size == 0 {
		return zero, false
	}

	v := s.buf[s.head]
	s.buf[s.head] = zero // release the reference
	s.head = (s.head + 1) % len(s.buf)
	s.size--
	s.first++
	return v, true
}

// grow doubles the backing array, never past the limit.
func (s *Sequence[T]) grow() {
	n := len(s.buf) * 2
	if n == 0 {
		n = 8
	}
	if s.limit > 0 && n > s.limit {
		n = s.limit
	}

	buf := make([]T, n)
	for i := 0; i < s.size; i++ {
		buf[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	s.buf = buf
	s.head = 0
}

// at returns the element at position i, which must be in [0, Len).
func (s *Sequence[T]) at(i int) T {
	return s.buf[(s.head+i)%len(s.buf)]
}

// lookup resolves a handle to its element if it has not been evicted yet.
func (s *Sequence[T]) lookup(h Handle) (T, bool) {
	if h < s.first || h >= s.first+Handle(s.size) {
		var zero T
		return zero, false
	}
	return s.at(int(h - s.first)), true
}

// Len returns the number of elements currently held.
func (s *Sequence[T]) Len() int { return s.size }

// IsEmpty reports whether the sequence holds no elements.
func (s *Sequence[T]) IsEmpty() bool { return s.size == 0 }

// Limit returns the capacity, or 0 for an unbounded sequence.
func (s *Sequence[T]) Limit() int { return s.limit }

// At returns the element at index i. Negative indices count back from the tail.
func (s *Sequence[T]) At(i int) (T, error) {
	idx, err := position(i, s.size)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.at(idx), nil
}

// Slice returns a new slice with the elements selected by (start, stop, step),
// normalized like a slice expression over the current contents.
func (s *Sequence[T]) Slice(start, stop, step int) ([]T, error) {
	return collect(s.size, s.at, start, stop, step)
}

// All iterates over the elements from oldest to newest.
func (s *Sequence[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < s.size; i++ {
			if !yield(i, s.at(i)) {
				return
			}
		}
	}
}

// Backward iterates over the elements from newest to oldest.
func (s *Sequence[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := s.size - 1; i >= 0; i-- {
			if !yield(i, s.at(i)) {
				return
			}
		}
	}
}

// View returns a read-only view over the sequence. Elements compare with reflect.DeepEqual.
func (s *Sequence[T]) View() *View[T] {
	return &View[T]{
		length: s.Len,
		at:     s.at,
		equal:  func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
}

// changedRecords resolves the live handles of changed in arrival order, keeping the
// newest limit of them when limit > 0.
func changedRecords[S, T any](seq *Sequence[S], changed map[Handle]struct{}, limit int, rec func(S) *T) []*T {
	if len(changed) == 0 {
		return nil
	}

	handles := slices.Sorted(maps.Keys(changed))
	if limit > 0 && len(handles) > limit {
		handles = handles[len(handles)-limit:]
	}
	out := make([]*T, 0, len(handles))
	for _, h := range handles {
		if s, ok := seq.lookup(h); ok {
			out = append(out, rec(s))
		}
	}
	return out
}
