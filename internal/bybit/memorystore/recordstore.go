package memorystore

import (
	"sync"

	"streamcache/pkg/cache"
)

// recordStore guards a symbol+id cache shared by every symbol. Reads return copies so
// callers never touch cached records outside the lock.
type recordStore[T any] struct {
	mu      sync.Mutex
	records *cache.Nested[string, string, T]
}

func newRecordStore[T any](limit int, symbol cache.PartitionFunc[string, T], id cache.KeyFunc[string, T],
	equal func(a, b *T) bool) (*recordStore[T], error) {
	records, err := cache.NewNested(limit, symbol, id, cache.WithEqual(equal))
	if err != nil {
		return nil, err
	}
	return &recordStore[T]{records: records}, nil
}

func (s *recordStore[T]) add(rec T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.records.Append(&rec)
	if err != nil {
		var zero T
		return zero, err
	}
	return *stored, nil
}

func (s *recordStore[T]) get(symbol, id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records.Lookup(symbol, id)
	if !ok {
		var zero T
		return zero, false
	}
	return *rec, true
}

func (s *recordStore[T]) bySymbol(symbol string) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deref(s.records.Partition(symbol))
}

// fresh returns the records of symbol that were added or updated since the previous
// call, oldest first, keeping the newest limit of them when limit > 0.
func (s *recordStore[T]) fresh(symbol string, limit int) []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.records.TakeChanged(symbol, limit)
	if len(changed) == 0 {
		return nil
	}
	return deref(changed)
}

func (s *recordStore[T]) all() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deref(s.records.View().Snapshot())
}

func (s *recordStore[T]) symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Partitions()
}

func (s *recordStore[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Len()
}

func deref[T any](in []*T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, rec := range in {
		out[i] = *rec
	}
	return out
}
