package memorystore

import (
	"fmt"
	"sync"

	"streamcache/pkg/cache"
)

// SeriesKey identifies one kline series.
type SeriesKey struct {
	Symbol   string
	Interval string
}

// MemoryKlineStore keeps the most recent klines of every (symbol, interval) series.
// Updates to a forming kline are merged into the cached one.
type MemoryKlineStore struct {
	limit    int
	globalMu sync.RWMutex
	data     map[SeriesKey]*seriesKlineStore
}

type seriesKlineStore struct {
	mu     sync.Mutex
	klines *cache.Keyed[int64, Kline]
}

// NewKlineStore returns a store that keeps up to limit klines per series.
func NewKlineStore(limit int) (*MemoryKlineStore, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("kline store: %w: %d", cache.ErrInvalidCapacity, limit)
	}
	return &MemoryKlineStore{
		limit: limit,
		data:  make(map[SeriesKey]*seriesKlineStore),
	}, nil
}

func (s *MemoryKlineStore) series(key SeriesKey, create bool) (*seriesKlineStore, error) {
	// Fast path: lock per-series store only
	s.globalMu.RLock()
	store, ok := s.data[key]
	s.globalMu.RUnlock()
	if ok || !create {
		return store, nil
	}

	// Need to initialize new series store (exclusive lock)
	s.globalMu.Lock()
	defer s.globalMu.Unlock()
	if store, ok = s.data[key]; ok {
		return store, nil
	}
	klines, err := cache.NewKeyed(s.limit, klineStart)
	if err != nil {
		return nil, err
	}
	store = &seriesKlineStore{klines: klines}
	s.data[key] = store
	return store, nil
}

// Add caches k, merging it into the cached kline with the same start if there is one.
// It returns a copy of the kline now cached.
func (s *MemoryKlineStore) Add(k KlineMemory) (Kline, error) {
	if k.Symbol == "" {
		return Kline{}, fmt.Errorf("%w: kline: %w", cache.ErrMalformedRecord, errMissingSymbol)
	}
	store, err := s.series(SeriesKey{Symbol: k.Symbol, Interval: k.Interval}, true)
	if err != nil {
		return Kline{}, err
	}

	rec := k.Kline
	store.mu.Lock()
	defer store.mu.Unlock()
	stored, err := store.klines.Append(&rec)
	if err != nil {
		return Kline{}, fmt.Errorf("add kline %s/%s: %w", k.Symbol, k.Interval, err)
	}
	return *stored, nil
}

// Get returns a copy of the cached kline of one series starting at start.
func (s *MemoryKlineStore) Get(symbol, interval string, start int64) (Kline, bool) {
	store, _ := s.series(SeriesKey{Symbol: symbol, Interval: interval}, false)
	if store == nil {
		return Kline{}, false
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	k, ok := store.klines.Get(start)
	if !ok {
		return Kline{}, false
	}
	return *k, true
}

// GetBySymbol returns a copy of the cached klines of one series, oldest first.
func (s *MemoryKlineStore) GetBySymbol(symbol, interval string) []Kline {
	return s.tail(SeriesKey{Symbol: symbol, Interval: interval}, 0)
}

// Latest returns up to n of the newest klines of one series, oldest first.
func (s *MemoryKlineStore) Latest(symbol, interval string, n int) []Kline {
	if n <= 0 {
		return nil
	}
	return s.tail(SeriesKey{Symbol: symbol, Interval: interval}, n)
}

// Fresh returns the klines of one series that were added or updated since the
// previous call, oldest first.
func (s *MemoryKlineStore) Fresh(symbol, interval string) []Kline {
	store, _ := s.series(SeriesKey{Symbol: symbol, Interval: interval}, false)
	if store == nil {
		return nil
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	changed := store.klines.TakeChanged(0)
	if len(changed) == 0 {
		return nil
	}
	return copyKlines(changed)
}

func (s *MemoryKlineStore) tail(key SeriesKey, n int) []Kline {
	store, _ := s.series(key, false)
	if store == nil {
		return nil
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	return copyKlines(store.klines.View().Tail(n))
}

// GetAll returns a copy of every series.
func (s *MemoryKlineStore) GetAll() map[SeriesKey][]Kline {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	result := make(map[SeriesKey][]Kline, len(s.data))
	for key, store := range s.data {
		store.mu.Lock()
		result[key] = copyKlines(store.klines.View().Snapshot())
		store.mu.Unlock()
	}
	return result
}

// CountAll returns the total number of Klines stored across all series.
func (s *MemoryKlineStore) CountAll() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	total := 0
	for _, store := range s.data {
		store.mu.Lock()
		total += store.klines.Len()
		store.mu.Unlock()
	}
	return total
}

func copyKlines(in []*Kline) []Kline {
	cp := make([]Kline, len(in))
	for i, k := range in {
		cp[i] = *k
	}
	return cp
}
