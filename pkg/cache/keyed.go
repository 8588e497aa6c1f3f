package cache

import (
	"errors"
	"fmt"
)

type slot[K comparable, T any] struct {
	key K
	rec *T
}

// Keyed is a bounded sequence of records with at most one live record per key.
//
// Appending a record whose key is already cached merges it into the cached record in
// place: the pointer held by the cache (and by anyone who read it earlier) keeps its
// identity and position, only its content changes. Records with a new key go to the
// tail, evicting the oldest record when the cache is full.
//
// The index stores sequence handles, so an evicted record can never be left behind in
// it. Keyed is not safe for concurrent use.
type Keyed[K comparable, T any] struct {
	seq   *Sequence[slot[K, T]]
	index map[K]Handle
	key   KeyFunc[K, T]
	equal   func(a, b *T) bool
	fresh   int // appends that changed content since the last take
	changed map[Handle]struct{}
}

// NewKeyed returns a keyed cache holding at most capacity records.
func NewKeyed[K comparable, T any](capacity int, key KeyFunc[K, T], opts ...Option[T]) (*Keyed[K, T], error) {
	seq, err := NewSequence[slot[K, T]](capacity)
	if err != nil {
		return nil, err
	}
	return newKeyed(seq, key, opts), nil
}

// NewUnboundedKeyed returns a keyed cache that never evicts.
func NewUnboundedKeyed[K comparable, T any](key KeyFunc[K, T], opts ...Option[T]) *Keyed[K, T] {
	return newKeyed(NewUnboundedSequence[slot[K, T]](), key, opts)
}

func newKeyed[K comparable, T any](seq *Sequence[slot[K, T]], key KeyFunc[K, T], opts []Option[T]) *Keyed[K, T] {
	o := buildOptions(opts)
	return &Keyed[K, T]{
		seq:   seq,
		index:   make(map[K]Handle),
		key:     key,
		equal:   o.equal,
		changed: make(map[Handle]struct{}),
	}
}

// Append adds rec to the cache, or merges it into the cached record with the same key.
// It returns the record now held by the cache for that key.
func (c *Keyed[K, T]) Append(rec *T) (*T, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrMalformedRecord)
	}
	k, err := c.key(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	if h, ok := c.index[k]; ok {
		s, _ := c.seq.lookup(h)
		if s.rec == rec {
			// caller mutated the cached record itself
			c.touch(h)
		} else if !c.equal(s.rec, rec) {
			*s.rec = *rec
			c.touch(h)
		}
		return s.rec, nil
	}

	evicted, ok, h := c.seq.push(slot[K, T]{key: k, rec: rec})
	if ok {
		delete(c.changed, c.index[evicted.key])
		delete(c.index, evicted.key)
	}
	c.index[k] = h
	c.touch(h)
	return rec, nil
}

// Get returns the cached record for key.
func (c *Keyed[K, T]) Get(key K) (*T, bool) {
	h, ok := c.index[key]
	if !ok {
		return nil, false
	}
	s, _ := c.seq.lookup(h)
	return s.rec, true
}

// Len returns the number of cached records.
func (c *Keyed[K, T]) Len() int { return c.seq.Len() }

// Limit returns the capacity, or 0 when unbounded.
func (c *Keyed[K, T]) Limit() int { return c.seq.Limit() }

func (c *Keyed[K, T]) touch(h Handle) {
	c.fresh++
	c.changed[h] = struct{}{}
}

// TakeLimit returns the number of content-changing appends since the previous take,
// capped by limit (limit <= 0 means no cap) and by Len. Several updates of one record
// count several times. It resets the same state as TakeChanged.
func (c *Keyed[K, T]) TakeLimit(limit int) int {
	n := min(c.fresh, c.seq.Len())
	if limit > 0 {
		n = min(n, limit)
	}
	c.reset()
	return n
}

// TakeChanged returns the cached records that were added or changed since the previous
// take, oldest first. With limit > 0 only the newest limit of them are returned.
func (c *Keyed[K, T]) TakeChanged(limit int) []*T {
	out := changedRecords(c.seq, c.changed, limit, func(s slot[K, T]) *T { return s.rec })
	c.reset()
	return out
}

func (c *Keyed[K, T]) reset() {
	c.fresh = 0
	clear(c.changed)
}

// View returns a read-only view over the cached records, oldest first.
func (c *Keyed[K, T]) View() *View[*T] {
	return &View[*T]{
		length: c.seq.Len,
		at:     func(i int) *T { return c.seq.at(i).rec },
		equal:  c.equal,
	}
}

// NewByTimestamp returns a cache of OHLCV candles keyed on their opening timestamp.
func NewByTimestamp(capacity int) (*Keyed[int64, OHLCV], error) {
	return NewKeyed(capacity, OHLCVTimestamp)
}

// OHLCV is a candle laid out as [timestamp, open, high, low, close, volume].
type OHLCV []float64

var errEmptyCandle = errors.New("candle has no timestamp")

// OHLCVTimestamp keys a candle on its first field.
func OHLCVTimestamp(c *OHLCV) (int64, error) {
	if len(*c) == 0 {
		return 0, errEmptyCandle
	}
	return int64((*c)[0]), nil
}
