package cache

import (
	"fmt"
	"maps"
	"slices"
)

// PartitionFunc derives the partition (for example the instrument symbol) of a record.
type PartitionFunc[P comparable, T any] func(rec *T) (P, error)

type nestedSlot[P, K comparable, T any] struct {
	part P
	id   K
	rec  *T
}

// Nested is a keyed cache whose ids are only unique within a partition. All partitions
// share one capacity: when the cache is full the globally oldest record is evicted,
// whichever partition it belongs to.
//
// Nested is not safe for concurrent use.
type Nested[P comparable, K comparable, T any] struct {
	seq       *Sequence[nestedSlot[P, K, T]]
	index     map[P]map[K]Handle
	partition PartitionFunc[P, T]
	id        KeyFunc[K, T]
	equal     func(a, b *T) bool
	fresh     map[P]int
	changed   map[P]map[Handle]struct{}
}

// NewNested returns a partitioned cache holding at most capacity records in total.
func NewNested[P comparable, K comparable, T any](capacity int, partition PartitionFunc[P, T], id KeyFunc[K, T], opts ...Option[T]) (*Nested[P, K, T], error) {
	seq, err := NewSequence[nestedSlot[P, K, T]](capacity)
	if err != nil {
		return nil, err
	}
	return newNested(seq, partition, id, opts), nil
}

// NewUnboundedNested returns a partitioned cache that never evicts.
func NewUnboundedNested[P comparable, K comparable, T any](partition PartitionFunc[P, T], id KeyFunc[K, T], opts ...Option[T]) *Nested[P, K, T] {
	return newNested(NewUnboundedSequence[nestedSlot[P, K, T]](), partition, id, opts)
}

func newNested[P comparable, K comparable, T any](seq *Sequence[nestedSlot[P, K, T]], partition PartitionFunc[P, T], id KeyFunc[K, T], opts []Option[T]) *Nested[P, K, T] {
	o := buildOptions(opts)
	return &Nested[P, K, T]{
		seq:       seq,
		index:     make(map[P]map[K]Handle),
		partition: partition,
		id:        id,
		equal:     o.equal,
		fresh:     make(map[P]int),
		changed:   make(map[P]map[Handle]struct{}),
	}
}

// Append adds rec to its partition, or merges it in place into the cached record with
// the same partition and id. It returns the record now held by the cache.
func (c *Nested[P, K, T]) Append(rec *T) (*T, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrMalformedRecord)
	}
	p, err := c.partition(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: partition: %w", ErrMalformedRecord, err)
	}
	k, err := c.id(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrMalformedRecord, err)
	}

	if h, ok := c.index[p][k]; ok {
		s, _ := c.seq.lookup(h)
		if s.rec == rec {
			c.touch(p, h)
		} else if !c.equal(s.rec, rec) {
			*s.rec = *rec
			c.touch(p, h)
		}
		return s.rec, nil
	}

	evicted, ok, h := c.seq.push(nestedSlot[P, K, T]{part: p, id: k, rec: rec})
	if ok {
		c.forget(evicted)
	}

	inner, ok := c.index[p]
	if !ok {
		inner = make(map[K]Handle)
		c.index[p] = inner
	}
	inner[k] = h
	c.touch(p, h)
	return rec, nil
}

func (c *Nested[P, K, T]) touch(p P, h Handle) {
	c.fresh[p]++
	changed, ok := c.changed[p]
	if !ok {
		changed = make(map[Handle]struct{})
		c.changed[p] = changed
	}
	changed[h] = struct{}{}
}

// forget removes an evicted record from the inner map of its own partition.
func (c *Nested[P, K, T]) forget(s nestedSlot[P, K, T]) {
	inner, ok := c.index[s.part]
	if !ok {
		return
	}
	delete(c.changed[s.part], inner[s.id])
	delete(inner, s.id)
	if len(inner) == 0 {
		delete(c.index, s.part)
		delete(c.fresh, s.part)
		delete(c.changed, s.part)
	}
}

// Lookup returns the cached record with id in partition p.
func (c *Nested[P, K, T]) Lookup(p P, id K) (*T, bool) {
	h, ok := c.index[p][id]
	if !ok {
		return nil, false
	}
	s, _ := c.seq.lookup(h)
	return s.rec, true
}

// Partition returns the records of partition p in arrival order.
func (c *Nested[P, K, T]) Partition(p P) []*T {
	inner := c.index[p]
	if len(inner) == 0 {
		return nil
	}

	handles := slices.Sorted(maps.Values(inner))
	out := make([]*T, 0, len(handles))
	for _, h := range handles {
		s, _ := c.seq.lookup(h)
		out = append(out, s.rec)
	}
	return out
}

// PartitionLen returns the number of records cached for partition p.
func (c *Nested[P, K, T]) PartitionLen(p P) int {
	return len(c.index[p])
}

// Partitions returns the partitions that currently hold at least one record, in no
// particular order.
func (c *Nested[P, K, T]) Partitions() []P {
	return slices.Collect(maps.Keys(c.index))
}

// Len returns the number of cached records across all partitions.
func (c *Nested[P, K, T]) Len() int { return c.seq.Len() }

// Limit returns the shared capacity, or 0 when unbounded.
func (c *Nested[P, K, T]) Limit() int { return c.seq.Limit() }

// TakeLimit returns the number of content-changing appends to partition p since the
// previous take for p, capped by limit (limit <= 0 means no cap) and by the partition
// size. It resets the same state as TakeChanged.
func (c *Nested[P, K, T]) TakeLimit(p P, limit int) int {
	n := min(c.fresh[p], len(c.index[p]))
	if limit > 0 {
		n = min(n, limit)
	}
	c.reset(p)
	return n
}

// TakeChanged returns the records of partition p that were added or changed since the
// previous take for p, oldest first. With limit > 0 only the newest limit of them are
// returned.
func (c *Nested[P, K, T]) TakeChanged(p P, limit int) []*T {
	out := changedRecords(c.seq, c.changed[p], limit, func(s nestedSlot[P, K, T]) *T { return s.rec })
	c.reset(p)
	return out
}

func (c *Nested[P, K, T]) reset(p P) {
	delete(c.fresh, p)
	delete(c.changed, p)
}

// View returns a read-only view over all cached records, oldest first.
func (c *Nested[P, K, T]) View() *View[*T] {
	return &View[*T]{
		length: c.seq.Len,
		at:     func(i int) *T { return c.seq.at(i).rec },
		equal:  c.equal,
	}
}
