package cache

import "reflect"

// KeyFunc derives the dedup key of a record. It returns an error when the record is
// missing the field the key is built from.
type KeyFunc[K comparable, T any] func(rec *T) (K, error)

// Option configures a keyed cache.
type Option[T any] func(*options[T])

type options[T any] struct {
	equal func(a, b *T) bool
}

// WithEqual replaces the structural equality used to decide whether an arriving
// record changes the cached one. The default is reflect.DeepEqual on the records.
func WithEqual[T any](fn func(a, b *T) bool) Option[T] {
	return func(o *options[T]) {
		if fn != nil {
			o.equal = fn
		}
	}
}

func buildOptions[T any](opts []Option[T]) options[T] {
	o := options[T]{
		equal: func(a, b *T) bool { return reflect.DeepEqual(*a, *b) },
	}
	for _, opt := range opts {
		opt(&o)
	}

	// nil never equals a record
	eq := o.equal
	o.equal = func(a, b *T) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a == b || eq(a, b)
	}
	return o
}
