package cache

import "errors"

var (
	// ErrInvalidCapacity is returned when a cache is built with a non-positive capacity.
	ErrInvalidCapacity = errors.New("cache: capacity must be positive")

	// ErrIndexOutOfRange is returned by At when the normalized index falls outside [0, Len).
	ErrIndexOutOfRange = errors.New("cache: index out of range")

	// ErrZeroStep is returned by Slice when step is 0.
	ErrZeroStep = errors.New("cache: slice step cannot be zero")

	// ErrMalformedRecord is returned by Append when the key cannot be derived from a record.
	ErrMalformedRecord = errors.New("cache: malformed record")
)
