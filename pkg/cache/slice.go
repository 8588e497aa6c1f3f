package cache

import (
	"fmt"
	"math"
)

// Begin and End stand in for an omitted slice bound. Slice(Begin, End, 1) is the whole
// sequence and Slice(End, Begin, -1) is the whole sequence reversed.
const (
	Begin = math.MinInt
	End   = math.MaxInt
)

// indices normalizes (start, stop, step) against a sequence of length n the same way
// a slice expression over a fixed-length sequence does: negative offsets count from
// the tail and out-of-range bounds are clamped.
func indices(n, start, stop, step int) (int, int, error) {
	if step == 0 {
		return 0, 0, ErrZeroStep
	}

	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}

	clamp := func(i int) int {
		if i < 0 {
			i += n
			if i < lower {
				i = lower
			}
		} else if i > upper {
			i = upper
		}
		return i
	}

	return clamp(start), clamp(stop), nil
}

// sliceLen returns how many elements a normalized (start, stop, step) selects.
func sliceLen(start, stop, step int) int {
	if step > 0 {
		if stop <= start {
			return 0
		}
		return (stop-start-1)/step + 1
	}
	if start <= stop {
		return 0
	}
	return (start-stop-1)/(-step) + 1
}

// collect materializes the elements selected by (start, stop, step) from a sequence
// of length n accessed through at.
func collect[T any](n int, at func(int) T, start, stop, step int) ([]T, error) {
	start, stop, err := indices(n, start, stop, step)
	if err != nil {
		return nil, err
	}

	count := sliceLen(start, stop, step)
	out := make([]T, 0, count)
	for k := 0; k < count; k++ {
		out = append(out, at(start+k*step))
	}
	return out, nil
}

// position resolves a possibly negative index against length n.
func position(i, n int) (int, error) {
	idx := i
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, n)
	}
	return idx, nil
}
