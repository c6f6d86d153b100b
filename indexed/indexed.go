package indexed

import (
	"fmt"

	"github.com/veltra/chronofile/engine"
	"github.com/veltra/chronofile/errs"
	"github.com/veltra/chronofile/recdesc"
)

// IndexFunc extracts the monotonic index value from a record. Callers
// supply it explicitly, the same way recdesc.Descriptor is supplied
// explicitly, so the hot search/append path never needs reflection.
type IndexFunc[T any] func(item T) int64

// File addresses an engine.Engine's records by an embedded index field:
// body order must be non-decreasing by IndexFunc, enforced on append.
type File[T any] struct {
	*engine.Engine[T]

	indexOf IndexFunc[T]
}

// Create makes a new indexed file. desc.IndexField should name the same
// field indexOf reads. The persisted signature does not record
// IndexField; index extraction goes through indexOf only.
func Create[T any](path string, desc recdesc.Descriptor[T], tag string, indexOf IndexFunc[T], opts ...engine.Option) (*File[T], error) {
	e, err := engine.Create(path, desc, tag, nil, opts...)
	if err != nil {
		return nil, err
	}

	return &File[T]{Engine: e, indexOf: indexOf}, nil
}

// Open opens an existing indexed file.
func Open[T any](path string, mode engine.Mode, desc recdesc.Descriptor[T], indexOf IndexFunc[T], opts ...engine.Option) (*File[T], error) {
	e, err := engine.Open(path, mode, desc, opts...)
	if err != nil {
		return nil, err
	}

	return &File[T]{Engine: e, indexOf: indexOf}, nil
}

// lowerBound returns the ordinal of the first record whose index is >=
// target, or Count() if every record's index is smaller. It never
// returns a complemented value; Search does that for the hit/miss
// distinction, lowerBound is the plain form both sides of a range
// resolution need.
func (f *File[T]) lowerBound(target int64) int64 {
	lo, hi := int64(0), f.Count()

	for lo < hi {
		mid := lo + (hi-lo)/2

		item := make([]T, 1)
		if err := f.Engine.ReadRange(mid, item); err != nil {
			// A read failure mid-search means the handle is no longer
			// usable; stop narrowing so the caller's subsequent operation
			// surfaces the same error.
			return lo
		}

		if f.indexOf(item[0]) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}

// Search looks up index in [0, Count()). On a hit it returns the
// ordinal of the first record carrying that index (duplicates run
// together). On a miss it returns the bitwise complement of the ordinal
// index would be inserted at, mirroring a canonical binary-search
// contract: a caller can test `r < 0` for a miss and recover the
// insertion point with `^r`.
func (f *File[T]) Search(index int64) int64 {
	ordinal := f.lowerBound(index)

	if ordinal < f.Count() {
		item := make([]T, 1)
		if err := f.Engine.ReadRange(ordinal, item); err == nil && f.indexOf(item[0]) == index {
			return ordinal
		}
	}

	return ^ordinal
}

// ResolveRange resolves [fromIndex, toIndex) to the ordinal range
// [lo, hi) currently in the file, via two lowerBound searches.
func (f *File[T]) ResolveRange(fromIndex, toIndex int64) (lo, hi int64) {
	lo = f.lowerBound(fromIndex)
	hi = f.lowerBound(toIndex)

	if hi < lo {
		hi = lo
	}

	return lo, hi
}

// AppendRange appends buf to the tail. It requires buf to be internally
// non-decreasing by IndexFunc, and index(buf[0]) to be >= the index of
// the last existing record, if any; equal-index runs (duplicates) are
// permitted on both counts. Unlike uniform files, indexed files never
// allow overwriting the existing tail: the new block always lands at
// Count().
func (f *File[T]) AppendRange(buf []T) error {
	if len(buf) == 0 {
		return nil
	}

	if f.Count() > 0 {
		last := make([]T, 1)
		if err := f.Engine.ReadRange(f.Count()-1, last); err != nil {
			return err
		}

		if f.indexOf(buf[0]) < f.indexOf(last[0]) {
			return fmt.Errorf("%w: first new index %d precedes last existing index %d",
				errs.ErrIndexNonMonotonic, f.indexOf(buf[0]), f.indexOf(last[0]))
		}
	}

	for i := 1; i < len(buf); i++ {
		if f.indexOf(buf[i]) < f.indexOf(buf[i-1]) {
			return fmt.Errorf("%w: index decreases within appended batch at offset %d", errs.ErrIndexNonMonotonic, i)
		}
	}

	return f.Engine.AppendRange(f.Count(), buf)
}
