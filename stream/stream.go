package stream

import (
	"iter"

	"github.com/veltra/chronofile/engine"
	"github.com/veltra/chronofile/pool"
)

// Default ramp parameters for Range's buffer sequence: small buffers at
// first so a short range never allocates more than it needs, growing to
// a page-friendly size for long ranges.
const (
	defaultInitSize  = 256
	defaultGrowAfter = 4
	defaultLargeSize = 8192
)

// Reader is the subset of engine.Engine Range needs: a ranged read over
// ordinals. uniform.File and indexed.File satisfy it through their
// embedded *engine.Engine.
type Reader[T any] interface {
	ReadRange(firstOrdinal int64, buf []T) error
}

// Range lazily reads the ordinal range [lo, hi) from r through p's
// growing buffer sequence, one read per yielded buffer. Each yielded
// *pool.Buffer[T] is reused across iterations: its contents are only
// valid until the loop advances to the next one, and the caller must
// not retain a reference past that point. The buffer is released back
// to p, via a weak reference, whether the sequence is drained fully or
// abandoned with an early break.
func Range[T any](p *pool.Pool[T], r Reader[T], lo, hi int64) iter.Seq[*pool.Buffer[T]] {
	return func(yield func(*pool.Buffer[T]) bool) {
		total := hi - lo
		if total <= 0 {
			return
		}

		ordinal := lo

		for buf := range p.Growing(int(total), defaultInitSize, defaultGrowAfter, defaultLargeSize) {
			if err := r.ReadRange(ordinal, buf.Slice()); err != nil {
				return
			}

			ordinal += int64(buf.Count())

			if !yield(buf) {
				return
			}
		}
	}
}

// RangeEngine is a convenience wrapper for the common case of streaming
// directly off a raw engine.Engine, without a uniform or indexed
// addressing layer in between.
func RangeEngine[T any](p *pool.Pool[T], e *engine.Engine[T], lo, hi int64) iter.Seq[*pool.Buffer[T]] {
	return Range(p, e, lo, hi)
}
