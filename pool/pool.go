package pool

import (
	"iter"
	"sync/atomic"
	"weak"
)

// Pool yields lazy sequences of [Buffer] values over a target item count,
// reusing a single weakly-held buffer cell across sequences whenever its
// capacity suffices. Pool is safe for concurrent use: acquiring the cached
// buffer is an atomic exchange, so two concurrent sequences never share a
// buffer, though either may miss the cache and allocate its own.
type Pool[T any] struct {
	cell atomic.Pointer[weak.Pointer[Buffer[T]]]
}

// New creates an empty Pool with no cached buffer.
func New[T any]() *Pool[T] {
	return &Pool[T]{}
}

// acquire takes exclusive ownership of the cached buffer if one exists and
// its capacity is at least size. It returns nil on a cache miss (no cached
// buffer, the weak reference was already collected, or the capacity is too
// small), in which case the caller must allocate a fresh buffer.
func (p *Pool[T]) acquire(size int) *Buffer[T] {
	cached := p.cell.Swap(nil)
	if cached == nil {
		return nil
	}

	buf := cached.Value()
	if buf == nil || buf.Cap() < size {
		return nil
	}

	return buf
}

// release stores a weak reference to buf in the pool's cell, overwriting
// whatever was cached before. Called on sequence completion, whether the
// consumer drained it fully or abandoned it early.
func (p *Pool[T]) release(buf *Buffer[T]) {
	if buf == nil {
		return
	}

	w := weak.Make(buf)
	p.cell.Store(&w)
}

func acquireOrAlloc[T any](p *Pool[T], size int) *Buffer[T] {
	if buf := p.acquire(size); buf != nil {
		return buf
	}

	return newBuffer[T](size)
}

// Growing yields buffers covering exactly total items: up to growAfter
// buffers of capacity initSize, each counted min(remaining, capacity), then
// switches to largeSize for the remainder. The underlying array is reused
// across yields within a phase; switching phases allocates (or reclaims
// from the pool) a new, larger array. Terminates once the full range has
// been yielded. The buffer is released back to the pool, via a weak
// reference, when the sequence ends — normally or by early break.
func (p *Pool[T]) Growing(total, initSize, growAfter, largeSize int) iter.Seq[*Buffer[T]] {
	return func(yield func(*Buffer[T]) bool) {
		if total <= 0 {
			return
		}

		buf := acquireOrAlloc(p, initSize)
		defer func() { p.release(buf) }()

		remaining := total
		iteration := 0

		for remaining > 0 {
			if iteration >= growAfter && buf.Cap() < largeSize {
				buf = acquireOrAlloc(p, largeSize)
			}

			n := min(remaining, buf.Cap())
			buf.SetCount(n)

			if !yield(buf) {
				return
			}

			remaining -= n
			iteration++
		}
	}
}

// FixedSingle yields exactly one buffer of the given size.
func (p *Pool[T]) FixedSingle(size int) iter.Seq[*Buffer[T]] {
	return func(yield func(*Buffer[T]) bool) {
		buf := acquireOrAlloc(p, size)
		defer func() { p.release(buf) }()

		buf.SetCount(size)
		yield(buf)
	}
}

// FixedRamp yields buffers of size blockOne, then blockTwo, then smallSize
// repeated growAfter times, then largeSize forever. Unlike Growing, it has
// no target total and runs until the consumer stops requesting buffers —
// intended for callers streaming an unbounded or not-yet-known range.
func (p *Pool[T]) FixedRamp(blockOne, blockTwo, smallSize int, growAfter int, largeSize int) iter.Seq[*Buffer[T]] {
	return func(yield func(*Buffer[T]) bool) {
		schedule := make([]int, 0, 2+growAfter)
		schedule = append(schedule, blockOne, blockTwo)
		for range growAfter {
			schedule = append(schedule, smallSize)
		}

		var buf *Buffer[T]
		defer func() {
			if buf != nil {
				p.release(buf)
			}
		}()

		for i := 0; ; i++ {
			size := largeSize
			if i < len(schedule) {
				size = schedule[i]
			}

			if buf == nil || buf.Cap() < size {
				buf = acquireOrAlloc(p, size)
			}

			buf.SetCount(size)

			if !yield(buf) {
				return
			}
		}
	}
}
