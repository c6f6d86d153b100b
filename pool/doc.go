// Package pool implements the buffer pool described by the file engine:
// a single weakly-held [Buffer] cell that backs lazy sequences of buffers
// ("growing", "fixed single", "fixed ramp") used by the streaming iterator
// and the file engine's read path to avoid allocating a fresh array for
// every windowed read.
//
// A pool holds at most one cached buffer at a time, referenced through
// Go's weak package (weak.Pointer) rather than a strong reference, so the
// garbage collector can reclaim it under memory pressure. Acquiring the
// cached buffer is an atomic exchange against the pool's single cell:
// concurrent callers never observe the same buffer, but any of them may
// simply miss the cache and allocate their own.
package pool
