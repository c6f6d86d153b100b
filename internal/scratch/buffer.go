// Package scratch provides pooled byte buffers for the codec and bit stream
// layers, which need a growable scratch area per encode/decode block but
// don't want to allocate one on every call.
package scratch

import "sync"

// BlockBufferDefaultSize is the default size of a Buffer obtained from the
// default block pool — large enough for a typical codec block before any
// growth is needed.
const (
	BlockBufferDefaultSize  = 4 * 1024  // 4KiB
	BlockBufferMaxThreshold = 256 * 1024 // 256KiB
)

// Buffer is a growable byte buffer with amortized-growth semantics, used as
// the scratch area bitstream.Writer and the codec layer write into before
// handing the finished bytes off to the file engine.
type Buffer struct {
	B []byte
}

// NewBuffer creates a new Buffer with the specified default capacity.
func NewBuffer(defaultSize int) *Buffer {
	return &Buffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the buffer's current contents.
func (b *Buffer) Bytes() []byte {
	return b.B
}

// Reset empties the buffer but keeps the allocated memory for reuse.
func (b *Buffer) Reset() {
	b.B = b.B[:0]
}

// Len returns the number of bytes currently in the buffer.
func (b *Buffer) Len() int {
	return len(b.B)
}

// Cap returns the buffer's backing capacity.
func (b *Buffer) Cap() int {
	return cap(b.B)
}

// MustWrite appends data to the buffer, growing it if necessary.
func (b *Buffer) MustWrite(data []byte) {
	b.B = append(b.B, data...)
}

// Grow ensures the buffer can hold requiredBytes more bytes without a
// further reallocation.
//
// Growth strategy:
//   - Small buffers (< 4x BlockBufferDefaultSize): grow by BlockBufferDefaultSize.
//   - Larger buffers: grow by 25% of current capacity.
func (b *Buffer) Grow(requiredBytes int) {
	available := cap(b.B) - len(b.B)
	if available >= requiredBytes {
		return
	}

	growBy := BlockBufferDefaultSize
	if cap(b.B) > 4*BlockBufferDefaultSize {
		growBy = cap(b.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(b.B), len(b.B)+growBy)
	copy(newBuf, b.B)
	b.B = newBuf
}

// Pool pools Buffers to minimize allocations across repeated encode/decode
// passes. Buffers larger than maxThreshold are dropped instead of pooled,
// so one oversized block doesn't inflate the pool's steady-state footprint.
type Pool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewPool creates a Pool whose buffers default to defaultSize and are
// discarded if they grow past maxThreshold.
func NewPool(defaultSize, maxThreshold int) *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any { return NewBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a Buffer from the pool, allocating a new one if empty.
func (p *Pool) Get() *Buffer {
	buf, _ := p.pool.Get().(*Buffer)
	return buf
}

// Put returns a Buffer to the pool for reuse.
func (p *Pool) Put(buf *Buffer) {
	if buf == nil {
		return
	}

	if p.maxThreshold > 0 && buf.Cap() > p.maxThreshold {
		return
	}

	buf.Reset()
	p.pool.Put(buf)
}

var defaultPool = NewPool(BlockBufferDefaultSize, BlockBufferMaxThreshold)

// GetBlockBuffer retrieves a Buffer from the shared default block pool.
func GetBlockBuffer() *Buffer {
	return defaultPool.Get()
}

// PutBlockBuffer returns a Buffer to the shared default block pool.
func PutBlockBuffer(buf *Buffer) {
	defaultPool.Put(buf)
}
