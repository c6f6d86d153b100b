package scratch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferWriteAndGrow(t *testing.T) {
	b := NewBuffer(4)

	b.MustWrite([]byte{1, 2, 3})
	require.Equal(t, []byte{1, 2, 3}, b.Bytes())

	b.Grow(1000)
	require.GreaterOrEqual(t, b.Cap(), 1003)

	b.MustWrite([]byte{4, 5})
	require.Equal(t, []byte{1, 2, 3, 4, 5}, b.Bytes())
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer(16)
	b.MustWrite([]byte{9, 9, 9})

	cap := b.Cap()
	b.Reset()

	require.Equal(t, 0, b.Len())
	require.Equal(t, cap, b.Cap(), "Reset must keep the backing array for reuse")
}

func TestBufferGrowNoopWhenCapacitySuffices(t *testing.T) {
	b := NewBuffer(64)
	before := b.Cap()

	b.Grow(10)

	require.Equal(t, before, b.Cap())
}

func TestPoolGetPutRoundTrip(t *testing.T) {
	p := NewPool(16, 1024)

	buf := p.Get()
	buf.MustWrite([]byte{1, 2, 3})
	p.Put(buf)

	buf2 := p.Get()
	require.Equal(t, 0, buf2.Len(), "Put must Reset before returning to the pool")
}

func TestPoolDropsOversizedBuffers(t *testing.T) {
	p := NewPool(16, 32)

	buf := p.Get()
	buf.Grow(1000)
	require.Greater(t, buf.Cap(), 32)

	p.Put(buf) // should be dropped, not pooled

	fresh := p.Get()
	require.LessOrEqual(t, fresh.Cap(), 32)
}

func TestDefaultBlockBufferPool(t *testing.T) {
	buf := GetBlockBuffer()
	require.NotNil(t, buf)
	require.Equal(t, 0, buf.Len())

	buf.MustWrite([]byte{1})
	PutBlockBuffer(buf)
}
