package pool

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrowingCoversExactTotal(t *testing.T) {
	p := New[int]()

	total := 0
	for buf := range p.Growing(500, 64, 2, 256) {
		total += buf.Count()
	}

	require.Equal(t, 500, total)
}

func TestGrowingCapacityMonotonicity(t *testing.T) {
	p := New[int]()

	var prevCap int
	for buf := range p.Growing(1000, 32, 3, 128) {
		require.GreaterOrEqual(t, buf.Cap(), prevCap)
		prevCap = buf.Cap()
	}
}

func TestGrowingSwitchesToLargeSizeAfterGrowAfter(t *testing.T) {
	p := New[int]()

	var caps []int
	for buf := range p.Growing(10, 2, 2, 5) {
		caps = append(caps, buf.Cap())
	}

	// First two iterations at initSize=2 (growAfter=2), then largeSize=5.
	require.Equal(t, []int{2, 2, 5, 5}, caps)
}

func TestFixedSingleYieldsOneBuffer(t *testing.T) {
	p := New[int]()

	count := 0
	var size int
	for buf := range p.FixedSingle(42) {
		count++
		size = buf.Count()
	}

	require.Equal(t, 1, count)
	require.Equal(t, 42, size)
}

func TestFixedRampSchedule(t *testing.T) {
	p := New[int]()

	var caps []int
	i := 0
	for buf := range p.FixedRamp(1, 2, 4, 3, 16) {
		caps = append(caps, buf.Cap())
		i++
		if i == 7 {
			break
		}
	}

	// 1, 2, then smallSize(4) x3, then largeSize(16)...
	require.Equal(t, []int{1, 2, 4, 4, 4, 16, 16}, caps)
}

func TestPoolReusesBufferAcrossBackToBackGrowingSequences(t *testing.T) {
	p := New[int]()

	var firstArray *Buffer[int]
	for buf := range p.Growing(500, 64, 2, 256) {
		firstArray = buf
	}

	// Force the weak reference to be observed before it could be collected.
	runtime.GC()

	var reused bool
	for buf := range p.Growing(500, 64, 2, 256) {
		reused = buf == firstArray || buf.Cap() == firstArray.Cap()
		break
	}

	require.True(t, reused, "second growing sequence should reuse the pooled array's capacity")
}

func TestPoolMissOnEmptyCellAllocatesFreshBuffer(t *testing.T) {
	p := New[int]()

	buf := p.acquire(16)
	require.Nil(t, buf, "freshly constructed pool has nothing cached")
}

func TestAcquireRejectsUndersizedCachedBuffer(t *testing.T) {
	p := New[int]()
	p.release(newBuffer[int](8))

	buf := p.acquire(16)
	require.Nil(t, buf, "cached buffer smaller than the request must miss")
}

func TestAcquireAcceptsLargeEnoughCachedBuffer(t *testing.T) {
	p := New[int]()
	p.release(newBuffer[int](32))

	buf := p.acquire(16)
	require.NotNil(t, buf)
	require.GreaterOrEqual(t, buf.Cap(), 16)
}
