package uniform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/veltra/chronofile/endian"
	"github.com/veltra/chronofile/engine"
	"github.com/veltra/chronofile/errs"
	"github.com/veltra/chronofile/recdesc"
	"github.com/stretchr/testify/require"
)

type tick struct {
	I int64
}

func mustDescriptor[T any](t *testing.T) recdesc.Descriptor[T] {
	d, err := recdesc.Reflect[T]("")
	require.NoError(t, err)
	return d
}

const oneMinute = 60 * TicksPerSecond

func TestUniformCreateAppendReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	t0 := int64(637_165_056_000_000_000) // arbitrary Δ-aligned epoch tick count

	f, err := Create(path, desc, "series", t0, oneMinute)
	require.NoError(t, err)
	defer f.Close()

	items := make([]tick, 120)
	for i := range items {
		items[i] = tick{I: int64(i)}
	}
	require.NoError(t, f.AppendRange(t0, items))
	require.Equal(t, int64(120), f.Count())

	from := t0 + 30*oneMinute
	to := t0 + 60*oneMinute

	buf := make([]tick, 30)
	n, err := f.ReadTimeRange(from, to, buf)
	require.NoError(t, err)
	require.Equal(t, int64(30), n)
	require.Equal(t, int64(30), buf[0].I)
	require.Equal(t, int64(59), buf[29].I)
}

func TestUniformIndexToOrdinalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	t0 := int64(0)

	f, err := Create(path, desc, "series", t0, oneMinute)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.AppendRange(t0, make([]tick, 10)))

	for n := int64(0); n < 10; n++ {
		idx := f.OrdinalToIndex(n)
		got, err := f.IndexToOrdinal(idx)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestUniformIndexToOrdinalMisaligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	f, err := Create(path, desc, "series", 0, oneMinute)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.IndexToOrdinal(30) // not a multiple of oneMinute
	require.True(t, errors.Is(err, errs.ErrIndexMisaligned))
}

func TestUniformCreateRejectsMisalignedT0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	_, err := Create(path, desc, "series", 30, oneMinute)
	require.True(t, errors.Is(err, errs.ErrIndexMisaligned))
}

func TestUniformCreateRejectsStepOverOneDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	_, err := Create(path, desc, "series", 0, TicksPerDay+1)
	require.True(t, errors.Is(err, errs.ErrInvalidDescriptor))
}

func TestUniformCreateRejectsStepNotDividingDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	_, err := Create(path, desc, "series", 0, TicksPerDay/10+1)
	require.True(t, errors.Is(err, errs.ErrInvalidDescriptor))
}

func TestUniformResolveRangeClipsToAvailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	f, err := Create(path, desc, "series", 0, oneMinute)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.AppendRange(0, make([]tick, 10)))

	firstOrdinal, length := f.ResolveRange(-5*oneMinute, 5*oneMinute)
	require.Equal(t, int64(0), firstOrdinal)
	require.Equal(t, int64(5), length)

	firstOrdinal, length = f.ResolveRange(8*oneMinute, 50*oneMinute)
	require.Equal(t, int64(8), firstOrdinal)
	require.Equal(t, int64(2), length)
}

func TestUniformResolveRangeEmptyReturnsZeroLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	f, err := Create(path, desc, "series", 0, oneMinute)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.AppendRange(0, make([]tick, 10)))

	_, length := f.ResolveRange(20*oneMinute, 20*oneMinute)
	require.Equal(t, int64(0), length)

	_, length = f.ResolveRange(-20*oneMinute, -10*oneMinute)
	require.Equal(t, int64(0), length)
}

func TestUniformResolveRangeRoundsUpToStepBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	f, err := Create(path, desc, "series", 0, oneMinute)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.AppendRange(0, make([]tick, 10)))

	firstOrdinal, length := f.ResolveRange(oneMinute/2, 3*oneMinute+oneMinute/2)
	require.Equal(t, int64(1), firstOrdinal)
	require.Equal(t, int64(3), length)
}

func TestUniformAppendOverwritesTailWithinRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	f, err := Create(path, desc, "series", 0, oneMinute)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.AppendRange(0, []tick{{I: 1}, {I: 2}, {I: 3}}))
	require.NoError(t, f.AppendRange(oneMinute, []tick{{I: 99}}))

	buf := make([]tick, 3)
	require.NoError(t, f.Engine.ReadRange(0, buf))
	require.Equal(t, int64(99), buf[1].I)
	require.Equal(t, int64(3), f.Count())
}

func TestUniformAppendPastAvailableExtendsWithoutGapFill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uniform.cfile")
	desc := mustDescriptor[tick](t)

	f, err := Create(path, desc, "series", 0, oneMinute)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.AppendRange(0, []tick{{I: 1}, {I: 2}}))
	require.Equal(t, int64(2*oneMinute), f.FirstUnavailableTimestamp())

	require.NoError(t, f.AppendRange(5*oneMinute, []tick{{I: 99}}))
	require.Equal(t, int64(6), f.Count())

	buf := make([]tick, 6)
	require.NoError(t, f.Engine.ReadRange(0, buf))
	require.Equal(t, int64(0), buf[3].I)
	require.Equal(t, int64(99), buf[5].I)
}

func TestUniformOpenLegacyVersionDecodesT0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.cfile")
	desc := mustDescriptor[tick](t)

	t0 := int64(637_012_224_000_000_000) // arbitrary Δ-aligned epoch tick count

	f, err := Create(path, desc, "series", t0, oneMinute)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rewriteAsLegacyUtc(t, path, t0)

	reopened, err := Open[tick](path, engine.ModeRead, desc)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, t0, reopened.T0())
	require.Equal(t, int64(oneMinute), reopened.Delta())
}

// rewriteAsLegacyUtc patches an on-disk file written with the current
// (v1.1) minor version down to v1.0, and re-encodes its T0 as a
// DateTime.ToBinary(Utc) value, to exercise Open's legacy decode path
// without needing a real v1.0 writer.
func rewriteAsLegacyUtc(t *testing.T, path string, t0 int64) {
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	nativeEngine := endian.NativeEngine()

	// header layout: magic(4) headerLength(4) recordSize(4) major(2) minor(2) ...
	const minorOffset = 14
	nativeEngine.PutUint16(data[minorOffset:minorOffset+2], 0)

	headerLen := nativeEngine.Uint32(data[4:8])

	// subheader: recordSize-echo(4) signature... Δ(8) T0(8)
	// T0 is the last 8 bytes of the fixed-size uniform subheader tail.
	t0Offset := int(headerLen) - 8
	legacy := uint64(t0) | uint64(1)<<62
	nativeEngine.PutUint64(data[t0Offset:t0Offset+8], legacy)

	require.NoError(t, os.WriteFile(path, data, 0o644))
}
