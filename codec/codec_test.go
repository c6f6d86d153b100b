package codec

import (
	"errors"
	"slices"
	"testing"

	"github.com/veltra/chronofile/errs"
	"github.com/stretchr/testify/require"
)

type sample struct {
	TS    int64
	Value float64
	Flag  uint64
}

func buildComposite() Field[sample] {
	return NewCompositeField[sample](
		NewTimestampField(
			func(s sample) int64 { return s.TS },
			func(s *sample, v int64) { s.TS = v },
		),
		NewMultipliedDeltaField(32, 10000, 1,
			func(s sample) float64 { return s.Value },
			func(s *sample, v float64) { s.Value = v },
		),
		NewPrimitiveField(8,
			func(s sample) uint64 { return s.Flag },
			func(s *sample, v uint64) { s.Flag = v },
		),
	)
}

func TestCompositeRoundTrip(t *testing.T) {
	items := []sample{
		{TS: 1_700_000_000_000, Value: 1.2345, Flag: 1},
		{TS: 1_700_000_000_100, Value: 1.2346, Flag: 0},
		{TS: 1_700_000_000_200, Value: 1.2300, Flag: 1},
	}

	enc := NewEncoder(buildComposite(), 4096)
	blocks, err := enc.EncodeAll(items)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	dec := NewDecoder(buildComposite())
	got, err := dec.DecodeBlock(blocks[0])
	require.NoError(t, err)
	require.Equal(t, items, got)
}

func TestMultipliedDeltaPrecisionLoss(t *testing.T) {
	lossy := NewMultipliedDeltaField(32, 1000, 1,
		func(s sample) float64 { return s.Value },
		func(s *sample, v float64) { s.Value = v },
	)

	_, err := lossy.Encode(sample{Value: 1.2345})
	require.True(t, errors.Is(err, errs.ErrCodecPrecisionLoss))

	exact := NewMultipliedDeltaField(32, 10000, 1,
		func(s sample) float64 { return s.Value },
		func(s *sample, v float64) { s.Value = v },
	)

	_, err = exact.Encode(sample{Value: 1.2345})
	require.NoError(t, err)
}

func TestPrecisionLossLeavesNoPartialState(t *testing.T) {
	lossyComposite := NewCompositeField[sample](
		NewTimestampField(
			func(s sample) int64 { return s.TS },
			func(s *sample, v int64) { s.TS = v },
		),
		NewMultipliedDeltaField(16, 10, 1, // 16-bit width overflows fast
			func(s sample) float64 { return s.Value },
			func(s *sample, v float64) { s.Value = v },
		),
	)

	_, err := lossyComposite.Encode(sample{TS: 100, Value: 1.5})
	require.NoError(t, err) // first item of this fresh field is fine
	lossyComposite.Advance(sample{TS: 100, Value: 1.5})

	_, err = lossyComposite.Encode(sample{TS: 200, Value: 1e9})
	require.True(t, errors.Is(err, errs.ErrCodecPrecisionLoss))

	// The failed item must not have advanced the TS member's delta state:
	// encoding the next good item should still produce a delta from TS=100,
	// not treat it as a fresh block-opening absolute value.
	again, err := lossyComposite.Encode(sample{TS: 105, Value: 2.0})
	require.NoError(t, err)

	fresh := NewCompositeField[sample](
		NewTimestampField(
			func(s sample) int64 { return s.TS },
			func(s *sample, v int64) { s.TS = v },
		),
		NewMultipliedDeltaField(16, 1, 1,
			func(s sample) float64 { return s.Value },
			func(s *sample, v float64) { s.Value = v },
		),
	)
	absolute, err := fresh.Encode(sample{TS: 105, Value: 2.0})
	require.NoError(t, err)

	require.NotEqual(t, absolute, again, "TS delta state must have survived the failed item")
}

func TestEncodeSplitsAcrossBlocksOnOverflow(t *testing.T) {
	items := make([]sample, 50)
	for i := range items {
		items[i] = sample{TS: int64(1000 + i), Value: float64(i) + 0.5, Flag: uint64(i % 2)}
	}

	// A tiny block size forces multiple blocks.
	enc := NewEncoder(buildComposite(), 24)
	blocks, err := enc.EncodeAll(items)
	require.NoError(t, err)
	require.Greater(t, len(blocks), 1)

	dec := NewDecoder(buildComposite())
	got := slices.Collect(dec.All(blocks))
	require.Equal(t, items, got)
}

func TestBlockTooSmallForOneItem(t *testing.T) {
	enc := NewEncoder(buildComposite(), 10)
	_, err := enc.EncodeAll([]sample{{TS: 1, Value: 1, Flag: 1}})
	require.True(t, errors.Is(err, errs.ErrCodecBlockFull))
}

func TestPrimitiveFieldRoundTrip(t *testing.T) {
	f := NewPrimitiveField(16,
		func(s sample) uint64 { return s.Flag },
		func(s *sample, v uint64) { s.Flag = v },
	)

	enc := NewEncoder(f, 4096)
	items := []sample{{Flag: 0xABCD}, {Flag: 0}, {Flag: 0xFFFF}}
	blocks, err := enc.EncodeAll(items)
	require.NoError(t, err)

	dec := NewDecoder(f)
	got, err := dec.DecodeBlock(blocks[0])
	require.NoError(t, err)

	for i, item := range items {
		require.Equal(t, item.Flag, got[i].Flag)
	}
}

func TestIntDeltaFieldWidthOverflow(t *testing.T) {
	f := NewIntDeltaField(8,
		func(s sample) int64 { return s.TS },
		func(s *sample, v int64) { s.TS = v },
	)

	_, err := f.Encode(sample{TS: 1000})
	require.True(t, errors.Is(err, errs.ErrCodecPrecisionLoss))
}
