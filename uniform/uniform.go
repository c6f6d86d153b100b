package uniform

import (
	"fmt"
	"math"

	"github.com/veltra/chronofile/endian"
	"github.com/veltra/chronofile/engine"
	"github.com/veltra/chronofile/errs"
	"github.com/veltra/chronofile/recdesc"
)

// TicksPerSecond is the number of ticks (100ns units) in one second.
const TicksPerSecond = 10_000_000

// TicksPerDay is the number of ticks in one day.
const TicksPerDay = TicksPerSecond * 86400

// dateTimeKindMask isolates the DateTime.ToBinary() Kind bits a legacy
// (v1.0) writer ORs into the top of the 64-bit tick value; masking them
// off recovers the plain tick count.
const dateTimeKindMask = int64(1) << 62

// dateTimeKindSignBit is dateTimeKindMask<<1 (bit 63); expressed as
// math.MinInt64 because the shifted value, as a positive number,
// doesn't fit in a typed int64 constant expression (it has the same
// bit pattern as the sign bit).
const dateTimeKindSignBit = int64(math.MinInt64)

func decodeLegacyTicks(raw int64) int64 {
	return raw &^ dateTimeKindMask &^ dateTimeKindSignBit
}

// File addresses an engine.Engine's records by uniform time stepping:
// item N sits at T0 + N*Δ. It holds no handle of its own — everything
// not specific to timestamp translation is delegated to Engine.
type File[T any] struct {
	*engine.Engine[T]

	t0    int64
	delta int64
}

func validateParams(t0, delta int64) error {
	if delta <= 0 {
		return fmt.Errorf("%w: step interval must be positive, got %d", errs.ErrInvalidDescriptor, delta)
	}

	if delta > TicksPerDay {
		return fmt.Errorf("%w: step interval %d exceeds one day", errs.ErrInvalidDescriptor, delta)
	}

	if TicksPerDay%delta != 0 {
		return fmt.Errorf("%w: step interval %d does not divide evenly into one day", errs.ErrInvalidDescriptor, delta)
	}

	if t0%delta != 0 {
		return fmt.Errorf("%w: first timestamp %d is not aligned to step interval %d", errs.ErrIndexMisaligned, t0, delta)
	}

	return nil
}

func buildSubheaderCurrent(t0, delta int64, nativeEngine endian.EndianEngine) []byte {
	buf := nativeEngine.AppendUint64(nil, uint64(delta)) //nolint:gosec
	buf = nativeEngine.AppendUint64(buf, uint64(t0))     //nolint:gosec

	return buf
}

// Create makes a new uniform file with the given first timestamp and step
// interval, both expressed in ticks (100ns units since the epoch).
func Create[T any](path string, desc recdesc.Descriptor[T], tag string, t0, delta int64, opts ...engine.Option) (*File[T], error) {
	if err := validateParams(t0, delta); err != nil {
		return nil, err
	}

	nativeEngine := endian.NativeEngine()
	extra := buildSubheaderCurrent(t0, delta, nativeEngine)

	e, err := engine.Create(path, desc, tag, extra, opts...)
	if err != nil {
		return nil, err
	}

	return &File[T]{Engine: e, t0: t0, delta: delta}, nil
}

// Open opens an existing uniform file, decoding its T0/Δ subheader
// according to the on-disk version: current files store both as 64-bit
// tick counts, legacy (v1.0) files store T0 as a DateTime.ToBinary()
// value.
func Open[T any](path string, mode engine.Mode, desc recdesc.Descriptor[T], opts ...engine.Option) (*File[T], error) {
	e, err := engine.Open(path, mode, desc, opts...)
	if err != nil {
		return nil, err
	}

	sub := e.Subheader()
	if len(sub) < 16 {
		e.Close()
		return nil, fmt.Errorf("%w: uniform subheader truncated", errs.ErrShortTransfer)
	}

	nativeEngine := endian.NativeEngine()

	delta := int64(nativeEngine.Uint64(sub[0:8])) //nolint:gosec

	var t0 int64

	if e.Version().Minor == 0 {
		raw := int64(nativeEngine.Uint64(sub[8:16])) //nolint:gosec
		t0 = decodeLegacyTicks(raw)
	} else {
		t0 = int64(nativeEngine.Uint64(sub[8:16])) //nolint:gosec
	}

	return &File[T]{Engine: e, t0: t0, delta: delta}, nil
}

// T0 reports the timestamp, in ticks, of ordinal 0.
func (f *File[T]) T0() int64 { return f.t0 }

// Delta reports the step interval, in ticks, between consecutive items.
func (f *File[T]) Delta() int64 { return f.delta }

// IndexToOrdinal converts a timestamp to its record ordinal, failing with
// errs.ErrIndexMisaligned if t does not fall on a Δ boundary.
func (f *File[T]) IndexToOrdinal(t int64) (int64, error) {
	offset := t - f.t0
	if offset%f.delta != 0 {
		return 0, fmt.Errorf("%w: timestamp %d is not aligned to T0=%d, Δ=%d", errs.ErrIndexMisaligned, t, f.t0, f.delta)
	}

	return offset / f.delta, nil
}

// OrdinalToIndex converts a record ordinal to its timestamp.
func (f *File[T]) OrdinalToIndex(n int64) int64 {
	return f.t0 + n*f.delta
}

// FirstUnavailableTimestamp is the timestamp one step past the last
// record currently in the file.
func (f *File[T]) FirstUnavailableTimestamp() int64 {
	return f.t0 + f.Count()*f.delta
}

// ResolveRange adjusts [fromInclusive, toExclusive) to the ordinal range
// actually available: each bound rounds up to the next Δ boundary, then
// the result clips to [T0, firstUnavailableTimestamp). It returns length
// 0 (ignore firstOrdinal) if the clipped range is empty or its length
// would overflow an int32; callers hitting that case should stream the
// range instead of reading it in one call.
func (f *File[T]) ResolveRange(fromInclusive, toExclusive int64) (firstOrdinal int64, length int64) {
	lo := ceilToStep(fromInclusive, f.t0, f.delta)
	hi := ceilToStep(toExclusive, f.t0, f.delta)

	first := f.t0
	last := f.FirstUnavailableTimestamp()

	if lo < first {
		lo = first
	}

	if hi > last {
		hi = last
	}

	if hi <= lo {
		return 0, 0
	}

	n := (hi - lo) / f.delta
	if n > math.MaxInt32 {
		return 0, 0
	}

	firstOrdinal, err := f.IndexToOrdinal(lo)
	if err != nil {
		return 0, 0
	}

	return firstOrdinal, n
}

// ceilToStep rounds t up to the next timestamp congruent to t0 modulo
// delta.
func ceilToStep(t, t0, delta int64) int64 {
	offset := t - t0
	if offset <= 0 {
		rem := offset % delta
		if rem != 0 {
			offset -= rem
		}

		return t0 + offset
	}

	rem := offset % delta
	if rem == 0 {
		return t
	}

	return t0 + offset + (delta - rem)
}

// AppendRange writes buf starting at the record whose timestamp is
// firstTimestamp, which must land on a Δ boundary. As with the common
// engine, firstTimestamp may address an ordinal at or before Count(),
// overwriting the existing tail; writing past it extends the file.
func (f *File[T]) AppendRange(firstTimestamp int64, buf []T) error {
	firstOrdinal, err := f.IndexToOrdinal(firstTimestamp)
	if err != nil {
		return err
	}

	return f.Engine.AppendRange(firstOrdinal, buf)
}

// ReadTimeRange resolves [fromInclusive, toExclusive) and reads the
// result into buf, which must be exactly the resolved length; it returns
// the number of records actually resolved (and read).
func (f *File[T]) ReadTimeRange(fromInclusive, toExclusive int64, buf []T) (int64, error) {
	firstOrdinal, length := f.ResolveRange(fromInclusive, toExclusive)
	if length == 0 {
		return 0, nil
	}

	if int64(len(buf)) != length {
		return 0, fmt.Errorf("%w: resolved range has %d records, buffer has %d", errs.ErrOutOfRange, length, len(buf))
	}

	if err := f.Engine.ReadRange(firstOrdinal, buf); err != nil {
		return 0, err
	}

	return length, nil
}
