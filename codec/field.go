package codec

import (
	"fmt"
	"math"

	"github.com/veltra/chronofile/bitstream"
	"github.com/veltra/chronofile/errs"
	"github.com/veltra/chronofile/internal/scratch"
)

// Field is one member of a record's field-composite codec. It is built
// once and reused across an entire block sequence, carrying whatever
// delta state its kind needs between items.
//
// Encode must not mutate that state and must not write anything to a
// Writer: it only reports the bytes this field would contribute for rec,
// or a precision-loss error. The caller decides whether those bytes fit
// the current block and, if so, writes them and calls Advance to commit
// the state change. This two-phase shape is what keeps a failed item from
// ever leaving partial state in a block (spec testable property 6).
type Field[T any] interface {
	Encode(rec T) ([]byte, error)
	Advance(rec T)
	Decode(r *bitstream.Reader, rec *T) error
	Reset()
	Kind() Kind
}

func widthFits(v int64, width int) bool {
	if width <= 0 || width >= 64 {
		return true
	}

	lo := int64(-1) << (width - 1)
	hi := -lo - 1

	return v >= lo && v <= hi
}

// primitiveField stores the raw byte-width value every item, with no
// delta encoding. width must be a multiple of 8 (byte-aligned), matching
// the "Primitive byte" field kind.
type primitiveField[T any] struct {
	width int
	get   func(T) uint64
	set   func(*T, uint64)
}

// NewPrimitiveField builds a Field that stores get(rec) verbatim in
// widthBits bits (a multiple of 8) every item, with no delta.
func NewPrimitiveField[T any](widthBits int, get func(T) uint64, set func(*T, uint64)) Field[T] {
	return &primitiveField[T]{width: widthBits, get: get, set: set}
}

func (f *primitiveField[T]) Encode(rec T) ([]byte, error) {
	buf := make([]byte, f.width/8)
	w := bitstream.NewWriter(buf)
	if err := w.WriteBits(f.get(rec), f.width); err != nil {
		return nil, err
	}

	return buf, nil
}

func (f *primitiveField[T]) Advance(T) {}

func (f *primitiveField[T]) Decode(r *bitstream.Reader, rec *T) error {
	v, err := r.ReadBits(f.width)
	if err != nil {
		return err
	}

	f.set(rec, v)

	return nil
}

func (f *primitiveField[T]) Reset() {}

func (f *primitiveField[T]) Kind() Kind { return KindPrimitive }

// intDeltaField stores the first item of a block in full and every
// subsequent item as a signed-varint delta from the previous value. It is
// also how Timestamp is built: M=1 degenerates MultipliedDelta to plain
// integer delta, so there's no float round trip for large tick values.
type intDeltaField[T any] struct {
	width   int
	kind    Kind
	get     func(T) int64
	set     func(*T, int64)
	prev    int64
	hasPrev bool

	pendingValue   int64
	pendingIsDelta bool
}

// NewIntDeltaField builds a Field that delta-encodes get(rec) as a signed
// integer, failing with errs.ErrCodecPrecisionLoss if a value doesn't fit
// widthBits (0 means unbounded, i.e. a full int64).
func NewIntDeltaField[T any](widthBits int, get func(T) int64, set func(*T, int64)) Field[T] {
	return &intDeltaField[T]{width: widthBits, kind: KindMultipliedDelta, get: get, set: set}
}

// NewTimestampField is NewIntDeltaField specialized to the unbounded
// 64-bit tick count the Timestamp field kind stores (multiplied-delta
// with M=1, D=1).
func NewTimestampField[T any](get func(T) int64, set func(*T, int64)) Field[T] {
	return &intDeltaField[T]{width: 0, kind: KindTimestamp, get: get, set: set}
}

func (f *intDeltaField[T]) Encode(rec T) ([]byte, error) {
	v := f.get(rec)
	if !widthFits(v, f.width) {
		return nil, fmt.Errorf("%w: value %d does not fit %d-bit field", errs.ErrCodecPrecisionLoss, v, f.width)
	}

	payload := v
	if f.hasPrev {
		payload = v - f.prev
	}

	buf := make([]byte, maxVarintLen)
	w := bitstream.NewWriter(buf)
	if err := w.WriteSignedVarint(payload); err != nil {
		return nil, err
	}

	f.pendingValue = v
	f.pendingIsDelta = f.hasPrev

	return buf[:w.FinishBlock()], nil
}

func (f *intDeltaField[T]) Advance(T) {
	f.prev = f.pendingValue
	f.hasPrev = true
}

func (f *intDeltaField[T]) Decode(r *bitstream.Reader, rec *T) error {
	raw, err := r.ReadSignedVarint()
	if err != nil {
		return err
	}

	v := raw
	if f.hasPrev {
		v = f.prev + raw
	}

	f.prev = v
	f.hasPrev = true
	f.set(rec, v)

	return nil
}

func (f *intDeltaField[T]) Reset() {
	f.hasPrev = false
	f.prev = 0
}

func (f *intDeltaField[T]) Kind() Kind { return f.kind }

// multipliedDeltaField maps a float64 record field onto the integer delta
// domain via round(value*M/D), the way spec §4.C describes MultipliedDelta.
// A value survives iff that mapping round-trips exactly and the mapped
// integer fits width bits; otherwise Encode reports precision loss and
// leaves all state untouched.
type multipliedDeltaField[T any] struct {
	width      int
	multiplier float64
	divisor    float64
	get        func(T) float64
	set        func(*T, float64)
	prev       int64
	hasPrev    bool

	pendingValue int64
}

// NewMultipliedDeltaField builds a Field that stores get(rec) scaled by
// multiplier/divisor, delta-encoded as an integer of widthBits bits (0 for
// unbounded).
func NewMultipliedDeltaField[T any](widthBits int, multiplier, divisor float64, get func(T) float64, set func(*T, float64)) Field[T] {
	if divisor == 0 {
		divisor = 1
	}

	return &multipliedDeltaField[T]{width: widthBits, multiplier: multiplier, divisor: divisor, get: get, set: set}
}

func (f *multipliedDeltaField[T]) scale() float64 { return f.multiplier / f.divisor }

func (f *multipliedDeltaField[T]) Encode(rec T) ([]byte, error) {
	value := f.get(rec)
	s := f.scale()

	scaled := math.Round(value * s)
	if !widthFits(int64(scaled), f.width) {
		return nil, fmt.Errorf("%w: scaled value %v does not fit %d-bit field", errs.ErrCodecPrecisionLoss, scaled, f.width)
	}

	reconstructed := scaled / s
	if reconstructed != value {
		return nil, fmt.Errorf("%w: %v does not round-trip through M/D=%v", errs.ErrCodecPrecisionLoss, value, s)
	}

	iv := int64(scaled)
	payload := iv
	if f.hasPrev {
		payload = iv - f.prev
	}

	buf := make([]byte, maxVarintLen)
	w := bitstream.NewWriter(buf)
	if err := w.WriteSignedVarint(payload); err != nil {
		return nil, err
	}

	f.pendingValue = iv

	return buf[:w.FinishBlock()], nil
}

func (f *multipliedDeltaField[T]) Advance(T) {
	f.prev = f.pendingValue
	f.hasPrev = true
}

func (f *multipliedDeltaField[T]) Decode(r *bitstream.Reader, rec *T) error {
	raw, err := r.ReadSignedVarint()
	if err != nil {
		return err
	}

	iv := raw
	if f.hasPrev {
		iv = f.prev + raw
	}

	f.prev = iv
	f.hasPrev = true
	f.set(rec, float64(iv)/f.scale())

	return nil
}

func (f *multipliedDeltaField[T]) Reset() {
	f.hasPrev = false
	f.prev = 0
}

func (f *multipliedDeltaField[T]) Kind() Kind { return KindMultipliedDelta }

// compositeField interleaves member fields in declared order: Encode
// succeeds only if every member succeeds, and it runs every member before
// committing any of their state, so a mid-item failure leaves the whole
// item's worth of state exactly as it was before the call.
//
// Encode's output accumulates in a reused scratch.Buffer rather than a
// fresh slice per item: the caller (codec.Encoder) always copies the
// returned bytes into the block's bit stream before encoding the next
// item, so reusing the backing array between calls is safe.
type compositeField[T any] struct {
	members []Field[T]
	buf     *scratch.Buffer
}

// NewCompositeField builds a Field that writes each member, in order, for
// every item.
func NewCompositeField[T any](members ...Field[T]) Field[T] {
	return &compositeField[T]{members: members, buf: scratch.NewBuffer(scratch.BlockBufferDefaultSize)}
}

func (f *compositeField[T]) Encode(rec T) ([]byte, error) {
	f.buf.Reset()

	for _, m := range f.members {
		b, err := m.Encode(rec)
		if err != nil {
			return nil, err
		}

		f.buf.Grow(len(b))
		f.buf.MustWrite(b)
	}

	return f.buf.Bytes(), nil
}

func (f *compositeField[T]) Advance(rec T) {
	for _, m := range f.members {
		m.Advance(rec)
	}
}

func (f *compositeField[T]) Decode(r *bitstream.Reader, rec *T) error {
	for _, m := range f.members {
		if err := m.Decode(r, rec); err != nil {
			return err
		}
	}

	return nil
}

func (f *compositeField[T]) Reset() {
	for _, m := range f.members {
		m.Reset()
	}
}

func (f *compositeField[T]) Kind() Kind { return KindComposite }

const maxVarintLen = 10
