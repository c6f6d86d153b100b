package engine

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"unsafe"

	"github.com/veltra/chronofile/endian"
	"github.com/veltra/chronofile/errs"
	"github.com/veltra/chronofile/header"
	"github.com/veltra/chronofile/internal/options"
	"github.com/veltra/chronofile/ioraw"
	"github.com/veltra/chronofile/recdesc"
	"github.com/veltra/chronofile/sig"
)

// State is a file handle's lifecycle position.
type State int

const (
	StateClosed State = iota
	StateInitialized
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateInitialized:
		return "initialized"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Mode selects the I/O path Open uses: ModeRead maps the body read-only
// through ioraw.MappedReader; ModeReadWrite opens a read-write handle
// that also supports AppendRange and Truncate.
type Mode int

const (
	ModeRead Mode = iota
	ModeReadWrite
)

// Engine is the common file engine shared by the uniform and indexed
// addressing models: header/signature handshake plus ranged raw record
// I/O. It does not interpret record bytes.
type Engine[T any] struct {
	state State
	mode  Mode
	path  string

	recordSize int64
	headerLen  int64
	count      int64

	header     header.Header
	descriptor recdesc.Descriptor[T]
	signature  sig.Signature

	endian endian.EndianEngine
	logger *slog.Logger

	file   *os.File
	direct *ioraw.DirectWriter
	mapped *ioraw.MappedReader
}

// RecordSize reports sizeof(T) in bytes, as persisted in the header.
func (e *Engine[T]) RecordSize() int64 { return e.recordSize }

// Count reports the current number of records in the body.
func (e *Engine[T]) Count() int64 { return e.count }

// State reports the handle's lifecycle position.
func (e *Engine[T]) State() State { return e.state }

// Version reports the on-disk layout version this handle was opened
// with (or, for Create, the version it was written with).
func (e *Engine[T]) Version() header.Version { return e.header.Version }

// Subheader returns a copy of the raw serializer-specific bytes following
// the signature, for the uniform/indexed layers to parse their own
// addressing parameters from (T0/Δ, etc.). It is always a fresh copy, not
// a view into the header as held internally, so a caller that mutates the
// returned slice can never corrupt the handle's own state.
func (e *Engine[T]) Subheader() []byte {
	return append([]byte(nil), e.header.Subheader...)
}

// BlockSize reports the direct-I/O alignment AppendAlignedBlock requires,
// or 0 if this handle has no direct writer (opened read-only).
func (e *Engine[T]) BlockSize() int {
	if e.direct == nil {
		return 0
	}

	return e.direct.BlockSize()
}

func buildSubheader[T any](desc recdesc.Descriptor[T], recordSize int64, nativeEngine endian.EndianEngine, extra []byte) ([]byte, sig.Signature) {
	signature := sig.Build(desc)

	buf := nativeEngine.AppendUint32(nil, uint32(recordSize)) //nolint:gosec
	buf = signature.AppendBinary(buf, nativeEngine)
	buf = append(buf, extra...)

	return buf, signature
}

func parseSubheader(sub []byte, nativeEngine endian.EndianEngine) (recordSizeEcho int64, signature sig.Signature, rest []byte, err error) {
	if len(sub) < 4 {
		return 0, sig.Signature{}, nil, fmt.Errorf("%w: subheader truncated", errs.ErrShortTransfer)
	}

	recordSizeEcho = int64(nativeEngine.Uint32(sub[0:4]))

	signature, n, err := sig.Parse(sub[4:], nativeEngine)
	if err != nil {
		return 0, sig.Signature{}, nil, err
	}

	return recordSizeEcho, signature, sub[4+n:], nil
}

// Create makes a new file at path with the given record descriptor, tag,
// and any serializer-specific extra subheader bytes (uniform/indexed
// addressing parameters), and opens it for read-write use.
func Create[T any](path string, desc recdesc.Descriptor[T], tag string, extraSubheader []byte, opts ...Option) (*Engine[T], error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	cfg := newConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	var zero T
	recordSize := int64(unsafe.Sizeof(zero))

	nativeEngine := endian.NativeEngine()
	subheader, signature := buildSubheader(desc, recordSize, nativeEngine, extraSubheader)

	h := header.Header{
		RecordSize: int32(recordSize), //nolint:gosec
		Version:    header.CurrentVersion,
		Tag:        tag,
		TypeName:   desc.Name,
		Subheader:  subheader,
	}

	buf := h.AppendBinary(nil, nativeEngine)

	// Keep only the bytes following the signature, as Open does.
	h.Subheader = extraSubheader

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("engine: create %s: %w", path, err)
	}

	if _, err := f.Write(buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: writing header: %v", errs.ErrShortTransfer, err)
	}

	direct, err := ioraw.OpenDirect(path)
	if err != nil {
		f.Close()
		return nil, err
	}

	cfg.logger.Debug("chronofile: created file", "path", path, "recordSize", recordSize)

	return &Engine[T]{
		state:      StateInitialized,
		mode:       ModeReadWrite,
		path:       path,
		recordSize: recordSize,
		headerLen:  int64(len(buf)),
		count:      0,
		header:     h,
		descriptor: desc,
		signature:  signature,
		endian:     nativeEngine,
		logger:     cfg.logger,
		file:       f,
		direct:     direct,
	}, nil
}

// Open opens an existing file for reading (ModeRead, memory-mapped) or
// reading and writing (ModeReadWrite: buffered reads and writes through
// an *os.File, plus the direct writer AppendAlignedBlock uses). If desc's structural
// signature doesn't match the one persisted in the file, it fails with
// errs.ErrTypeMapRequired unless a WithTypeMap option resolves the
// mismatch (in which case the remap is logged and Open proceeds), or
// errs.ErrSignatureMismatch if the mismatch survives the type map. It
// also fails with errs.ErrRecordSizeChanged if the body isn't an exact
// multiple of sizeof(T).
func Open[T any](path string, mode Mode, desc recdesc.Descriptor[T], opts ...Option) (*Engine[T], error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	cfg := newConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	nativeEngine := endian.NativeEngine()

	f, err := os.OpenFile(path, fileFlagFor(mode), 0)
	if err != nil {
		return nil, fmt.Errorf("engine: open %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	peekLen := stat.Size()
	if peekLen > 1<<16 {
		peekLen = 1 << 16
	}

	peek := make([]byte, peekLen)
	if _, err := f.ReadAt(peek, 0); err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("%w: reading header: %v", errs.ErrShortTransfer, err)
	}

	h, headerLen, err := header.Parse(peek, nativeEngine)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := header.CheckCompatible(h.Version); err != nil {
		f.Close()
		return nil, err
	}

	var zero T
	recordSize := int64(unsafe.Sizeof(zero))

	if int64(h.RecordSize) != recordSize {
		f.Close()
		return nil, fmt.Errorf("%w: file record size %d, type %T is %d bytes", errs.ErrRecordSizeChanged, h.RecordSize, zero, recordSize)
	}

	recordSizeEcho, signature, rest, err := parseSubheader(h.Subheader, nativeEngine)
	if err != nil {
		f.Close()
		return nil, err
	}

	if recordSizeEcho != recordSize {
		f.Close()
		return nil, fmt.Errorf("%w: subheader record size echo %d disagrees with header %d", errs.ErrRecordSizeChanged, recordSizeEcho, recordSize)
	}

	expected := sig.Build(desc)
	if !expected.Equal(signature) {
		if len(cfg.typeMap) == 0 {
			f.Close()
			return nil, fmt.Errorf("%w: persisted type signature disagrees with %s", errs.ErrTypeMapRequired, desc.Name)
		}

		remapped := signature.Remap(cfg.typeMap)
		if !expected.Equal(remapped) {
			f.Close()
			return nil, fmt.Errorf("%w: persisted type signature disagrees with %s even after type map", errs.ErrSignatureMismatch, desc.Name)
		}

		cfg.logger.Debug("chronofile: signature remapped via type map", "path", path, "type", desc.Name)
		signature = remapped
	}

	bodyLen := stat.Size() - int64(headerLen)
	if bodyLen%recordSize != 0 {
		f.Close()
		return nil, fmt.Errorf("%w: body length %d not a multiple of record size %d", errs.ErrRecordSizeChanged, bodyLen, recordSize)
	}

	h.Subheader = rest
	count := bodyLen / recordSize

	e := &Engine[T]{
		state:      StateInitialized,
		mode:       mode,
		path:       path,
		recordSize: recordSize,
		headerLen:  int64(headerLen),
		count:      count,
		header:     h,
		descriptor: desc,
		signature:  signature,
		endian:     nativeEngine,
		logger:     cfg.logger,
	}

	if mode == ModeRead {
		f.Close()

		mapped, err := ioraw.OpenMapped(path)
		if err != nil {
			return nil, err
		}

		e.mapped = mapped

		return e, nil
	}

	direct, err := ioraw.OpenDirect(path)
	if err != nil {
		f.Close()
		return nil, err
	}

	e.file = f
	e.direct = direct

	return e, nil
}

func fileFlagFor(mode Mode) int {
	if mode == ModeReadWrite {
		return os.O_RDWR
	}

	return os.O_RDONLY
}

func (e *Engine[T]) checkAlive() error {
	if e.state != StateInitialized {
		return fmt.Errorf("%w: engine state is %s", errs.ErrUseAfterDispose, e.state)
	}

	return nil
}

// ReadRange fills buf with records starting at firstOrdinal. len(buf)
// must fit within [0, Count()).
func (e *Engine[T]) ReadRange(firstOrdinal int64, buf []T) error {
	if err := e.checkAlive(); err != nil {
		return err
	}

	if len(buf) == 0 {
		return nil
	}

	if firstOrdinal < 0 || firstOrdinal+int64(len(buf)) > e.count {
		return fmt.Errorf("%w: range [%d, %d) outside [0, %d)", errs.ErrOutOfRange, firstOrdinal, firstOrdinal+int64(len(buf)), e.count)
	}

	raw := asBytes(buf)
	byteOff := e.headerLen + firstOrdinal*e.recordSize

	var n int
	var err error

	if e.mapped != nil {
		n, err = e.mapped.ReadAt(raw, byteOff)
	} else {
		n, err = e.file.ReadAt(raw, byteOff)
	}

	if err != nil && err != io.EOF {
		e.dispose()
		return fmt.Errorf("%w: %v", errs.ErrShortTransfer, err)
	}

	if n < len(raw) {
		e.dispose()
		return fmt.Errorf("%w: read %d of %d bytes", errs.ErrShortTransfer, n, len(raw))
	}

	return nil
}

// AppendRange writes buf starting at firstOrdinal, which must be
// non-negative; writing at or before Count() overwrites the existing
// tail, writing past it extends the file, leaving the skipped ordinals
// as whatever zero-initialized bytes the underlying sparse extension
// produces (no explicit gap-fill). The uniform and indexed layers
// enforce their own stricter append-order rules before calling this.
func (e *Engine[T]) AppendRange(firstOrdinal int64, buf []T) error {
	if err := e.checkAlive(); err != nil {
		return err
	}

	if e.file == nil {
		return fmt.Errorf("%w: engine opened read-only", errs.ErrUseAfterDispose)
	}

	if len(buf) == 0 {
		return nil
	}

	if firstOrdinal < 0 {
		return fmt.Errorf("%w: append ordinal %d is negative", errs.ErrOutOfRange, firstOrdinal)
	}

	raw := asBytes(buf)
	byteOff := e.headerLen + firstOrdinal*e.recordSize

	n, err := e.file.WriteAt(raw, byteOff)
	if err != nil {
		e.dispose()
		return fmt.Errorf("%w: %v", errs.ErrShortTransfer, err)
	}

	if n < len(raw) {
		e.dispose()
		return fmt.Errorf("%w: wrote %d of %d bytes", errs.ErrShortTransfer, n, len(raw))
	}

	if newCount := firstOrdinal + int64(len(buf)); newCount > e.count {
		e.count = newCount
	}

	return nil
}

// AppendAlignedBlock is the O_DIRECT fast path: it writes data, which
// must already be a multiple of the host's direct-I/O block size, at a
// block-aligned byte offset relative to the body start. Callers (the
// archive package's bulk rewrite, or a batch-append helper) are
// responsible for padding the final partial block themselves; this
// bypasses the page cache entirely when the file supports O_DIRECT.
func (e *Engine[T]) AppendAlignedBlock(bodyOffset int64, data []byte) error {
	if err := e.checkAlive(); err != nil {
		return err
	}

	if e.direct == nil {
		return fmt.Errorf("%w: engine opened read-only", errs.ErrUseAfterDispose)
	}

	n, err := e.direct.WriteAt(data, e.headerLen+bodyOffset)
	if err != nil {
		return err
	}

	if n < len(data) {
		return fmt.Errorf("%w: wrote %d of %d bytes", errs.ErrShortTransfer, n, len(data))
	}

	return nil
}

// Truncate shrinks the body to newCount records, failing with
// errs.ErrTruncateGrow if newCount exceeds the current count.
func (e *Engine[T]) Truncate(newCount int64) error {
	if err := e.checkAlive(); err != nil {
		return err
	}

	if e.file == nil {
		return fmt.Errorf("%w: engine opened read-only", errs.ErrUseAfterDispose)
	}

	if newCount > e.count {
		return fmt.Errorf("%w: truncate target %d exceeds current count %d", errs.ErrTruncateGrow, newCount, e.count)
	}

	if newCount < 0 {
		newCount = 0
	}

	if err := e.file.Truncate(e.headerLen + newCount*e.recordSize); err != nil {
		e.dispose()
		return err
	}

	e.count = newCount

	return nil
}

// RefreshCount recomputes Count() from the on-disk file size, for
// callers that extended the body through a path other than AppendRange
// (AppendAlignedBlock's bulk O_DIRECT writes land on a separate file
// descriptor and don't update Count() themselves).
func (e *Engine[T]) RefreshCount() error {
	if err := e.checkAlive(); err != nil {
		return err
	}

	if e.file == nil {
		return fmt.Errorf("%w: engine opened read-only", errs.ErrUseAfterDispose)
	}

	stat, err := e.file.Stat()
	if err != nil {
		return err
	}

	bodyLen := stat.Size() - e.headerLen
	if bodyLen%e.recordSize != 0 {
		return fmt.Errorf("%w: body length %d not a multiple of record size %d", errs.ErrRecordSizeChanged, bodyLen, e.recordSize)
	}

	e.count = bodyLen / e.recordSize

	return nil
}

func (e *Engine[T]) dispose() {
	e.state = StateDisposed
}

// Close flushes OS buffers and releases the handle's resources.
// Double-close is a no-op.
func (e *Engine[T]) Close() error {
	if e.state == StateClosed {
		return nil
	}

	e.state = StateClosed

	var errClose error

	if e.direct != nil {
		if err := e.direct.Sync(); err != nil {
			errClose = err
		}

		if err := e.direct.Close(); err != nil && errClose == nil {
			errClose = err
		}
	}

	if e.file != nil {
		if err := e.file.Close(); err != nil && errClose == nil {
			errClose = err
		}
	}

	if e.mapped != nil {
		if err := e.mapped.Close(); err != nil && errClose == nil {
			errClose = err
		}
	}

	return errClose
}

func asBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}

	var zero T
	size := int(unsafe.Sizeof(zero))

	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size)
}
