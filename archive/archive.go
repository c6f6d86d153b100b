package archive

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/veltra/chronofile/endian"
	"github.com/veltra/chronofile/engine"
	"github.com/veltra/chronofile/errs"
	"github.com/veltra/chronofile/format"
)

// sidecarMagic tags a .cz file so Thaw can fail fast on a foreign file
// instead of handing a codec garbage.
const sidecarMagic uint32 = 0xC2A5C11E

// sidecarHeaderLen is magic(4) + compressionType(1) + originalSize(8).
const sidecarHeaderLen = 13

// WriteSidecar compresses data with compression and writes it, framed
// with a small fixed header, to path.
func WriteSidecar(path string, compression format.CompressionType, data []byte) error {
	codec, err := NewCodec(compression)
	if err != nil {
		return err
	}

	compressed, err := codec.Compress(data)
	if err != nil {
		return err
	}

	nativeEngine := endian.NativeEngine()

	buf := nativeEngine.AppendUint32(make([]byte, 0, sidecarHeaderLen+len(compressed)), sidecarMagic)
	buf = append(buf, byte(compression))
	buf = nativeEngine.AppendUint64(buf, uint64(len(data))) //nolint:gosec
	buf = append(buf, compressed...)

	return os.WriteFile(path, buf, 0o644)
}

// ReadSidecar reads a file written by WriteSidecar and returns its
// decompressed payload.
func ReadSidecar(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(buf) < sidecarHeaderLen {
		return nil, fmt.Errorf("%w: sidecar file shorter than header", errs.ErrShortTransfer)
	}

	nativeEngine := endian.NativeEngine()

	magic := nativeEngine.Uint32(buf[0:4])
	if magic != sidecarMagic {
		return nil, fmt.Errorf("%w: bad sidecar magic %#x", errs.ErrInvalidHeader, magic)
	}

	compression := format.CompressionType(buf[4])
	originalSize := nativeEngine.Uint64(buf[5:13])

	codec, err := NewCodec(compression)
	if err != nil {
		return nil, err
	}

	data, err := codec.Decompress(buf[sidecarHeaderLen:])
	if err != nil {
		return nil, err
	}

	if uint64(len(data)) != originalSize { //nolint:gosec
		return nil, fmt.Errorf("%w: sidecar decompressed to %d bytes, header promised %d", errs.ErrShortTransfer, len(data), originalSize)
	}

	return data, nil
}

// Freeze reads ordinals [lo, hi) from e, compresses the raw record
// bytes with compression, and writes the result to path as a sidecar
// file. It does not remove the records from e; callers that want to
// reclaim space call e.Truncate themselves once the sidecar is durable.
func Freeze[T any](e *engine.Engine[T], lo, hi int64, compression format.CompressionType, path string) error {
	if hi <= lo {
		return nil
	}

	items := make([]T, hi-lo)
	if err := e.ReadRange(lo, items); err != nil {
		return err
	}

	return WriteSidecar(path, compression, toBytes(items))
}

// Thaw reads a sidecar file written by Freeze and decodes it back into
// records of type T. The caller is responsible for ensuring the sidecar
// was actually written for this T; there is no signature check at this
// layer, unlike the live engine.Engine path.
func Thaw[T any](path string) ([]T, error) {
	data, err := ReadSidecar(path)
	if err != nil {
		return nil, err
	}

	var zero T

	size := int(unsafe.Sizeof(zero))
	if size == 0 || len(data)%size != 0 {
		return nil, fmt.Errorf("%w: sidecar payload of %d bytes is not a multiple of record size %d", errs.ErrRecordSizeChanged, len(data), size)
	}

	return fromBytes[T](data), nil
}

// Rewrite bulk-appends items to e's tail through the O_DIRECT-backed
// aligned-block path, for restoring a thawed range (or any other
// caller-prepared batch) without going through the small-write engine
// path one record at a time. bodyOffset must be a multiple of
// e.BlockSize(); the final partial block, if any, is zero-padded and
// then trimmed back off with Truncate so Count() reflects only real
// records.
func Rewrite[T any](e *engine.Engine[T], bodyOffset int64, items []T) error {
	blockSize := e.BlockSize()
	if blockSize == 0 {
		return fmt.Errorf("%w: engine has no direct writer", errs.ErrUseAfterDispose)
	}

	raw := toBytes(items)

	padded := len(raw)
	if rem := padded % blockSize; rem != 0 {
		padded += blockSize - rem
	}

	buf := make([]byte, padded)
	copy(buf, raw)

	if err := e.AppendAlignedBlock(bodyOffset, buf); err != nil {
		return err
	}

	if err := e.RefreshCount(); err != nil {
		return err
	}

	wantCount := bodyOffset/e.RecordSize() + int64(len(items))
	if wantCount < e.Count() {
		return e.Truncate(wantCount)
	}

	return nil
}

func toBytes[T any](items []T) []byte {
	if len(items) == 0 {
		return nil
	}

	var zero T

	size := int(unsafe.Sizeof(zero))

	return unsafe.Slice((*byte)(unsafe.Pointer(&items[0])), len(items)*size)
}

func fromBytes[T any](data []byte) []T {
	if len(data) == 0 {
		return nil
	}

	var zero T

	size := int(unsafe.Sizeof(zero))
	count := len(data) / size

	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), count)
}
