package archive

import (
	"fmt"

	"github.com/veltra/chronofile/format"
)

// Compressor compresses a byte payload produced by the engine's raw
// record I/O.
//
// Memory management: the returned slice is newly allocated and owned by
// the caller; the input slice is never modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. Sidecar files are written and read
// through a single Codec chosen by format.CompressionType.
type Codec interface {
	Compressor
	Decompressor
}

// NewCodec returns the built-in Codec for compressionType.
func NewCodec(compressionType format.CompressionType) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCodec(), nil
	case format.CompressionZstd:
		return NewZstdCodec(), nil
	case format.CompressionS2:
		return NewS2Codec(), nil
	case format.CompressionLZ4:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("archive: unsupported compression type %s", compressionType)
	}
}
