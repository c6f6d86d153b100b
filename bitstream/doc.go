// Package bitstream implements the packed variable-length integer
// reader/writer the codec layer builds its encoders on top of: a byte
// block with a bit cursor, fixed-width bit packing, and ZigZag + varint
// signed integers, bounded by a caller-declared block length.
//
// The varint and ZigZag scheme mirrors the one the teacher's
// encoding.TimestampDeltaEncoder uses for timestamp deltas
// (encoding/binary.PutUvarint over a ZigZag-mapped value); this package
// generalizes it to arbitrary bit widths and gives it an explicit block
// boundary so the codec layer can detect "no room left in this block"
// without an allocation-driven slice append.
package bitstream
