// Package codec implements the composable per-field encoder/decoder layer
// described by the file engine: primitive (raw byte-width) fields,
// multiplied-delta fields for scaled integers/fixed-point values, a
// timestamp specialization of multiplied-delta with M=1, and a composite
// that interleaves any number of member fields per item.
//
// A [Field] is built once per (open file × field) and reused across the
// whole encode or decode pass: it carries the running "previous value"
// state a delta codec needs, exactly the way the teacher's
// encoding.TimestampDeltaEncoder keeps prevTS/prevDelta across calls to
// Write. [Encoder] and [Decoder] drive a Field across the block boundary
// accounting (spec §4.C): a block holds a varint item count followed by
// the interleaved per-item field bytes, the first item absolute and the
// rest delta-encoded; a field that can't represent a value losslessly
// aborts the whole encode before any bytes are written, so no partial
// block state ever reaches the writer.
package codec
