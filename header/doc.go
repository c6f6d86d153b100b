// Package header implements the file's fixed-offset prefix and its
// variable-length subheader framing (spec §6's on-disk format): magic
// signature, self-describing header length, record size, version, tag,
// and the fully-qualified type name of the record, followed by
// serializer-specific subheader bytes.
//
// It follows the teacher's section.NumericHeader Parse/Bytes shape —
// fixed fields read and written through an endian.EndianEngine — widened
// to carry variable-length tag and type-name strings ahead of a
// caller-framed subheader blob.
package header
