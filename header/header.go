package header

import (
	"fmt"

	"github.com/veltra/chronofile/endian"
	"github.com/veltra/chronofile/errs"
	"github.com/veltra/chronofile/internal/varstring"
)

// Magic is the fixed 4-byte signature at offset 0 of every file this
// package writes.
const Magic uint32 = 0xBF71C80A

// MinHeaderLength is the smallest legal headerLength value: magic (4) +
// headerLength (4) + recordSize (4) + versionMajor (2) + versionMinor (2)
// + two empty varstrings (1+1), rounded up to the spec's stated floor.
const MinHeaderLength = 32

// Version identifies the on-disk subheader layout.
type Version struct {
	Major int16
	Minor int16
}

// CurrentVersion is written by every new file this package creates.
var CurrentVersion = Version{Major: 1, Minor: 1}

// LegacyVersion is the v1.0 layout this package still reads: its uniform
// subheader stores T0 as a DateTime.ToBinary()-style int64 rather than a
// plain tick count.
var LegacyVersion = Version{Major: 1, Minor: 0}

// CheckCompatible reports errs.ErrVersionIncompatible if v's major
// version isn't one this package knows how to read.
func CheckCompatible(v Version) error {
	if v.Major != CurrentVersion.Major {
		return fmt.Errorf("%w: file version %d.%d, this module reads major version %d",
			errs.ErrVersionIncompatible, v.Major, v.Minor, CurrentVersion.Major)
	}

	return nil
}

// Header is the file's fixed prefix plus variable-length tag, type name,
// and an opaque, serializer-specific subheader blob.
type Header struct {
	RecordSize int32
	Version    Version
	Tag        string
	TypeName   string
	Subheader  []byte
}

// AppendBinary appends h's on-disk encoding to buf and returns the
// extended slice. The headerLength field is computed and patched in
// after the full prefix is known. An encoding shorter than
// MinHeaderLength is zero-padded up to it; Parse returns that padding as
// trailing Subheader bytes.
func (h Header) AppendBinary(buf []byte, engine endian.EndianEngine) []byte {
	start := len(buf)

	buf = engine.AppendUint32(buf, Magic)
	lengthPos := len(buf)
	buf = engine.AppendUint32(buf, 0) // patched below
	buf = engine.AppendUint32(buf, uint32(h.RecordSize)) //nolint:gosec
	buf = engine.AppendUint16(buf, uint16(h.Version.Major))
	buf = engine.AppendUint16(buf, uint16(h.Version.Minor))
	buf = varstring.Append(buf, h.Tag)
	buf = varstring.Append(buf, h.TypeName)
	buf = append(buf, h.Subheader...)

	for len(buf)-start < MinHeaderLength {
		buf = append(buf, 0)
	}

	headerLen := len(buf) - start
	engine.PutUint32(buf[lengthPos:], uint32(headerLen)) //nolint:gosec

	return buf
}

// Parse decodes a Header from the start of buf, returning it and the
// number of bytes its headerLength field claims (the offset of the file
// body).
func Parse(buf []byte, engine endian.EndianEngine) (Header, int, error) {
	if len(buf) < MinHeaderLength {
		return Header{}, 0, fmt.Errorf("%w: buffer shorter than minimum header", errs.ErrShortTransfer)
	}

	magic := engine.Uint32(buf[0:4])
	if magic != Magic {
		return Header{}, 0, fmt.Errorf("%w: bad magic %#x", errs.ErrInvalidHeader, magic)
	}

	headerLen := int(engine.Uint32(buf[4:8]))
	if headerLen < MinHeaderLength {
		return Header{}, 0, fmt.Errorf("%w: headerLength %d below minimum %d", errs.ErrInvalidHeader, headerLen, MinHeaderLength)
	}

	if len(buf) < headerLen {
		return Header{}, 0, fmt.Errorf("%w: buffer shorter than declared headerLength", errs.ErrShortTransfer)
	}

	recordSize := int32(engine.Uint32(buf[8:12])) //nolint:gosec
	major := int16(engine.Uint16(buf[12:14]))     //nolint:gosec
	minor := int16(engine.Uint16(buf[14:16]))     //nolint:gosec

	off := 16

	tag, n, err := varstring.Read(buf[off:headerLen])
	if err != nil {
		return Header{}, 0, err
	}
	off += n

	typeName, n, err := varstring.Read(buf[off:headerLen])
	if err != nil {
		return Header{}, 0, err
	}
	off += n

	subheader := buf[off:headerLen]

	h := Header{
		RecordSize: recordSize,
		Version:    Version{Major: major, Minor: minor},
		Tag:        tag,
		TypeName:   typeName,
		Subheader:  subheader,
	}

	return h, headerLen, nil
}
