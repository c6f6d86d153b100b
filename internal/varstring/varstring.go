// Package varstring encodes the varint-length-prefixed UTF-8 strings used
// throughout the on-disk header and subheader framing: a Uvarint byte
// count followed by the raw string bytes.
//
// It generalizes the teacher's encoding.VarStringEncoder, which prefixes
// with a single uint8 length byte (capped at 255 bytes); header tag and
// type-name fields have no such cap, so this package uses a full Uvarint
// prefix instead.
package varstring

import (
	"encoding/binary"
	"fmt"

	"github.com/veltra/chronofile/errs"
)

// Append appends s to buf as a Uvarint length prefix followed by its bytes.
func Append(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// Read decodes a string written by Append, returning it and the number of
// bytes consumed from buf.
func Read(buf []byte) (string, int, error) {
	n, consumed := binary.Uvarint(buf)
	if consumed <= 0 {
		return "", 0, fmt.Errorf("%w: malformed varstring length", errs.ErrInvalidHeader)
	}

	end := consumed + int(n)
	if end > len(buf) {
		return "", 0, fmt.Errorf("%w: varstring truncated", errs.ErrShortTransfer)
	}

	return string(buf[consumed:end]), end, nil
}
