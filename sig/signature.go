package sig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/veltra/chronofile/endian"
	"github.com/veltra/chronofile/errs"
	"github.com/veltra/chronofile/internal/hash"
	"github.com/veltra/chronofile/internal/varstring"
	"github.com/veltra/chronofile/recdesc"
)

// Entry is one flattened (depth, typeTag) pair of a type signature.
type Entry struct {
	Depth int32
	Tag   string
}

// Signature is the structural fingerprint of a record layout: the
// flattened field sequence plus its xxHash64. The entries are persisted
// in a file's header subheader and re-checked on open; the hash is not
// persisted but recomputed from them by Parse.
type Signature struct {
	Entries []Entry
	hash    uint64
}

// Build flattens a Descriptor's field tree into a Signature and computes
// its hash.
func Build[T any](d recdesc.Descriptor[T]) Signature {
	entries := flatten(d.Fields, nil)

	return Signature{Entries: entries, hash: hashEntries(entries)}
}

func flatten(fields []recdesc.FieldDesc, out []Entry) []Entry {
	for _, f := range fields {
		out = append(out, Entry{Depth: int32(f.Depth), Tag: f.TypeTag})
		if len(f.Children) > 0 {
			out = flatten(f.Children, out)
		}
	}

	return out
}

func hashEntries(entries []Entry) uint64 {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(strconv.Itoa(int(e.Depth)))
		b.WriteByte(':')
		b.WriteString(e.Tag)
		b.WriteByte(';')
	}

	return hash.ID(b.String())
}

// Hash returns the fast-rejection fingerprint.
func (s Signature) Hash() uint64 { return s.hash }

// Equal reports whether two signatures describe the same field sequence,
// checking the hash first before falling back to the full element-wise
// walk.
func (s Signature) Equal(other Signature) bool {
	if s.hash != other.hash {
		return false
	}

	if len(s.Entries) != len(other.Entries) {
		return false
	}

	for i, e := range s.Entries {
		if e != other.Entries[i] {
			return false
		}
	}

	return true
}

// TypeMap authorizes a named remapping of persisted type tags. An entry
// old -> new lets a signature written under the old tag still match a
// descriptor built from the renamed type, instead of Equal failing
// outright on every renamed field.
type TypeMap map[string]string

// Remap returns a copy of s with every entry's Tag rewritten through m
// (entries absent from m are left unchanged) and its hash recomputed. An
// empty m returns s unchanged.
func (s Signature) Remap(m TypeMap) Signature {
	if len(m) == 0 {
		return s
	}

	entries := make([]Entry, len(s.Entries))
	for i, e := range s.Entries {
		if renamed, ok := m[e.Tag]; ok {
			e.Tag = renamed
		}
		entries[i] = e
	}

	return Signature{Entries: entries, hash: hashEntries(entries)}
}

// AppendBinary appends the on-disk subheader encoding of s:
// int32 count, then count * (int32 depth, varint-length-prefixed UTF-8 tag).
func (s Signature) AppendBinary(buf []byte, engine endian.EndianEngine) []byte {
	buf = engine.AppendUint32(buf, uint32(len(s.Entries)))

	for _, e := range s.Entries {
		buf = engine.AppendUint32(buf, uint32(e.Depth))
		buf = varstring.Append(buf, e.Tag)
	}

	return buf
}

// Parse decodes a Signature written by AppendBinary, returning the
// number of bytes consumed.
func Parse(buf []byte, engine endian.EndianEngine) (Signature, int, error) {
	if len(buf) < 4 {
		return Signature{}, 0, fmt.Errorf("%w: signature header truncated", errs.ErrShortTransfer)
	}

	count := int(engine.Uint32(buf))
	off := 4

	entries := make([]Entry, 0, count)
	for range count {
		if off+4 > len(buf) {
			return Signature{}, 0, fmt.Errorf("%w: signature entry truncated", errs.ErrShortTransfer)
		}

		depth := int32(engine.Uint32(buf[off:]))
		off += 4

		tag, n, err := varstring.Read(buf[off:])
		if err != nil {
			return Signature{}, 0, err
		}
		off += n

		entries = append(entries, Entry{Depth: depth, Tag: tag})
	}

	return Signature{Entries: entries, hash: hashEntries(entries)}, off, nil
}
