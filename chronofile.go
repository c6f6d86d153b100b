// Package chronofile is an embedded storage engine for append-oriented,
// fixed-schema time-series files: on-disk containers whose body is a
// tightly packed sequence of fixed-size records, addressed either by
// uniform time stepping (uniform) or by a monotonically non-decreasing
// index field embedded in the record (indexed).
//
// # Core Features
//
//   - Native-endian, memory-mapped reads and O_DIRECT writes over a
//     fixed-size record body (engine)
//   - A structural type-signature contract binding a file to its record
//     layout, verified on open (sig, recdesc)
//   - Per-field delta/multiplied-delta/composite codecs over a packed
//     bit stream, for callers who want to compress before writing (codec)
//   - Cold-storage freeze/thaw of ordinal ranges to compressed sidecar
//     files (archive)
//   - A lazy, pooled-buffer streaming iterator for ranges too large to
//     read into one slice (stream)
//
// # Basic Usage
//
// Creating and appending to a uniform file:
//
//	type Sample struct {
//	    Value float64
//	}
//
//	desc, _ := chronofile.Describe[Sample]("")
//	f, _ := chronofile.CreateUniform(path, desc, "cpu.usage",
//	    chronofile.ToTicks(time.Now().Truncate(time.Minute)), 60*uniform.TicksPerSecond)
//	defer f.Close()
//
//	f.AppendRange(f.T0(), []Sample{{Value: 1}, {Value: 2}})
//
// # Package Structure
//
// This package provides convenient top-level wrappers around engine,
// uniform, and indexed. For range resolution, binary search, codec
// composition, and cold storage, use those packages (and codec,
// archive, stream) directly.
package chronofile

import (
	"time"

	"github.com/veltra/chronofile/engine"
	"github.com/veltra/chronofile/indexed"
	"github.com/veltra/chronofile/recdesc"
	"github.com/veltra/chronofile/uniform"
)

// unixEpochTicks is the tick count (100ns units) between 0001-01-01 and
// 1970-01-01 — the same constant .NET's DateTime.UnixEpoch.Ticks uses —
// so a file's T0 lines up with the DateTime.ToBinary values a legacy
// (v1.0) writer would have persisted.
const unixEpochTicks = 621_355_968_000_000_000

// ToTicks converts t to the tick count (100ns units since the epoch)
// uniform.File's T0 and Δ are expressed in.
func ToTicks(t time.Time) int64 {
	return unixEpochTicks + t.UnixNano()/100
}

// FromTicks converts a tick count back to a UTC time.Time.
func FromTicks(ticks int64) time.Time {
	return time.Unix(0, (ticks-unixEpochTicks)*100).UTC()
}

// Describe builds a recdesc.Descriptor for T by reflecting over its
// fields once. indexField names the embedded monotonic key for an
// indexed file, or "" for a uniform file.
func Describe[T any](indexField string) (recdesc.Descriptor[T], error) {
	return recdesc.Reflect[T](indexField)
}

// CreateUniform creates a new uniform (T0/Δ-addressed) file. t0 and
// delta are ticks (see ToTicks); delta must be at most one day and
// divide evenly into one day, and t0 must already land on a Δ boundary.
func CreateUniform[T any](path string, desc recdesc.Descriptor[T], tag string, t0, delta int64, opts ...engine.Option) (*uniform.File[T], error) {
	return uniform.Create(path, desc, tag, t0, delta, opts...)
}

// OpenUniform opens an existing uniform file for reading (engine.ModeRead)
// or reading and writing (engine.ModeReadWrite).
func OpenUniform[T any](path string, mode engine.Mode, desc recdesc.Descriptor[T], opts ...engine.Option) (*uniform.File[T], error) {
	return uniform.Open(path, mode, desc, opts...)
}

// CreateIndexed creates a new indexed (embedded monotonic key) file.
// indexOf must extract the same field named by desc.IndexField.
func CreateIndexed[T any](path string, desc recdesc.Descriptor[T], tag string, indexOf indexed.IndexFunc[T], opts ...engine.Option) (*indexed.File[T], error) {
	return indexed.Create(path, desc, tag, indexOf, opts...)
}

// OpenIndexed opens an existing indexed file.
func OpenIndexed[T any](path string, mode engine.Mode, desc recdesc.Descriptor[T], indexOf indexed.IndexFunc[T], opts ...engine.Option) (*indexed.File[T], error) {
	return indexed.Open(path, mode, desc, indexOf, opts...)
}
