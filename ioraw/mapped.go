package ioraw

import (
	"fmt"

	"golang.org/x/exp/mmap"
)

// MappedReader is a read-only, memory-mapped view of a file: the engine's
// read path for an already-written region, avoiding a read syscall per
// access.
type MappedReader struct {
	r *mmap.ReaderAt
}

// OpenMapped memory-maps path for reading.
func OpenMapped(path string) (*MappedReader, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ioraw: mmap open: %w", err)
	}

	return &MappedReader{r: r}, nil
}

// Len returns the mapped region's length in bytes.
func (m *MappedReader) Len() int { return m.r.Len() }

// ReadAt implements io.ReaderAt against the mapping.
func (m *MappedReader) ReadAt(p []byte, off int64) (int, error) {
	return m.r.ReadAt(p, off)
}

// Close unmaps the file.
func (m *MappedReader) Close() error { return m.r.Close() }
