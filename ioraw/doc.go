// Package ioraw is the page-aligned I/O path that moves raw record bytes
// between storage and buffers: a read-only memory-mapped reader
// (golang.org/x/exp/mmap) and a direct, unbuffered writer
// (github.com/ncw/directio) that falls back to a plain *os.File when the
// host or filesystem won't support O_DIRECT. Page size, where it matters
// for fallback alignment checks, comes from golang.org/x/sys rather than
// a hardcoded constant.
package ioraw
