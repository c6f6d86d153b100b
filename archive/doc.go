// Package archive moves cold ranges of a file's records out to a
// compressed sidecar file ("freezing") and back ("thawing"), and bulk
// rewrites restored records into a live file through the engine's
// O_DIRECT-backed aligned-block path.
//
// Compression here is a second stage over raw record bytes, not the
// per-field codec in the codec package: a sidecar holds whatever bytes
// an engine.Engine handed it, compressed whole, the way the teacher's
// compress package runs as a general-purpose second stage after
// payload-specific encoding.
package archive
