// Package engine is the file engine common to both addressing models: the
// open/create lifecycle, the header/signature handshake, and low-level
// ranged read, append, and truncate over a fixed-size record body.
//
// It treats a record T as a fixed-size value with a stable byte layout —
// the contract recdesc.Descriptor documents — and moves its bytes
// through ioraw without interpreting them; uniform and indexed build
// their addressing rules on top of this package, the way the teacher's
// blob.NumericBlob layers metric addressing on top of a raw decoded
// payload.
package engine
