// Package stream drives a ranged read through engine.Engine lazily: it
// asks pool.Pool for a growing sequence of buffers sized for the
// resolved ordinal range, fills each from the engine, and yields it to
// the consumer before reusing it for the next one. This is the read
// path's answer to a range too large (or too uncertain in size) to read
// into one caller-supplied slice, the way the teacher's NumericDecoder.All
// streams decoded values instead of materializing them all at once.
package stream
