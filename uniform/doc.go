// Package uniform addresses a file's records by uniform time stepping:
// item N sits at T0 + N*Δ. It layers timestamp-to-ordinal translation and
// range clipping on top of engine.Engine, the way the teacher's blob
// package layers metric addressing on top of a raw decoded payload.
package uniform
