// Package indexed addresses a file's records by an embedded monotonic
// index field rather than uniform time stepping: binary search over
// ordinals resolves an index value (or a range of them) to the ordinals
// engine.Engine needs, the way uniform resolves a timestamp through
// T0/Δ arithmetic instead.
package indexed
