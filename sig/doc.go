// Package sig builds and compares the type signature that binds an
// on-disk file to an in-memory record layout: an ordered list of
// (depth, typeTag) pairs produced by a depth-first walk of the record's
// fields, plus an xxHash64 fingerprint of that sequence for a fast
// rejection before the full element-wise comparison.
//
// The fingerprint follows the teacher's internal/hash.ID, which wraps
// cespare/xxhash for metric-name hashing; here it covers a whole field
// sequence instead of a single string.
package sig
