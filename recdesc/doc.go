// Package recdesc is the caller-supplied type descriptor contract: the
// only place this module uses reflection, and only at Create/Open time,
// never in the hot read/write path.
//
// A Descriptor[T] names T's fields, their nesting, and which field (if
// any) is the monotonic index field for indexed addressing. The engine
// never generates code or inspects reflect.Value per record; instead the
// caller builds a Descriptor once (by hand, or via [Reflect] for a plain
// struct) and the sig package folds it into the depth-tagged type
// signature that gets persisted in the file header.
package recdesc
