// Package errs defines the sentinel error values used throughout chronofile.
//
// Every exported error is a package-level sentinel so callers can test for a
// specific failure with errors.Is, regardless of how much context a call
// site has wrapped around it with fmt.Errorf("%w: ...", errs.ErrX, ...).
package errs

import "errors"

var (
	// ErrSignatureMismatch means the persisted type signature disagrees with T.
	ErrSignatureMismatch = errors.New("chronofile: type signature mismatch")

	// ErrVersionIncompatible means the file's on-disk version is not in the supported set.
	ErrVersionIncompatible = errors.New("chronofile: incompatible file version")

	// ErrRecordSizeChanged means the body length is not a whole multiple of the record size.
	ErrRecordSizeChanged = errors.New("chronofile: body length is not a multiple of record size")

	// ErrShortTransfer means the OS returned fewer bytes than requested on a read or write.
	ErrShortTransfer = errors.New("chronofile: short I/O transfer")

	// ErrIndexMisaligned means a uniform-file timestamp does not fall on a Δ boundary.
	ErrIndexMisaligned = errors.New("chronofile: timestamp is not aligned to the step interval")

	// ErrIndexNonMonotonic means an append would violate index monotonicity.
	ErrIndexNonMonotonic = errors.New("chronofile: append would violate index monotonicity")

	// ErrTruncateGrow means a truncate target exceeds the current record count.
	ErrTruncateGrow = errors.New("chronofile: truncate target exceeds current count")

	// ErrCodecPrecisionLoss means a multiplied-delta codec cannot represent a value without loss.
	ErrCodecPrecisionLoss = errors.New("chronofile: value cannot be represented without precision loss")

	// ErrUseAfterDispose means an operation was attempted on a closed or disposed handle.
	ErrUseAfterDispose = errors.New("chronofile: use of file handle after close")

	// ErrStateInvalid means a header-bound field was mutated after initialization.
	ErrStateInvalid = errors.New("chronofile: invalid state transition")

	// ErrCodecBlockFull means the bit stream has no room left in the current block.
	ErrCodecBlockFull = errors.New("chronofile: codec block is full")

	// ErrInvalidHeader means the header prefix failed basic structural validation.
	ErrInvalidHeader = errors.New("chronofile: invalid file header")

	// ErrInvalidDescriptor means a caller-supplied record descriptor is malformed.
	ErrInvalidDescriptor = errors.New("chronofile: invalid record descriptor")

	// ErrOutOfRange means a requested ordinal or index range falls outside the file body.
	ErrOutOfRange = errors.New("chronofile: ordinal or index range out of bounds")

	// ErrTypeMapRequired means a signature mismatch occurred and no type map was supplied to resolve it.
	ErrTypeMapRequired = errors.New("chronofile: signature mismatch requires a type map")
)

// ExitCode maps an error produced by this module to the CLI exit code an
// external front end should return, per the taxonomy-to-exit-code table.
// Errors wrapped with fmt.Errorf("%w: ...", ...) are unwrapped via errors.Is.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrSignatureMismatch), errors.Is(err, ErrTypeMapRequired):
		return 3
	case errors.Is(err, ErrVersionIncompatible):
		return 4
	case errors.Is(err, ErrShortTransfer):
		return 5
	case errors.Is(err, ErrIndexMisaligned), errors.Is(err, ErrIndexNonMonotonic):
		return 6
	case errors.Is(err, ErrCodecPrecisionLoss):
		return 7
	default:
		return 2
	}
}
