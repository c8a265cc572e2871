package directory

import "errors"

// Sentinel errors for the failure classes a binning directory can hit.
// Callers test with errors.Is; the concrete message carries the detail.
var (
	// ErrConfig reports construction parameters out of range, including a
	// vector size that is not a multiple of the block size.
	ErrConfig = errors.New("binning: invalid configuration")

	// ErrIO reports a failed file open, read or write. The in-memory
	// filter is never left partially modified by a failed I/O operation.
	ErrIO = errors.New("binning: i/o failure")

	// ErrFormat reports a filter file whose length, magic, checksum or
	// header fields are inconsistent.
	ErrFormat = errors.New("binning: malformed filter file")

	// ErrCapacity marks a direct-addressing insert past the end of the
	// vector. It is surfaced as a diagnostic log line and the offending
	// k-mer is skipped; inserts never fail with it.
	ErrCapacity = errors.New("binning: filter too small")

	// ErrResource rejects allocations beyond the supported vector size
	// before they are attempted.
	ErrResource = errors.New("binning: insufficient memory")
)
