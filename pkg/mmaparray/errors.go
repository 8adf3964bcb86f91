package mmaparray

import "errors"

var (
	// ErrClosed indicates an operation on a closed writer.
	ErrClosed = errors.New("writer is closed")
	// ErrShrink indicates a resize below the current row count.
	ErrShrink = errors.New("cannot shrink a grow-only array")
	// ErrMissingLayout indicates a fresh store was opened without dtype/shape.
	ErrMissingLayout = errors.New("dtype and shape are required to create a new array")
	// ErrNoMatchingBlocks indicates every block in a batch was rejected.
	ErrNoMatchingBlocks = errors.New("no block matches the array's trailing shape")
	// ErrBlockSize indicates a block whose data length disagrees with its shape.
	ErrBlockSize = errors.New("block data length does not match its shape")
	// ErrTooManyWriters indicates the per-process writer ceiling was reached.
	ErrTooManyWriters = errors.New("too many open writers")
	// ErrOutOfRange indicates an out-of-bounds row access.
	ErrOutOfRange = errors.New("row index out of range")
)
