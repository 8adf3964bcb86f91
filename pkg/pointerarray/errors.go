package pointerarray

import "errors"

var (
	// ErrKeyNotFound indicates a lookup for a key the index does not hold.
	ErrKeyNotFound = errors.New("key not found in index")
	// ErrBadTrailer indicates the index trailer is missing or garbled.
	ErrBadTrailer = errors.New("corrupt index trailer")
	// ErrEmptyKey indicates a batch entry with an empty name.
	ErrEmptyKey = errors.New("index keys must be non-empty")
)
