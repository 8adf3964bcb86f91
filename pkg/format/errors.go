package format

import "errors"

var (
	// ErrBadMagic indicates the file does not start with the bigarray magic.
	ErrBadMagic = errors.New("invalid magic signature")
	// ErrHeaderCorrupt indicates a truncated or garbled header.
	ErrHeaderCorrupt = errors.New("corrupt header")
	// ErrMetadataTooLarge indicates the metadata blob exceeds MaxMetadataSize.
	ErrMetadataTooLarge = errors.New("metadata blob exceeds maximum size")
)
