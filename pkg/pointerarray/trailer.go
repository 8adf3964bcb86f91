package pointerarray

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/eunmann/bigarray/pkg/codec"
)

const trailerLenSize = 8

// readTrailer decodes the index from the tail of the file: the final 8
// bytes give the big-endian byte length of the serialized mapping that
// immediately precedes them.
func readTrailer(path string) (map[string]Range, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trailer: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat trailer: %w", err)
	}
	size := info.Size()
	if size < trailerLenSize {
		return nil, fmt.Errorf("%w: file holds only %d bytes", ErrBadTrailer, size)
	}

	var lenBuf [trailerLenSize]byte
	if _, err := f.ReadAt(lenBuf[:], size-trailerLenSize); err != nil {
		return nil, fmt.Errorf("%w: read length suffix: %v", ErrBadTrailer, err)
	}
	blobLen := int64(binary.BigEndian.Uint64(lenBuf[:]))
	if blobLen < 0 || blobLen > size-trailerLenSize {
		return nil, fmt.Errorf("%w: blob length %d exceeds file", ErrBadTrailer, blobLen)
	}

	blob := make([]byte, blobLen)
	if _, err := f.ReadAt(blob, size-trailerLenSize-blobLen); err != nil {
		return nil, fmt.Errorf("%w: read blob: %v", ErrBadTrailer, err)
	}

	indices := make(map[string]Range)
	if err := codec.Default.Unmarshal(blob, &indices); err != nil {
		return nil, fmt.Errorf("%w: decode blob: %v", ErrBadTrailer, err)
	}
	return indices, nil
}

// appendTrailer serializes the index and appends blob + length suffix at
// the end of the file.
func appendTrailer(path string, indices map[string]Range) error {
	blob, err := codec.Default.Marshal(indices)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open for trailer append: %w", err)
	}
	defer f.Close()

	var lenBuf [trailerLenSize]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(blob)))
	if _, err := f.Write(append(blob, lenBuf[:]...)); err != nil {
		return fmt.Errorf("append trailer: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync trailer: %w", err)
	}
	return nil
}
