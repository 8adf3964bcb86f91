// Package format defines the on-disk layout of bigarray files.
//
// A file starts with the magic signature, followed by an 8-digit ASCII
// decimal length field and a metadata blob encoding the element type and
// the full shape. Row data begins at a fixed aligned offset computed from
// the dtype alone, so header rewrites never move the data region.
package format

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eunmann/bigarray/pkg/codec"
)

const (
	// Magic identifies bigarray files.
	Magic = "mmapdata"
	// SizeFieldLen is the width of the ASCII decimal metadata length field.
	SizeFieldLen = 8
	// MaxMetadataSize caps the metadata blob. The cap is permanent: it fixes
	// the aligned data offset for every dtype, so it must never grow.
	MaxMetadataSize = 486
)

// Header carries the decoded file metadata.
type Header struct {
	DType DType
	Shape []int64 // Shape[0] is the current row count.
	// Len is the number of bytes consumed from the start of the file:
	// magic + size field + metadata blob.
	Len int
}

// EncodeMetadata returns the size field plus the serialized metadata blob.
// This is the part of the header rewritten in place on resize.
func EncodeMetadata(dtype DType, shape []int64) ([]byte, error) {
	blob, err := codec.Default.Marshal([]any{string(dtype), shape})
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if len(blob) > MaxMetadataSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrMetadataTooLarge, len(blob), MaxMetadataSize)
	}
	buf := make([]byte, 0, SizeFieldLen+len(blob))
	buf = append(buf, fmt.Sprintf("%8d", len(blob))...)
	buf = append(buf, blob...)
	return buf, nil
}

// EncodeHeader returns the complete header: magic, size field, metadata blob.
func EncodeHeader(dtype DType, shape []int64) ([]byte, error) {
	meta, err := EncodeMetadata(dtype, shape)
	if err != nil {
		return nil, err
	}
	return append([]byte(Magic), meta...), nil
}

// DecodeHeader reads and validates a header from r. It is the single source
// of truth for recovering dtype and shape from a file.
func DecodeHeader(r io.Reader) (Header, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return Header{}, fmt.Errorf("%w: read magic: %v", ErrHeaderCorrupt, err)
	}
	if !bytes.Equal(magic, []byte(Magic)) {
		return Header{}, ErrBadMagic
	}

	sizeField := make([]byte, SizeFieldLen)
	if _, err := io.ReadFull(r, sizeField); err != nil {
		return Header{}, fmt.Errorf("%w: read size field: %v", ErrHeaderCorrupt, err)
	}
	size, err := strconv.Atoi(strings.TrimSpace(string(sizeField)))
	if err != nil || size < 0 || size > MaxMetadataSize {
		return Header{}, fmt.Errorf("%w: bad metadata length %q", ErrHeaderCorrupt, sizeField)
	}

	blob := make([]byte, size)
	if _, err := io.ReadFull(r, blob); err != nil {
		return Header{}, fmt.Errorf("%w: read metadata blob: %v", ErrHeaderCorrupt, err)
	}

	var meta [2]codec.Raw
	if err := codec.Default.Unmarshal(blob, &meta); err != nil {
		return Header{}, fmt.Errorf("%w: decode metadata: %v", ErrHeaderCorrupt, err)
	}
	var name string
	if err := codec.Default.Unmarshal(meta[0], &name); err != nil {
		return Header{}, fmt.Errorf("%w: decode dtype: %v", ErrHeaderCorrupt, err)
	}
	dtype, err := ParseDType(name)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrHeaderCorrupt, err)
	}
	var shape []int64
	if err := codec.Default.Unmarshal(meta[1], &shape); err != nil {
		return Header{}, fmt.Errorf("%w: decode shape: %v", ErrHeaderCorrupt, err)
	}
	if len(shape) == 0 {
		return Header{}, fmt.Errorf("%w: empty shape", ErrHeaderCorrupt)
	}

	return Header{
		DType: dtype,
		Shape: shape,
		Len:   len(Magic) + SizeFieldLen + size,
	}, nil
}

// DataOffset returns the byte offset at which row data begins for the given
// dtype: the smallest multiple of the element size that leaves room for the
// magic, the size field, and the maximum metadata blob. Constant for a dtype
// regardless of row count.
func DataOffset(dtype DType) int64 {
	prefix := int64(len(Magic) + SizeFieldLen + MaxMetadataSize)
	item := int64(dtype.ItemSize())
	return (prefix + item - 1) / item * item
}
