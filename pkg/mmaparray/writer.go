// Package mmaparray implements a grow-only numeric array store backed by a
// memory-mapped file.
//
// The file carries a fixed-position header (see pkg/format) followed by raw
// row-major element bytes at a dtype-aligned offset. The leading dimension
// grows in place: a resize rewrites the row count in the header and remaps
// the file at the same data offset, so previously written bytes never move.
package mmaparray

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/eunmann/bigarray/pkg/fileutil"
	"github.com/eunmann/bigarray/pkg/format"
	"github.com/eunmann/bigarray/pkg/logging"
)

// Options configures OpenWriter. DType and Shape are required when the file
// does not exist yet and are ignored when reopening a non-empty file.
type Options struct {
	// Shape is the full array shape. A negative leading dimension is
	// treated as 0 (growable from empty). Trailing dimensions are fixed for
	// the file's lifetime.
	Shape []int64
	// DType is the element type.
	DType format.DType
	// RemoveExisting deletes any file at the path before opening.
	RemoveExisting bool
	// Registry overrides DefaultRegistry (useful for tests).
	Registry *Registry
}

// Writer owns the file handle and the live read-write mapping for one array
// file. At most one live Writer exists per absolute path per registry;
// OpenWriter returns the existing handle when there is one.
//
// A Writer is not safe for concurrent use; see WriteRanges for the one
// supported concurrent pattern (disjoint pre-sized row ranges).
type Writer struct {
	path     string
	file     *os.File
	dtype    format.DType
	shape    []int64
	rowBytes int64
	region   []byte // full mapping from file offset 0
	data     []byte // region[dataOffset:]
	cursor   int64  // next free row for append-style writes
	closed   bool
	reg      *Registry
	log      zerolog.Logger
}

// OpenWriter opens or creates the array at path. Construction is idempotent:
// if the registry already holds a live writer for the resolved absolute
// path, that handle is returned unchanged and opts are ignored.
func OpenWriter(path string, opts Options) (*Writer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry
	}
	return reg.open(abs, func() (*Writer, error) {
		return newWriter(abs, opts, reg)
	})
}

func newWriter(abs string, opts Options, reg *Registry) (*Writer, error) {
	if opts.RemoveExisting && fileutil.Exists(abs) {
		if fileutil.IsDir(abs) {
			return nil, fmt.Errorf("path %s is a directory, cannot remove", abs)
		}
		if err := os.Remove(abs); err != nil {
			return nil, fmt.Errorf("remove existing file: %w", err)
		}
	}

	w := &Writer{
		path: abs,
		reg:  reg,
		log:  logging.WithComponent("mmaparray.writer"),
	}

	if fileutil.IsNonEmpty(abs) {
		f, err := os.OpenFile(abs, os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open array file: %w", err)
		}
		hdr, err := format.DecodeHeader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		w.file = f
		w.dtype = hdr.DType
		w.shape = hdr.Shape
		w.cursor = hdr.Shape[0]
	} else {
		if opts.DType == "" || len(opts.Shape) == 0 {
			return nil, ErrMissingLayout
		}
		if !opts.DType.Valid() {
			return nil, fmt.Errorf("%w: unknown dtype %q", ErrMissingLayout, opts.DType)
		}
		shape := make([]int64, len(opts.Shape))
		copy(shape, opts.Shape)
		if shape[0] < 0 {
			shape[0] = 0
		}
		for _, d := range shape[1:] {
			if d <= 0 {
				return nil, fmt.Errorf("%w: trailing dimensions must be positive, got %v", ErrMissingLayout, opts.Shape)
			}
		}
		hdr, err := format.EncodeHeader(opts.DType, shape)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(abs, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, fmt.Errorf("create array file: %w", err)
		}
		if _, err := f.Write(hdr); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		w.file = f
		w.dtype = opts.DType
		w.shape = shape
		w.cursor = 0
	}

	w.rowBytes = product(w.shape[1:]) * int64(w.dtype.ItemSize())
	if err := w.remap(); err != nil {
		w.file.Close()
		return nil, err
	}

	w.log.Debug().Str("path", abs).Str("dtype", string(w.dtype)).
		Ints64("shape", w.shape).Msg("writer opened")
	return w, nil
}

// remap (re)establishes the mapping for the current shape, extending the
// file first so every mapped page has backing store. The file is never
// shrunk: bytes past the data region (an index trailer) must survive an
// open or a resize.
func (w *Writer) remap() error {
	total := format.DataOffset(w.dtype) + w.shape[0]*w.rowBytes
	if fileutil.Size(w.path) < total {
		if err := unix.Ftruncate(int(w.file.Fd()), total); err != nil {
			return fmt.Errorf("ftruncate %s: %w", w.path, err)
		}
	}
	region, err := mapShared(w.file, total)
	if err != nil {
		return err
	}
	w.region = region
	w.data = region[format.DataOffset(w.dtype):]
	return nil
}

// Write appends blocks at the current append cursor and advances the cursor
// past the last written row.
func (w *Writer) Write(blocks ...Block) error {
	return w.write(blocks, 0, false)
}

// WriteAt writes blocks starting at the given row. A negative start resolves
// relative to the current extent (rows − start). The append cursor is left
// unchanged.
func (w *Writer) WriteAt(start int64, blocks ...Block) error {
	return w.write(blocks, start, true)
}

func (w *Writer) write(blocks []Block, start int64, explicit bool) error {
	if w.closed {
		return ErrClosed
	}

	// Blocks with a mismatched trailing shape are dropped, not errors.
	accepted := blocks[:0:0]
	var addRows int64
	for _, b := range blocks {
		if !b.trailingMatches(w.shape) {
			w.log.Debug().Str("path", w.path).Ints64("block_shape", b.Shape).
				Ints64("array_shape", w.shape).Msg("dropping block with mismatched trailing shape")
			continue
		}
		if !b.sized(w.dtype) {
			return fmt.Errorf("%w: shape %v, %d bytes", ErrBlockSize, b.Shape, len(b.Data))
		}
		accepted = append(accepted, b)
		addRows += b.Rows()
	}
	if len(accepted) == 0 {
		return ErrNoMatchingBlocks
	}

	pos := w.cursor
	if explicit {
		pos = start
		if pos < 0 {
			pos = w.shape[0] - pos
		}
	}

	// Grow once for the whole batch.
	if need := pos + addRows; need > w.shape[0] {
		if err := w.Resize(need); err != nil {
			return err
		}
	}

	for _, b := range accepted {
		n := copy(w.data[pos*w.rowBytes:], b.Data)
		if int64(n) != int64(len(b.Data)) {
			return fmt.Errorf("short copy at row %d: %d of %d bytes", pos, n, len(b.Data))
		}
		pos += b.Rows()
	}
	if !explicit {
		w.cursor = pos
	}
	return nil
}

// Resize grows the array to rows. Shrinking is unsupported and resizing to
// the current count is a no-op. Growth is a remap, not a copy: the header
// row count is rewritten in place, the old mapping is released, the file is
// extended, and the same data offset is mapped again. Callers must not hold
// slices of the old mapping across a resize.
func (w *Writer) Resize(rows int64) error {
	if w.closed {
		return ErrClosed
	}
	old := w.shape[0]
	if rows < old {
		return fmt.Errorf("%w: %d -> %d", ErrShrink, old, rows)
	}
	if rows == old {
		return nil
	}

	shape := make([]int64, len(w.shape))
	copy(shape, w.shape)
	shape[0] = rows

	// The metadata blob stays within the reserved region, so this rewrite
	// can never cross into row data.
	meta, err := format.EncodeMetadata(w.dtype, shape)
	if err != nil {
		return err
	}
	if _, err := w.file.WriteAt(meta, int64(len(format.Magic))); err != nil {
		return fmt.Errorf("rewrite header: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync header: %w", err)
	}

	if err := unmap(w.region); err != nil {
		return err
	}
	w.region = nil
	w.data = nil
	w.shape = shape
	if err := w.remap(); err != nil {
		return err
	}

	w.log.Debug().Str("path", w.path).Int64("old_rows", old).Int64("rows", rows).Msg("array resized")
	return nil
}

// Flush synchronizes dirty pages of the mapping with the backing file.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	return msync(w.region)
}

// Close flushes, releases the mapping and the file descriptor, and evicts
// the writer from its registry. Closing an already-closed writer is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.reg.remove(w.path)

	var firstErr error
	if err := msync(w.region); err != nil {
		firstErr = err
	}
	if err := unmap(w.region); err != nil && firstErr == nil {
		firstErr = err
	}
	w.region = nil
	w.data = nil
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close file: %w", err)
	}
	w.log.Debug().Str("path", w.path).Msg("writer closed")
	return firstErr
}

// Path returns the resolved absolute path of the backing file.
func (w *Writer) Path() string { return w.path }

// DType returns the element type.
func (w *Writer) DType() format.DType { return w.dtype }

// Shape returns a copy of the current full shape.
func (w *Writer) Shape() []int64 {
	shape := make([]int64, len(w.shape))
	copy(shape, w.shape)
	return shape
}

// Rows returns the current leading dimension.
func (w *Writer) Rows() int64 { return w.shape[0] }

// Cursor returns the append cursor: the next free row for Write.
func (w *Writer) Cursor() int64 { return w.cursor }

// Closed reports whether Close has been called.
func (w *Writer) Closed() bool { return w.closed }

// FileSize returns the current size of the backing file in bytes.
func (w *Writer) FileSize() int64 { return fileutil.Size(w.path) }
