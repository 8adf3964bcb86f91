package pointerarray

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/eunmann/bigarray/pkg/format"
	"github.com/eunmann/bigarray/pkg/logging"
	"github.com/eunmann/bigarray/pkg/mmaparray"
)

// Options configures OpenWriter.
type Options struct {
	mmaparray.Options
	// Index seeds the shared index directly, e.g. when reconstructing a
	// writer from a transferred WriterState. When nil, a fresh store starts
	// empty and reopening a previously indexed file decodes the trailer.
	Index map[string]Range
	// Registry overrides DefaultRegistry (useful for tests). It shadows the
	// embedded array-store registry, which is set via Options.Options.
	Registry *Registry
}

// WriterState is the transferable form of a Writer: enough to reconstruct
// an equivalent handle against the same path (in another process or after
// serialization) without reopening a conflicting mapping here.
type WriterState struct {
	Path  string
	Shape []int64
	DType format.DType
	Index map[string]Range
}

// Writer wraps an array-store writer with a shared name index. Like the
// underlying writer it is a per-path singleton; OpenWriter returns the
// existing live handle when there is one.
//
// The index is only durable after Flush: a crash before flush keeps row
// data already synced but loses index entries recorded since the last
// trailer append.
type Writer struct {
	arr    *mmaparray.Writer
	idx    *SharedIndex
	dirty  bool // trailer needs appending on next flush
	closed bool
	reg    *Registry
	log    zerolog.Logger
}

// OpenWriter opens or creates an indexed array at path. Construction is
// idempotent per registry, like the underlying array writer.
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
	arrReg := opts.Options.Registry
	if arrReg == nil {
		arrReg = mmaparray.DefaultRegistry
	}
	_, joined := arrReg.Lookup(abs)

	arr, err := mmaparray.OpenWriter(abs, opts.Options)
	if err != nil {
		return nil, err
	}

	var idx *SharedIndex
	switch {
	case opts.Index != nil:
		idx = NewSharedIndex(opts.Index)
	case arr.Rows() == 0 || arr.Cursor() == 0:
		// Freshly created store: nothing indexed yet.
		idx = NewSharedIndex(nil)
	default:
		seed, err := readTrailer(abs)
		if err != nil {
			// Tear down the array writer only if this open created it; a
			// handle joined through the registry may still be in use.
			if !joined {
				arr.Close()
			}
			return nil, err
		}
		idx = NewSharedIndex(seed)
	}

	return &Writer{
		arr: arr,
		idx: idx,
		reg: reg,
		log: logging.WithComponent("pointerarray.writer"),
	}, nil
}

// OpenState reconstructs a writer from a transferred state snapshot.
func OpenState(st WriterState) (*Writer, error) {
	return OpenWriter(st.Path, Options{
		Options: mmaparray.Options{Shape: st.Shape, DType: st.DType},
		Index:   st.Index,
	})
}

// State captures the writer for hand-off: path, layout, and a snapshot of
// the current index mapping.
func (w *Writer) State() WriterState {
	return WriterState{
		Path:  w.arr.Path(),
		Shape: w.arr.Shape(),
		DType: w.arr.DType(),
		Index: w.idx.Snapshot(),
	}
}

// Write appends the named blocks at the current append cursor, assigning
// each entry a row range in slice order, and records the ranges in the
// shared index.
func (w *Writer) Write(entries ...Entry) error {
	return w.write(entries, 0, false)
}

// WriteAt writes the named blocks starting at the given row (negative =
// relative to the current extent); the append cursor is left unchanged.
func (w *Writer) WriteAt(start int64, entries ...Entry) error {
	return w.write(entries, start, true)
}

func (w *Writer) write(entries []Entry, start int64, explicit bool) error {
	if w.closed {
		return mmaparray.ErrClosed
	}

	shape := w.arr.Shape()
	pos := w.arr.Cursor()
	if explicit {
		pos = start
		if pos < 0 {
			pos = w.arr.Rows() - pos
		}
	}

	// Ranges tile [pos, pos+total) in entry order; entries whose trailing
	// shape does not match are dropped, exactly as the array writer drops
	// their blocks.
	ranges := make(map[string]Range, len(entries))
	blocks := make([]mmaparray.Block, 0, len(entries))
	next := pos
	for _, e := range entries {
		if e.Name == "" {
			return ErrEmptyKey
		}
		if !trailingMatches(e.Block.Shape, shape) {
			w.log.Debug().Str("key", e.Name).Ints64("block_shape", e.Block.Shape).
				Ints64("array_shape", shape).Msg("dropping entry with mismatched trailing shape")
			continue
		}
		rows := e.Block.Rows()
		ranges[e.Name] = Range{Start: next, End: next + rows}
		next += rows
		blocks = append(blocks, e.Block)
	}
	if len(blocks) == 0 {
		return mmaparray.ErrNoMatchingBlocks
	}

	// A write that accepted nothing changes no index state, so it must not
	// schedule a trailer append.
	w.dirty = true
	w.idx.Update(ranges)

	if explicit {
		return w.arr.WriteAt(start, blocks...)
	}
	return w.arr.Write(blocks...)
}

func trailingMatches(block, shape []int64) bool {
	if len(block) != len(shape) {
		return false
	}
	for i := 1; i < len(shape); i++ {
		if block[i] != shape[i] {
			return false
		}
	}
	return true
}

// Flush syncs row data and, if the index changed since the last flush,
// appends a fresh trailer. Flushing with no index changes never appends a
// second trailer.
func (w *Writer) Flush() error {
	if w.closed {
		return mmaparray.ErrClosed
	}
	if err := w.arr.Flush(); err != nil {
		return err
	}
	if !w.dirty {
		return nil
	}
	if err := appendTrailer(w.arr.Path(), w.idx.Snapshot()); err != nil {
		return err
	}
	w.dirty = false
	w.log.Debug().Str("path", w.arr.Path()).Int("keys", w.idx.Len()).Msg("index trailer flushed")
	return nil
}

// Close finalizes the trailer, releases the shared index, and closes the
// underlying array writer. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	flushErr := w.Flush()
	w.closed = true
	w.reg.remove(w.arr.Path())

	w.idx.Dispose()
	if err := w.arr.Close(); err != nil {
		return err
	}
	return flushErr
}

// Indices returns a copy of the current key-to-range mapping.
func (w *Writer) Indices() map[string]Range { return w.idx.Snapshot() }

// Path returns the resolved absolute path of the backing file.
func (w *Writer) Path() string { return w.arr.Path() }

// DType returns the element type.
func (w *Writer) DType() format.DType { return w.arr.DType() }

// Shape returns a copy of the current full shape.
func (w *Writer) Shape() []int64 { return w.arr.Shape() }

// Rows returns the current leading dimension.
func (w *Writer) Rows() int64 { return w.arr.Rows() }

// FileSize returns the current size of the backing file in bytes.
func (w *Writer) FileSize() int64 { return w.arr.FileSize() }
