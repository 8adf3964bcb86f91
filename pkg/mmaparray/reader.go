package mmaparray

import (
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/eunmann/bigarray/pkg/format"
)

// Array is a read view over an existing array file. The data region is
// memory-mapped once at open time; Row and Slice return views over the
// mapped pages without copying. An Array never grows the file; reopen after
// a writer resize to observe new rows.
type Array struct {
	path     string
	dtype    format.DType
	shape    []int64
	rowBytes int64
	region   []byte
	data     []byte
}

// Open maps the array at path. The mapping is read-write and shared,
// matching the writer's access mode, so views stay coherent with an open
// writer in the same process.
func Open(path string) (*Array, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	f, err := os.OpenFile(abs, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open array: %w", err)
	}
	defer f.Close()

	hdr, err := format.DecodeHeader(f)
	if err != nil {
		return nil, err
	}

	a := &Array{
		path:     abs,
		dtype:    hdr.DType,
		shape:    hdr.Shape,
		rowBytes: product(hdr.Shape[1:]) * int64(hdr.DType.ItemSize()),
	}

	dataOff := format.DataOffset(a.dtype)
	total := dataOff + a.shape[0]*a.rowBytes
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat array: %w", err)
	}
	if info.Size() < total {
		return nil, fmt.Errorf("%w: file holds %d bytes, shape %v needs %d",
			format.ErrHeaderCorrupt, info.Size(), a.shape, total)
	}

	region, err := mapShared(f, total)
	if err != nil {
		return nil, err
	}
	a.region = region
	a.data = region[dataOff:]
	return a, nil
}

// Close releases the mapping.
func (a *Array) Close() error {
	err := unmap(a.region)
	a.region = nil
	a.data = nil
	return err
}

// Path returns the resolved absolute path of the backing file.
func (a *Array) Path() string { return a.path }

// DType returns the element type.
func (a *Array) DType() format.DType { return a.dtype }

// Shape returns a copy of the full shape decoded from the header.
func (a *Array) Shape() []int64 {
	shape := make([]int64, len(a.shape))
	copy(shape, a.shape)
	return shape
}

// Rows returns the leading dimension.
func (a *Array) Rows() int64 { return a.shape[0] }

// FileSize returns the current size of the backing file in bytes.
func (a *Array) FileSize() int64 {
	info, err := os.Stat(a.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Bytes returns the whole data region as raw bytes, without copying.
func (a *Array) Bytes() []byte { return a.data }

// Row returns the raw bytes of one row, without copying.
func (a *Array) Row(i int64) ([]byte, error) {
	return a.Slice(i, i+1)
}

// Slice returns the raw bytes of rows [start, end), without copying: the
// returned slice aliases the mapped pages.
func (a *Array) Slice(start, end int64) ([]byte, error) {
	if start < 0 || end < start || end > a.shape[0] {
		return nil, fmt.Errorf("%w: [%d, %d) of %d rows", ErrOutOfRange, start, end, a.shape[0])
	}
	return a.data[start*a.rowBytes : end*a.rowBytes : end*a.rowBytes], nil
}

func view[T any](a *Array, dtype format.DType) ([]T, error) {
	if a.dtype != dtype {
		return nil, fmt.Errorf("array holds %s, not %s", a.dtype, dtype)
	}
	if len(a.data) == 0 {
		return nil, nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(a.data))), len(a.data)/dtype.ItemSize()), nil
}

// Float64s returns the data region as a flat []float64 view, without
// copying. Fails unless the array's dtype is float64.
func (a *Array) Float64s() ([]float64, error) { return view[float64](a, format.Float64) }

// Float32s returns the data region as a flat []float32 view, without copying.
func (a *Array) Float32s() ([]float32, error) { return view[float32](a, format.Float32) }

// Int64s returns the data region as a flat []int64 view, without copying.
func (a *Array) Int64s() ([]int64, error) { return view[int64](a, format.Int64) }

// Int32s returns the data region as a flat []int32 view, without copying.
func (a *Array) Int32s() ([]int32, error) { return view[int32](a, format.Int32) }

// Uint64s returns the data region as a flat []uint64 view, without copying.
func (a *Array) Uint64s() ([]uint64, error) { return view[uint64](a, format.Uint64) }

// Uint8s returns the data region as a flat []uint8 view, without copying.
func (a *Array) Uint8s() ([]uint8, error) { return view[uint8](a, format.Uint8) }
