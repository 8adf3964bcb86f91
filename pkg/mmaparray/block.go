package mmaparray

import (
	"unsafe"

	"github.com/eunmann/bigarray/pkg/format"
)

// Block is a contiguous row-major batch of rows to write. Shape is the full
// block shape; Shape[0] is the row count and Shape[1:] must match the
// array's trailing shape for the block to be accepted. Data holds the raw
// native-endian element bytes.
type Block struct {
	Shape []int64
	Data  []byte
}

// Rows returns the block's leading dimension.
func (b Block) Rows() int64 {
	if len(b.Shape) == 0 {
		return 0
	}
	return b.Shape[0]
}

func (b Block) trailingMatches(shape []int64) bool {
	if len(b.Shape) != len(shape) {
		return false
	}
	for i := 1; i < len(shape); i++ {
		if b.Shape[i] != shape[i] {
			return false
		}
	}
	return true
}

func product(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

// sized reports whether Data holds exactly the bytes the shape implies.
func (b Block) sized(dtype format.DType) bool {
	return int64(len(b.Data)) == product(b.Shape)*int64(dtype.ItemSize())
}

func rawBytes[T any](values []T) []byte {
	if len(values) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(values[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(values))), len(values)*size)
}

func blockOf[T any](values []T, shape []int64) Block {
	if len(shape) == 0 {
		shape = []int64{int64(len(values))}
	}
	return Block{Shape: shape, Data: rawBytes(values)}
}

// Float64Block wraps values as a Block without copying. If shape is omitted
// the block is one-dimensional.
func Float64Block(values []float64, shape ...int64) Block { return blockOf(values, shape) }

// Float32Block wraps values as a Block without copying.
func Float32Block(values []float32, shape ...int64) Block { return blockOf(values, shape) }

// Int64Block wraps values as a Block without copying.
func Int64Block(values []int64, shape ...int64) Block { return blockOf(values, shape) }

// Int32Block wraps values as a Block without copying.
func Int32Block(values []int32, shape ...int64) Block { return blockOf(values, shape) }

// Uint64Block wraps values as a Block without copying.
func Uint64Block(values []uint64, shape ...int64) Block { return blockOf(values, shape) }

// Uint8Block wraps values as a Block without copying.
func Uint8Block(values []uint8, shape ...int64) Block { return blockOf(values, shape) }
