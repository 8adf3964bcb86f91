package format

import "fmt"

// DType names a fixed-width numeric element type. The name is what gets
// persisted in the header metadata blob.
type DType string

// Supported element types.
const (
	Float64 DType = "float64"
	Float32 DType = "float32"
	Int64   DType = "int64"
	Int32   DType = "int32"
	Int16   DType = "int16"
	Int8    DType = "int8"
	Uint64  DType = "uint64"
	Uint32  DType = "uint32"
	Uint16  DType = "uint16"
	Uint8   DType = "uint8"
)

var itemSizes = map[DType]int{
	Float64: 8,
	Float32: 4,
	Int64:   8,
	Int32:   4,
	Int16:   2,
	Int8:    1,
	Uint64:  8,
	Uint32:  4,
	Uint16:  2,
	Uint8:   1,
}

// ItemSize returns the element width in bytes, or 0 for an unknown dtype.
func (d DType) ItemSize() int {
	return itemSizes[d]
}

// Valid reports whether d names a supported element type.
func (d DType) Valid() bool {
	_, ok := itemSizes[d]
	return ok
}

// ParseDType resolves a persisted dtype name.
func ParseDType(name string) (DType, error) {
	d := DType(name)
	if !d.Valid() {
		return "", fmt.Errorf("unknown dtype %q", name)
	}
	return d, nil
}
