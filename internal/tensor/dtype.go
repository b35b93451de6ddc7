package tensor

import "fmt"

// DType is a constraint for tensor element types supported by lucid.
//
// The visualization engine runs entirely in float32; float64 is accepted
// for gradient-check style tests.
type DType interface {
	float32 | float64
}

// DataType represents the runtime data type of a tensor.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the size of one element in bytes.
func (d DataType) Size() int {
	switch d {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic(fmt.Sprintf("unknown data type %d", int(d)))
	}
}

// String returns a human-readable type name.
func (d DataType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// inferDataType maps a Go value to its DataType.
func inferDataType(v any) DataType {
	switch v.(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic(fmt.Sprintf("unsupported tensor element type %T", v))
	}
}
