package cpu

import "github.com/lucid-ml/lucid/internal/tensor"

// Scalar operations - element-wise operations with a scalar value.

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	result := newFloat32(x.Shape(), cpu.device, "mulScalar")
	in, out := x.AsFloat32(), result.AsFloat32()
	for i, v := range in {
		out[i] = v * scalar
	}
	return result
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	result := newFloat32(x.Shape(), cpu.device, "addScalar")
	in, out := x.AsFloat32(), result.AsFloat32()
	for i, v := range in {
		out[i] = v + scalar
	}
	return result
}
