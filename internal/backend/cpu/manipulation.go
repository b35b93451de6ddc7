package cpu

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// Reshape returns a tensor with the same data under a new shape.
// The data is copied so the result has its own identity on the tape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v to %v", t.Shape(), newShape))
	}
	return t.Clone().WithShape(newShape)
}

// Transpose permutes the dimensions of a tensor.
// If axes is empty, all dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: axis %d out of range for %dD tensor", ax, ndim))
		}
		outShape[i] = shape[ax]
	}

	result := newFloat32(outShape, cpu.device, "transpose")
	in, out := t.AsFloat32(), result.AsFloat32()
	inStrides := t.Strides()
	outStrides := outShape.ComputeStrides()

	for i := range out {
		srcIdx := 0
		rem := i
		for d := 0; d < ndim; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += coord * inStrides[axes[d]]
		}
		out[i] = in[srcIdx]
	}
	return result
}

// Select slices out one index along a dimension; the dimension is removed.
func (cpu *CPUBackend) Select(x *tensor.RawTensor, dim, index int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("select: invalid dimension %d for shape %v", dim, shape))
	}
	if index < 0 || index >= shape[dim] {
		panic(fmt.Sprintf("select: index %d out of range for dimension %d (size %d)", index, dim, shape[dim]))
	}

	outShape := make(tensor.Shape, 0, len(shape)-1)
	outShape = append(outShape, shape[:dim]...)
	outShape = append(outShape, shape[dim+1:]...)

	result := newFloat32(outShape, cpu.device, "select")
	in, out := x.AsFloat32(), result.AsFloat32()

	outer := 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	inner := 1
	for _, d := range shape[dim+1:] {
		inner *= d
	}

	for o := 0; o < outer; o++ {
		src := (o*shape[dim] + index) * inner
		copy(out[o*inner:(o+1)*inner], in[src:src+inner])
	}
	return result
}
