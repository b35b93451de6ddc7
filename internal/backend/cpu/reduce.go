package cpu

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// Sum reduces a tensor to its scalar total.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := newFloat32(tensor.Shape{}, cpu.device, "sum")
	var sum float32
	for _, v := range x.AsFloat32() {
		sum += v
	}
	result.AsFloat32()[0] = sum
	return result
}

// Mean reduces a tensor to its scalar mean.
func (cpu *CPUBackend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.Sum(x)
	result.AsFloat32()[0] /= float32(x.NumElements())
	return result
}

// MeanDim computes the mean along a dimension.
//
// With keepDim the reduced dimension stays as size 1; otherwise it is
// removed from the output shape.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("meandim: invalid dimension %d for shape %v", dim, shape))
	}

	outShape := make(tensor.Shape, 0, len(shape))
	outShape = append(outShape, shape[:dim]...)
	if keepDim {
		outShape = append(outShape, 1)
	}
	outShape = append(outShape, shape[dim+1:]...)

	result := newFloat32(outShape, cpu.device, "meandim")
	in, out := x.AsFloat32(), result.AsFloat32()

	outer := 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	inner := 1
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	size := shape[dim]
	scale := 1.0 / float32(size)

	for o := 0; o < outer; o++ {
		for j := 0; j < size; j++ {
			src := (o*size + j) * inner
			dst := o * inner
			for i := 0; i < inner; i++ {
				out[dst+i] += in[src+i]
			}
		}
		for i := 0; i < inner; i++ {
			out[o*inner+i] *= scale
		}
	}
	return result
}
