package ops

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// Needed when broadcasting was used in the forward pass:
//
//	Forward:  a[1,3,1,1] + b[1,3,224,224] -> c[1,3,224,224]
//	Backward: grad_c[1,3,224,224] -> grad_a[1,3,1,1] (summed over broadcast dims)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Clone on the identity path so in-map gradient accumulation never
	// aliases an op's stored output.
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	if len(targetShape) == 0 {
		return backend.Sum(grad)
	}

	// Shapes align from the right; sum away extra leading dims first.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = sumAlongDim(result, 0)
		result = result.WithShape(result.Shape()[1:].Clone())
	}

	// Then sum along dimensions where the target is 1.
	for d, size := range targetShape {
		if size == 1 && result.Shape()[d] > 1 {
			result = sumAlongDim(result, d)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = result.WithShape(targetShape)
	}
	return result
}

// sumAlongDim sums a tensor along one dimension, keeping it as size 1.
func sumAlongDim(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	outShape := shape.Clone()
	outShape[dim] = 1

	result, err := tensor.NewRaw(outShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("sumAlongDim: %v", err))
	}

	in, out := t.AsFloat32(), result.AsFloat32()
	outer := 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	inner := 1
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	size := shape[dim]

	for o := 0; o < outer; o++ {
		for j := 0; j < size; j++ {
			src := (o*size + j) * inner
			dst := o * inner
			for i := 0; i < inner; i++ {
				out[dst+i] += in[src+i]
			}
		}
	}
	return result
}

// broadcastTo expands a tensor to a larger shape by repeating broadcast
// dimensions. The source shape must be right-alignable against the target.
func broadcastTo(t *tensor.RawTensor, target tensor.Shape) *tensor.RawTensor {
	if t.Shape().Equal(target) {
		return t.Clone()
	}

	result, err := tensor.NewRaw(target, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("broadcastTo: %v", err))
	}

	in, out := t.AsFloat32(), result.AsFloat32()
	srcShape := t.Shape()
	srcStrides := srcShape.ComputeStrides()
	outStrides := target.ComputeStrides()
	offset := len(target) - len(srcShape)

	for i := range out {
		srcIdx := 0
		rem := i
		for d := 0; d < len(target); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			s := d - offset
			if s >= 0 && srcShape[s] != 1 {
				srcIdx += coord * srcStrides[s]
			}
		}
		out[i] = in[srcIdx]
	}
	return result
}

// unsqueezeShape re-inserts a reduced dimension of size 1 so a gradient can
// be broadcast back against the pre-reduction shape.
func unsqueezeShape(s tensor.Shape, dim int) tensor.Shape {
	out := make(tensor.Shape, 0, len(s)+1)
	out = append(out, s[:dim]...)
	out = append(out, 1)
	out = append(out, s[dim:]...)
	return out
}
