package ops

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// ReshapeOp represents a reshape: output = reshape(x, newShape).
//
// Reshape must be recorded even though it is conceptually a view — the
// backend produces a new tensor, and without a tape entry gradients would
// stop at the reshaped copy instead of flowing back to the original.
type ReshapeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{input: input, output: output}
}

// Backward reshapes the gradient back to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}

// Inputs returns the input tensor [x].
func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the reshaped tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor { return op.output }

// TransposeOp represents a dimension permutation: output = transpose(x, axes).
//
// The gradient is transposed by the inverse permutation.
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

// NewTransposeOp creates a new TransposeOp.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{input: input, output: output, axes: axes}
}

// Backward applies the inverse permutation to the gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// Inputs returns the input tensor [x].
func (op *TransposeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the transposed tensor.
func (op *TransposeOp) Output() *tensor.RawTensor { return op.output }

// SelectOp represents slicing one index out of a dimension:
// output = x[..., index, ...] with the dimension removed.
//
// The backward pass scatters the gradient into a zero tensor of the input
// shape at the selected index; every other slice receives zero gradient.
type SelectOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
	index  int
}

// NewSelectOp creates a new SelectOp.
func NewSelectOp(input, output *tensor.RawTensor, dim, index int) *SelectOp {
	return &SelectOp{input: input, output: output, dim: dim, index: index}
}

// Backward scatters the gradient back into the selected slice.
func (op *SelectOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	gradInput, err := tensor.NewRaw(shape, op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("select backward: %v", err))
	}

	g, gi := outputGrad.AsFloat32(), gradInput.AsFloat32()

	outer := 1
	for _, d := range shape[:op.dim] {
		outer *= d
	}
	inner := 1
	for _, d := range shape[op.dim+1:] {
		inner *= d
	}

	for o := 0; o < outer; o++ {
		dst := (o*shape[op.dim] + op.index) * inner
		copy(gi[dst:dst+inner], g[o*inner:(o+1)*inner])
	}
	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *SelectOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the selected slice.
func (op *SelectOp) Output() *tensor.RawTensor { return op.output }
