package ops

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// MeanOp represents a full reduction to the scalar mean: output = mean(x).
//
// Backward: grad_x[i] = grad_out / numElements for every element.
type MeanOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewMeanOp creates a new MeanOp.
func NewMeanOp(input, output *tensor.RawTensor) *MeanOp {
	return &MeanOp{input: input, output: output}
}

// Backward spreads the scalar gradient uniformly over the input.
func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	gradInput, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("mean backward: %v", err))
	}

	g := outputGrad.AsFloat32()[0] / float32(op.input.NumElements())
	gi := gradInput.AsFloat32()
	for i := range gi {
		gi[i] = g
	}
	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *MeanOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the scalar mean.
func (op *MeanOp) Output() *tensor.RawTensor { return op.output }

// MeanDimOp represents a mean reduction along one dimension:
// output = mean(x, dim, keepDim).
//
// Backward: the gradient is broadcast back over the reduced dimension and
// scaled by 1/size of that dimension.
type MeanDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewMeanDimOp creates a new MeanDimOp.
func NewMeanDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	if dim < 0 {
		dim += len(input.Shape())
	}
	return &MeanDimOp{input: input, output: output, dim: dim, keepDim: keepDim}
}

// Backward broadcasts the gradient back over the reduced dimension.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		grad = grad.WithShape(unsqueezeShape(grad.Shape(), op.dim))
	}

	gradInput := broadcastTo(grad, op.input.Shape())
	scale := 1.0 / float32(op.input.Shape()[op.dim])
	return []*tensor.RawTensor{backend.MulScalar(gradInput, scale)}
}

// Inputs returns the input tensor [x].
func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the reduced tensor.
func (op *MeanDimOp) Output() *tensor.RawTensor { return op.output }
