package ops

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// ReLUOp represents a ReLU activation: output = max(0, x).
//
// d(ReLU(x))/dx = 1 where x > 0, else 0.
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Backward computes the input gradient for ReLU.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("relu backward: %v", err))
	}

	in, m := op.input.AsFloat32(), mask.AsFloat32()
	for i, v := range in {
		if v > 0 {
			m[i] = 1
		}
	}

	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

// Inputs returns the input tensor [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }
