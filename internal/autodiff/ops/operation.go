// Package ops defines the differentiable operations recorded on the
// gradient tape.
//
// Each operation stores the raw tensors of its forward pass and knows how
// to turn the gradient of its output into gradients of its inputs:
//   - AddOp/SubOp: gradient flows through, reduced over broadcast dims
//   - MulOp/DivOp: product/quotient rules
//   - MatMulOp: d(A@B)/dA = grad@Bᵀ, d(A@B)/dB = Aᵀ@grad
//   - Conv2DOp: input and kernel gradients via the backend's conv backward kernels
//   - ReLUOp: gradient masked where the input was non-positive
//   - ReshapeOp/TransposeOp/SelectOp: gradient routed back to the source layout
//   - MeanOp/MeanDimOp: gradient broadcast back, scaled by 1/size
//   - MulScalarOp/AddScalarOp: scaled/identity gradient
package ops

import "github.com/lucid-ml/lucid/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Operations are recorded during the forward pass and replayed in reverse
// by the gradient tape.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns one gradient per input tensor (nil where no gradient flows).
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
