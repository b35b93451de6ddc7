// Package optim implements gradient-based optimizers.
//
// The visualization engine treats the synthesized image as the single
// trainable parameter and runs Adam on it, but the optimizers here work on
// any parameter list.
//
// Example:
//
//	optimizer := optim.NewAdam(params, optim.AdamConfig{LR: 0.05}, backend)
//
//	for range iterations {
//	    backend.Tape().StartRecording()
//	    loss := objective(params)
//	    grads := autodiff.Backward(loss, backend)
//	    optimizer.Step(grads)
//	    backend.Tape().Clear()
//	}
package optim

import (
	"github.com/lucid-ml/lucid/internal/nn"
	"github.com/lucid-ml/lucid/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters in-place.
	//
	// Takes the gradient map produced by autodiff.Backward.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// getGradient retrieves the gradient for a parameter, or nil if the
// parameter was not part of the computation graph.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
