// Package nn implements the neural network modules used by the feature
// visualization engine.
//
// This package provides building blocks for constructing image encoders:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient tracking
//   - Linear, Conv2D: Computation layers
//   - ReLU, Flatten: Parameterless layers
//   - Sequential: Container for stacking layers
//
// Two extensions support model introspection:
//   - Composite: modules that expose their children by name, so a model
//     can be walked into a flat path -> layer directory
//   - forward hooks (see hook.go): observers that capture a layer's output
//     during Forward without changing the computation
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/lucid-ml/lucid/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[Backend](
//	    nn.NewConv2D(3, 16, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[Backend](),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter[B]

	// StateDict returns a map of parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameters from a state dictionary.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// NamedChild is a child module together with the name it is registered
// under in its parent. Dotted concatenation of these names forms the
// stable layer paths used by the inspection directory ("visual.conv1").
type NamedChild[B tensor.Backend] struct {
	Name   string
	Module Module[B]
}

// Composite is implemented by container modules that expose their children
// for traversal. Registration is explicit: a container reports exactly the
// children it was built with, in a stable order, so repeated walks of the
// same model always yield the same paths.
type Composite[B tensor.Backend] interface {
	// NamedChildren returns the direct children in registration order.
	NamedChildren() []NamedChild[B]
}
