package nn

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// Flatten collapses all dimensions after the batch dimension into one.
//
// Input: [batch, d1, d2, ...] -> Output: [batch, d1*d2*...]
//
// Commonly placed between convolutional and fully connected layers.
type Flatten[B tensor.Backend] struct {
	hookSet[B]
}

// NewFlatten creates a new Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes the input to [batch, features].
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("Flatten.Forward: expected at least 2D input, got shape %v", shape))
	}

	features := 1
	for _, dim := range shape[1:] {
		features *= dim
	}

	output := input.Reshape(shape[0], features)
	f.fire(output)
	return output
}

// Parameters returns an empty slice (Flatten has no trainable parameters).
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map.
func (f *Flatten[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for Flatten.
func (f *Flatten[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}
