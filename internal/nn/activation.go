package nn

import (
	"github.com/lucid-ml/lucid/internal/tensor"
)

// ReLU applies the rectified linear unit element-wise: max(0, x).
type ReLU[B tensor.Backend] struct {
	hookSet[B]
}

// NewReLU creates a new ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU element-wise.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input.ReLU()
	r.fire(output)
	return output
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for ReLU.
func (r *ReLU[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}
