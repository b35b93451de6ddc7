package cpu

import "github.com/lucid-ml/lucid/internal/tensor"

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := newFloat32(x.Shape(), cpu.device, "relu")
	in, out := x.AsFloat32(), result.AsFloat32()
	for i, v := range in {
		if v > 0 {
			out[i] = v
		}
	}
	return result
}
