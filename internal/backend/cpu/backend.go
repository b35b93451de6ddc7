// Package cpu implements the pure Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// CPUBackend implements tensor operations on the CPU.
//
// All operations allocate fresh output tensors and never modify their
// inputs; the autodiff decorator relies on this to keep tape entries valid.
// Only float32 tensors are supported — shape or dtype violations are
// programmer errors and panic, matching the rest of the backend API.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementWise("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementWise("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementWise("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementWise("div", a, b, func(x, y float32) float32 { return x / y })
}

// elementWise applies a binary function over two broadcast-compatible tensors.
func (cpu *CPUBackend) elementWise(name string, a, b *tensor.RawTensor, f func(x, y float32) float32) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := newFloat32(outShape, cpu.device, name)
	aData, bData, outData := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		// Fast path: same shape, flat iteration.
		for i := range outData {
			outData[i] = f(aData[i], bData[i])
		}
		return result
	}

	// Slow path: walk the output space, mapping each coordinate back to the
	// (possibly broadcast) source element via zeroed strides.
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()

	for i := range outData {
		aIdx, bIdx := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			aIdx += coord * aStrides[d]
			bIdx += coord * bStrides[d]
		}
		outData[i] = f(aData[aIdx], bData[bIdx])
	}
	return result
}

// broadcastStrides computes per-output-dimension strides for a source shape,
// right-aligned against the output shape. Broadcast dimensions get stride 0
// so every output coordinate maps to the single source element.
func broadcastStrides(src, out tensor.Shape) []int {
	srcStrides := src.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(src)
	for d := range out {
		s := d - offset
		if s < 0 || src[s] == 1 && out[d] != 1 {
			strides[d] = 0
		} else {
			strides[d] = srcStrides[s]
		}
	}
	return strides
}

// newFloat32 allocates a float32 tensor or panics with the op name.
func newFloat32(shape tensor.Shape, device tensor.Device, op string) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, tensor.Float32, device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}
