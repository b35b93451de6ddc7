package cpu

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) → (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v @ %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions must match, got %v @ %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	result := newFloat32(tensor.Shape{m, n}, cpu.device, "matmul")

	aData, bData, outData := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()

	// i-k-j loop order keeps the inner loop sequential over both b and out.
	for i := 0; i < m; i++ {
		outRow := outData[i*n : (i+1)*n]
		for kk := 0; kk < k; kk++ {
			av := aData[i*k+kk]
			if av == 0 {
				continue
			}
			bRow := bData[kk*n : (kk+1)*n]
			for j := range outRow {
				outRow[j] += av * bRow[j]
			}
		}
	}
	return result
}
