package autodiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucid-ml/lucid/internal/backend/cpu"
	"github.com/lucid-ml/lucid/internal/tensor"
)

type testBackend = *AutodiffBackend[*cpu.CPUBackend]

func newTestBackend() testBackend {
	return New(cpu.New())
}

func fromSlice(t *testing.T, data []float32, shape tensor.Shape, b testBackend) *tensor.Tensor[float32, testBackend] {
	t.Helper()
	tt, err := tensor.FromSlice(data, shape, b)
	require.NoError(t, err)
	return tt
}

func TestBackward_Square(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, []float32{2, 3}, tensor.Shape{2}, b)
	y := x.Mul(x) // y = x², dy/dx = 2x

	// Seeding ones over y gives per-element 2x.
	grads := Backward(y, b)

	grad := grads[x.Raw()]
	require.NotNil(t, grad)
	assert.Equal(t, []float32{4, 6}, grad.AsFloat32())
}

func TestBackward_MulScalarChain(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
	loss := x.Mean().MulScalar(-1) // d(loss)/dx = -1/4

	grads := Backward(loss, b)

	grad := grads[x.Raw()]
	require.NotNil(t, grad)
	for _, g := range grad.AsFloat32() {
		assert.InDelta(t, -0.25, g, 1e-6)
	}
}

func TestBackward_AddBroadcastReduces(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
	bias := fromSlice(t, []float32{10, 20}, tensor.Shape{1, 2}, b)

	y := x.Add(bias)
	grads := Backward(y, b)

	// The bias gradient is summed over the broadcast (row) dimension.
	biasGrad := grads[bias.Raw()]
	require.NotNil(t, biasGrad)
	require.True(t, biasGrad.Shape().Equal(tensor.Shape{1, 2}), "shape = %v", biasGrad.Shape())
	assert.Equal(t, []float32{2, 2}, biasGrad.AsFloat32())

	xGrad := grads[x.Raw()]
	require.NotNil(t, xGrad)
	assert.Equal(t, []float32{1, 1, 1, 1}, xGrad.AsFloat32())
}

func TestBackward_MatMul(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
	w := fromSlice(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2}, b)

	y := a.MatMul(w)
	grads := Backward(y, b)

	// With outputGrad = ones: gradA = ones @ wᵀ, gradW = aᵀ @ ones.
	gradA := grads[a.Raw()]
	require.NotNil(t, gradA)
	assert.Equal(t, []float32{11, 15, 11, 15}, gradA.AsFloat32())

	gradW := grads[w.Raw()]
	require.NotNil(t, gradW)
	assert.Equal(t, []float32{4, 4, 6, 6}, gradW.AsFloat32())
}

func TestBackward_ReLU(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, []float32{-1, 2, -3, 4}, tensor.Shape{4}, b)
	y := x.ReLU()

	grads := Backward(y, b)

	grad := grads[x.Raw()]
	require.NotNil(t, grad)
	assert.Equal(t, []float32{0, 1, 0, 1}, grad.AsFloat32())
}

func TestBackward_Select(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	loss := x.Select(1, 1).Mean() // mean of column 1

	grads := Backward(loss, b)

	grad := grads[x.Raw()]
	require.NotNil(t, grad)
	require.True(t, grad.Shape().Equal(tensor.Shape{2, 3}))
	// Gradient lands only on the selected column, scaled by 1/2.
	assert.Equal(t, []float32{0, 0.5, 0, 0, 0.5, 0}, grad.AsFloat32())
}

func TestBackward_Conv2D(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	input := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, b)
	kernel := fromSlice(t, []float32{3}, tensor.Shape{1, 1, 1, 1}, b)

	// 1x1 kernel: out = 3 * input, so mean(out) = 3 * mean(input).
	loss := input.Conv2D(kernel, 1, 0).Mean()

	grads := Backward(loss, b)

	inputGrad := grads[input.Raw()]
	require.NotNil(t, inputGrad)
	for _, g := range inputGrad.AsFloat32() {
		assert.InDelta(t, 0.75, g, 1e-6) // 3/4
	}

	kernelGrad := grads[kernel.Raw()]
	require.NotNil(t, kernelGrad)
	assert.InDelta(t, 2.5, kernelGrad.AsFloat32()[0], 1e-6) // mean(input)
}

func TestBackward_MeanDim(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	loss := x.MeanDim(1, false).Mean() // same as mean over all

	grads := Backward(loss, b)

	grad := grads[x.Raw()]
	require.NotNil(t, grad)
	for _, g := range grad.AsFloat32() {
		assert.InDelta(t, 1.0/6.0, g, 1e-6)
	}
}

func TestBackward_Div(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, []float32{6, 8}, tensor.Shape{2}, b)
	y := fromSlice(t, []float32{2, 4}, tensor.Shape{2}, b)

	z := x.Div(y)
	grads := Backward(z, b)

	// d(x/y)/dx = 1/y, d(x/y)/dy = -x/y².
	gradX := grads[x.Raw()]
	require.NotNil(t, gradX)
	assert.InDelta(t, 0.5, gradX.AsFloat32()[0], 1e-6)
	assert.InDelta(t, 0.25, gradX.AsFloat32()[1], 1e-6)

	gradY := grads[y.Raw()]
	require.NotNil(t, gradY)
	assert.InDelta(t, -1.5, gradY.AsFloat32()[0], 1e-6)
	assert.InDelta(t, -0.5, gradY.AsFloat32()[1], 1e-6)
}

func TestBackward_MatchesFiniteDifference(t *testing.T) {
	// Differentiate the engine's sub-graph (conv -> relu -> select -> mean)
	// and compare against a central finite difference at every input pixel.
	kernelData := []float32{0.5, -0.25, 1, 0.75}
	inputData := []float32{0.2, -0.4, 0.6, 0.1, 0.3, -0.2, 0.8, -0.5, 0.7}

	eval := func(in []float32) float32 {
		plain := cpu.New()
		x, err := tensor.FromSlice(in, tensor.Shape{1, 1, 3, 3}, plain)
		require.NoError(t, err)
		k, err := tensor.FromSlice(kernelData, tensor.Shape{1, 1, 2, 2}, plain)
		require.NoError(t, err)
		return x.Conv2D(k, 1, 0).ReLU().Select(1, 0).Mean().Raw().AsFloat32()[0]
	}

	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, inputData, tensor.Shape{1, 1, 3, 3}, b)
	k := fromSlice(t, kernelData, tensor.Shape{1, 1, 2, 2}, b)
	loss := x.Conv2D(k, 1, 0).ReLU().Select(1, 0).Mean()

	grads := Backward(loss, b)
	grad := grads[x.Raw()]
	require.NotNil(t, grad)
	gradData := grad.AsFloat32()

	const h = 1e-2
	for i := range inputData {
		plus := append([]float32(nil), inputData...)
		minus := append([]float32(nil), inputData...)
		plus[i] += h
		minus[i] -= h

		numeric := (eval(plus) - eval(minus)) / (2 * h)
		assert.InDelta(t, numeric, gradData[i], 1e-3, "pixel %d", i)
	}
}

func TestTape_RecordingControl(t *testing.T) {
	b := newTestBackend()
	x := fromSlice(t, []float32{1, 2}, tensor.Shape{2}, b)

	// Nothing recorded while the tape is off.
	_ = x.Mul(x)
	assert.Equal(t, 0, b.Tape().NumOps())

	b.Tape().StartRecording()
	_ = x.Mul(x)
	assert.Equal(t, 1, b.Tape().NumOps())

	b.Tape().Clear()
	assert.Equal(t, 0, b.Tape().NumOps())
	assert.True(t, b.Tape().IsRecording(), "Clear must not stop recording")

	b.Tape().StopRecording()
	_ = x.Mul(x)
	assert.Equal(t, 0, b.Tape().NumOps())
}

func TestBackward_GradientAccumulation(t *testing.T) {
	b := newTestBackend()
	b.Tape().StartRecording()

	x := fromSlice(t, []float32{3}, tensor.Shape{1}, b)
	y := x.Add(x) // x used twice: dy/dx = 2

	grads := Backward(y, b)

	grad := grads[x.Raw()]
	require.NotNil(t, grad)
	assert.Equal(t, float32(2), grad.AsFloat32()[0])
}
