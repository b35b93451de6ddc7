package tensor

// Backend defines the interface that compute backends must implement.
//
// The operation set is scoped to what lucid's vision networks and the
// activation-maximization engine need: element-wise arithmetic with
// broadcasting, matrix multiplication, 2D convolution with the two
// backward kernels the autodiff layer requires, shape manipulation,
// reductions, and the channel/feature selection used to read a unit's
// activation out of a layer output.
//
// Implementations:
//   - backend/cpu: pure Go float32 implementation
//
// Decorator backends:
//   - autodiff: gradient tracking (wraps any Backend)
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix multiplication for 2D tensors.
	MatMul(a, b *RawTensor) *RawTensor

	// 2D convolution and its gradients.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar float32) *RawTensor
	AddScalar(x *RawTensor, scalar float32) *RawTensor

	// Activation functions.
	ReLU(x *RawTensor) *RawTensor

	// Indexing.
	Select(x *RawTensor, dim, index int) *RawTensor // Slice out one index along dim (dim is removed).

	// Reductions.
	Sum(x *RawTensor) *RawTensor                            // Total sum (scalar result).
	Mean(x *RawTensor) *RawTensor                           // Total mean (scalar result).
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor // Mean along dimension.

	// Metadata.
	Name() string
	Device() Device
}
