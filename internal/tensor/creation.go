package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with random values from a standard normal
// distribution using the shared math/rand source.
//
// For reproducible runs use RandnFrom with an explicitly seeded source.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return randnFill[T, B](shape, b, rand.Float64)
}

// RandnFrom creates a tensor with random values from a standard normal
// distribution drawn from the given source.
//
// The activation-maximization engine uses this for seeded, bit-reproducible
// image initialization: a fixed seed always produces the same tensor.
func RandnFrom[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	return randnFill[T, B](shape, b, rng.Float64)
}

// randnFill fills a new tensor using the Box-Muller transform.
func randnFill[T DType, B Backend](shape Shape, b B, uniform func() float64) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	for i := 0; i < len(data); i += 2 {
		u1 := uniform() //nolint:gosec // math/rand is intentional: ML needs reproducibility, not cryptography
		u2 := uniform() //nolint:gosec // see above
		// uniform() ranges over [0, 1); flip to (0, 1] so Log never sees 0.
		r := math.Sqrt(-2.0 * math.Log(1.0-u1))
		data[i] = T(r * math.Cos(2.0*math.Pi*u2))
		if i+1 < len(data) {
			data[i+1] = T(r * math.Sin(2.0*math.Pi*u2))
		}
	}
	return t
}
