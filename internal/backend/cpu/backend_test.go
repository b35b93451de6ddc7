package cpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/lucid-ml/lucid/internal/tensor"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape, b *CPUBackend) *tensor.Tensor[float32, *CPUBackend] {
	t.Helper()
	tt, err := tensor.FromSlice(data, shape, b)
	if err != nil {
		t.Fatal(err)
	}
	return tt
}

func TestAdd_SameShape(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
	y := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2}, b)

	z := x.Add(y)

	want := []float32{11, 22, 33, 44}
	for i, v := range z.Data() {
		if v != want[i] {
			t.Errorf("z[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestAdd_Broadcast(t *testing.T) {
	b := New()

	// Bias-style broadcast: [1,2,1,1] over [1,2,2,2].
	x := fromSlice(t, []float32{1, 1, 1, 1, 2, 2, 2, 2}, tensor.Shape{1, 2, 2, 2}, b)
	bias := fromSlice(t, []float32{10, 20}, tensor.Shape{1, 2, 1, 1}, b)

	z := x.Add(bias)

	if !z.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("shape = %v", z.Shape())
	}
	want := []float32{11, 11, 11, 11, 22, 22, 22, 22}
	for i, v := range z.Data() {
		if v != want[i] {
			t.Errorf("z[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestAdd_DoesNotMutateInputs(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2}, tensor.Shape{2}, b)
	y := fromSlice(t, []float32{3, 4}, tensor.Shape{2}, b)

	_ = x.Add(y)

	if x.Data()[0] != 1 || y.Data()[0] != 3 {
		t.Error("Add mutated an input tensor")
	}
}

func TestSubMulDiv(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{6, 8}, tensor.Shape{2}, b)
	y := fromSlice(t, []float32{2, 4}, tensor.Shape{2}, b)

	if got := x.Sub(y).Data(); got[0] != 4 || got[1] != 4 {
		t.Errorf("Sub = %v", got)
	}
	if got := x.Mul(y).Data(); got[0] != 12 || got[1] != 32 {
		t.Errorf("Mul = %v", got)
	}
	if got := x.Div(y).Data(); got[0] != 3 || got[1] != 2 {
		t.Errorf("Div = %v", got)
	}
}

func TestMatMul(t *testing.T) {
	b := New()

	// [2,3] @ [3,2] = [2,2]
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	y := fromSlice(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2}, b)

	z := x.MatMul(y)

	if !z.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v", z.Shape())
	}
	want := []float32{58, 64, 139, 154}
	for i, v := range z.Data() {
		if v != want[i] {
			t.Errorf("z[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestConv2D_NoPadding(t *testing.T) {
	b := New()

	input := fromSlice(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3}, b)
	kernel := fromSlice(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2}, b)

	out := input.Conv2D(kernel, 1, 0)

	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v", out.Shape())
	}
	// Each output is the sum of a 2x2 window.
	want := []float32{12, 16, 24, 28}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("out[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestConv2D_Padding(t *testing.T) {
	b := New()

	input := fromSlice(t, []float32{1, 1, 1, 1}, tensor.Shape{1, 1, 2, 2}, b)
	kernel := fromSlice(t, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 1, 3, 3}, b)

	out := input.Conv2D(kernel, 1, 1)

	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v", out.Shape())
	}
	// With one ring of zero padding every 3x3 window sees all four ones.
	for i, v := range out.Data() {
		if v != 4 {
			t.Errorf("out[%d] = %g, want 4", i, v)
		}
	}
}

func TestConv2D_Stride(t *testing.T) {
	b := New()

	input := fromSlice(t, []float32{
		1, 0, 2, 0,
		0, 0, 0, 0,
		3, 0, 4, 0,
		0, 0, 0, 0,
	}, tensor.Shape{1, 1, 4, 4}, b)
	kernel := fromSlice(t, []float32{1}, tensor.Shape{1, 1, 1, 1}, b)

	out := input.Conv2D(kernel, 2, 0)

	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v", out.Shape())
	}
	want := []float32{1, 2, 3, 4}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("out[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestSelect(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)

	col := x.Select(1, 1)
	if !col.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("shape = %v", col.Shape())
	}
	if col.Data()[0] != 2 || col.Data()[1] != 5 {
		t.Errorf("col = %v, want [2 5]", col.Data())
	}

	// Channel selection on a rank-4 tensor.
	y := fromSlice(t, []float32{
		1, 2, 3, 4, // channel 0
		5, 6, 7, 8, // channel 1
	}, tensor.Shape{1, 2, 2, 2}, b)
	ch := y.Select(1, 1)
	if !ch.Shape().Equal(tensor.Shape{1, 2, 2}) {
		t.Fatalf("shape = %v", ch.Shape())
	}
	want := []float32{5, 6, 7, 8}
	for i, v := range ch.Data() {
		if v != want[i] {
			t.Errorf("ch[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestReductions(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)

	if got := x.Sum().Raw().AsFloat32()[0]; got != 10 {
		t.Errorf("Sum = %g, want 10", got)
	}
	if got := x.Mean().Raw().AsFloat32()[0]; got != 2.5 {
		t.Errorf("Mean = %g, want 2.5", got)
	}

	rows := x.MeanDim(1, false)
	if !rows.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("shape = %v", rows.Shape())
	}
	if rows.Data()[0] != 1.5 || rows.Data()[1] != 3.5 {
		t.Errorf("MeanDim = %v, want [1.5 3.5]", rows.Data())
	}

	kept := x.MeanDim(0, true)
	if !kept.Shape().Equal(tensor.Shape{1, 2}) {
		t.Fatalf("keepDim shape = %v", kept.Shape())
	}
	if kept.Data()[0] != 2 || kept.Data()[1] != 3 {
		t.Errorf("MeanDim keepDim = %v, want [2 3]", kept.Data())
	}
}

func TestTranspose(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)

	xt := x.T()
	if !xt.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v", xt.Shape())
	}
	want := []float32{1, 4, 2, 5, 3, 6}
	for i, v := range xt.Data() {
		if v != want[i] {
			t.Errorf("xt[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestReshape(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)

	r := x.Reshape(3, 2)
	if !r.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v", r.Shape())
	}
	// Row-major data order is preserved.
	for i, v := range r.Data() {
		if v != float32(i+1) {
			t.Errorf("r[%d] = %g, want %d", i, v, i+1)
		}
	}
}

func TestReLU(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{-2, -0.5, 0, 1.5}, tensor.Shape{4}, b)

	y := x.ReLU()
	want := []float32{0, 0, 0, 1.5}
	for i, v := range y.Data() {
		if v != want[i] {
			t.Errorf("y[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestScalarOps(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, -2}, tensor.Shape{2}, b)

	if got := x.MulScalar(-1).Data(); got[0] != -1 || got[1] != 2 {
		t.Errorf("MulScalar = %v", got)
	}
	if got := x.AddScalar(10).Data(); got[0] != 11 || got[1] != 8 {
		t.Errorf("AddScalar = %v", got)
	}
}

func TestRandnFrom_Deterministic(t *testing.T) {
	b := New()

	a := tensor.RandnFrom[float32](tensor.Shape{3, 5}, rand.New(rand.NewSource(42)), b)
	c := tensor.RandnFrom[float32](tensor.Shape{3, 5}, rand.New(rand.NewSource(42)), b)

	for i := range a.Data() {
		if a.Data()[i] != c.Data()[i] {
			t.Fatal("same seed produced different tensors")
		}
	}

	d := tensor.RandnFrom[float32](tensor.Shape{3, 5}, rand.New(rand.NewSource(43)), b)
	same := true
	for i := range a.Data() {
		if a.Data()[i] != d.Data()[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical tensors")
	}
}

// zeroSource always yields 0, driving rand.Float64 to the low edge of its
// [0, 1) range.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

func TestRandnFrom_EdgeUniformStaysFinite(t *testing.T) {
	b := New()

	tt := tensor.RandnFrom[float32](tensor.Shape{3, 3}, rand.New(zeroSource{}), b)
	for i, v := range tt.Data() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("data[%d] = %g, want finite", i, v)
		}
	}
}

func TestAdd_ShapeMismatchPanics(t *testing.T) {
	b := New()
	x := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3}, b)
	y := fromSlice(t, []float32{1, 2}, tensor.Shape{2}, b)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for incompatible shapes")
		}
	}()
	x.Add(y)
}
