package vision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucid-ml/lucid/internal/autodiff"
	"github.com/lucid-ml/lucid/internal/backend/cpu"
	"github.com/lucid-ml/lucid/internal/nn"
	"github.com/lucid-ml/lucid/internal/tensor"
)

type BE = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// newConvVisualizer builds a tiny fully convolutional encoder. At image
// size 8 the tapped layer "visual.conv1" outputs [1, 4, 8, 8].
func newConvVisualizer() *Visualizer[*cpu.CPUBackend] {
	backend := autodiff.New(cpu.New())

	visual := nn.NewGroup[BE]()
	visual.Add("conv1", nn.NewConv2D(3, 4, 3, 3, 1, 1, true, backend))
	visual.Add("relu1", nn.NewReLU[BE]())

	root := nn.NewGroup[BE]()
	root.Add("visual", visual)

	return NewVisualizer(root, backend)
}

// newDenseVisualizer builds an encoder ending in a dense head so the
// tapped layer output is rank-2. Image size must be 8.
func newDenseVisualizer() *Visualizer[*cpu.CPUBackend] {
	backend := autodiff.New(cpu.New())

	visual := nn.NewGroup[BE]()
	visual.Add("conv1", nn.NewConv2D(3, 4, 3, 3, 2, 1, true, backend)) // 8 -> 4
	visual.Add("relu1", nn.NewReLU[BE]())
	visual.Add("flatten", nn.NewFlatten[BE]())
	visual.Add("fc", nn.NewLinear(4*4*4, 5, backend))

	root := nn.NewGroup[BE]()
	root.Add("visual", visual)

	return NewVisualizer(root, backend)
}

func smallConfig(seed int64) Config {
	return Config{
		ImageSize:    8,
		Iterations:   20,
		LearningRate: 0.05,
		BlurEvery:    5,
		Seed:         seed,
	}
}

func TestGenerateImage_Deterministic(t *testing.T) {
	viz := newConvVisualizer()

	first, err := viz.GenerateImage("visual.conv1", 0, smallConfig(7), nil)
	require.NoError(t, err)
	second, err := viz.GenerateImage("visual.conv1", 0, smallConfig(7), nil)
	require.NoError(t, err)

	assert.Equal(t, first.Pix, second.Pix, "same seed and config must produce identical bytes")
}

func TestGenerateImage_SeedChangesOutput(t *testing.T) {
	viz := newConvVisualizer()

	a, err := viz.GenerateImage("visual.conv1", 0, smallConfig(7), nil)
	require.NoError(t, err)
	b, err := viz.GenerateImage("visual.conv1", 0, smallConfig(8), nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.Pix, b.Pix, "different seeds should diverge")
}

func TestGenerateImage_RasterDimensions(t *testing.T) {
	viz := newConvVisualizer()

	raster, err := viz.GenerateImage("visual.conv1", 0, smallConfig(1), nil)
	require.NoError(t, err)

	assert.Equal(t, 8, raster.Size)
	assert.Len(t, raster.Pix, 8*8*3)
}

func TestGenerateImage_MeanUnit(t *testing.T) {
	viz := newConvVisualizer()

	// A negative unit maximizes the mean over all channels.
	raster, err := viz.GenerateImage("visual.conv1", -1, smallConfig(3), nil)
	require.NoError(t, err)
	assert.Len(t, raster.Pix, 8*8*3)
}

func TestGenerateImage_DenseLayer(t *testing.T) {
	viz := newDenseVisualizer()

	raster, err := viz.GenerateImage("visual.fc", 2, smallConfig(5), nil)
	require.NoError(t, err)
	assert.Len(t, raster.Pix, 8*8*3)
}

func TestGenerateImage_ConfigValidation(t *testing.T) {
	viz := newConvVisualizer()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero size", func(c *Config) { c.ImageSize = 0 }},
		{"negative size", func(c *Config) { c.ImageSize = -8 }},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }},
		{"negative learning rate", func(c *Config) { c.LearningRate = -0.1 }},
		{"zero blur period", func(c *Config) { c.BlurEvery = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig(1)
			tt.mutate(&cfg)

			raster, err := viz.GenerateImage("visual.conv1", 0, cfg, nil)
			assert.Nil(t, raster)
			assert.True(t, errors.Is(err, ErrInvalidParameter), "err = %v", err)
		})
	}
}

func TestGenerateImage_UnknownLayer(t *testing.T) {
	viz := newConvVisualizer()

	raster, err := viz.GenerateImage("visual.conv9", 0, smallConfig(1), nil)
	assert.Nil(t, raster)
	assert.True(t, errors.Is(err, ErrLayerNotFound), "err = %v", err)
}

func TestGenerateImage_UnitOutOfRange(t *testing.T) {
	viz := newConvVisualizer()

	// conv1 has 4 output channels; unit 4 is one past the end.
	raster, err := viz.GenerateImage("visual.conv1", 4, smallConfig(1), nil)
	assert.Nil(t, raster)
	assert.True(t, errors.Is(err, ErrInvalidParameter), "err = %v", err)

	// The failed run must not leave a tap or a recording tape behind.
	raster, err = viz.GenerateImage("visual.conv1", 0, smallConfig(1), nil)
	require.NoError(t, err)
	assert.Len(t, raster.Pix, 8*8*3)
}

// rank3Layer outputs a rank-3 tensor, which the activation selector does
// not support.
type rank3Layer struct {
	hook nn.ForwardHook[BE]
}

func (m *rank3Layer) Forward(input *tensor.Tensor[float32, BE]) *tensor.Tensor[float32, BE] {
	shape := input.Shape()
	out := input.Reshape(shape[0], shape[1], shape[2]*shape[3])
	if m.hook != nil {
		m.hook(out)
	}
	return out
}

func (m *rank3Layer) Parameters() []*nn.Parameter[BE] { return nil }

func (m *rank3Layer) StateDict() map[string]*tensor.RawTensor { return map[string]*tensor.RawTensor{} }

func (m *rank3Layer) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

func (m *rank3Layer) RegisterForwardHook(fn nn.ForwardHook[BE]) func() {
	m.hook = fn
	return func() { m.hook = nil }
}

func TestGenerateImage_UnsupportedLayerShape(t *testing.T) {
	backend := autodiff.New(cpu.New())

	root := nn.NewGroup[BE]()
	root.Add("squash", &rank3Layer{})
	viz := NewVisualizer(root, backend)

	raster, err := viz.GenerateImage("squash", 0, smallConfig(1), nil)
	assert.Nil(t, raster)
	assert.True(t, errors.Is(err, ErrUnsupportedLayerShape), "err = %v", err)
}

func TestGenerateImage_ProgressCadence(t *testing.T) {
	viz := newConvVisualizer()

	cfg := smallConfig(2)
	cfg.Iterations = 40 // progress every 2 iterations

	var iterations []int
	progress := func(iteration, total int, activation float32) {
		assert.Equal(t, 40, total)
		assert.LessOrEqual(t, iteration, total)
		iterations = append(iterations, iteration)
	}

	_, err := viz.GenerateImage("visual.conv1", 0, cfg, progress)
	require.NoError(t, err)

	require.Len(t, iterations, 20)
	for i := 1; i < len(iterations); i++ {
		assert.Greater(t, iterations[i], iterations[i-1], "iterations must be strictly increasing")
	}
	assert.Equal(t, 40, iterations[len(iterations)-1], "final callback reports the last iteration")
}

func TestGenerateImage_FewIterationsStillProgress(t *testing.T) {
	viz := newConvVisualizer()

	cfg := smallConfig(2)
	cfg.Iterations = 3 // fewer iterations than samples: report every step

	calls := 0
	_, err := viz.GenerateImage("visual.conv1", 0, cfg, func(iteration, total int, activation float32) {
		calls++
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRaster_RGBA(t *testing.T) {
	r := &Raster{
		Size: 2,
		Pix: []uint8{
			255, 0, 0 /**/, 0, 255, 0,
			0, 0, 255 /**/, 10, 20, 30,
		},
	}

	cr, cg, cb, ca := r.RGBA(0, 0)
	assert.Equal(t, uint32(0xffff), cr)
	assert.Equal(t, uint32(0), cg)
	assert.Equal(t, uint32(0), cb)
	assert.Equal(t, uint32(0xffff), ca)

	cr, cg, cb, _ = r.RGBA(1, 1)
	assert.Equal(t, uint32(10*0x101), cr)
	assert.Equal(t, uint32(20*0x101), cg)
	assert.Equal(t, uint32(30*0x101), cb)
}

func TestTotalVariation(t *testing.T) {
	// Constant image has zero variation.
	flat := []float32{5, 5, 5, 5}
	assert.Equal(t, float32(0), totalVariation(flat, 1, 2, 2))

	// 2x2 single channel: |1-2| + |3-4| = 2 over 2 pairs horizontally,
	// |1-3| + |2-4| = 4 over 2 pairs vertically.
	img := []float32{1, 2, 3, 4}
	assert.InDelta(t, 1.0+2.0, totalVariation(img, 1, 2, 2), 1e-6)
}

func TestBoxBlur3(t *testing.T) {
	// Single bright pixel in a 3x3 image spreads to all neighbors with a
	// fixed divisor of 9, including the borders.
	img := []float32{
		0, 0, 0,
		0, 9, 0,
		0, 0, 0,
	}
	boxBlur3(img, 1, 3, 3)

	for i, v := range img {
		assert.InDelta(t, 1.0, v, 1e-6, "pixel %d", i)
	}
}
