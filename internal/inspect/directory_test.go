package inspect

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucid-ml/lucid/internal/backend/cpu"
	"github.com/lucid-ml/lucid/internal/nn"
	"github.com/lucid-ml/lucid/internal/tensor"
)

type B = *cpu.CPUBackend

// buildModel returns a two-block encoder with predictable layer paths.
func buildModel(b B) nn.Module[B] {
	visual := nn.NewGroup[B]()
	visual.Add("conv1", nn.NewConv2D(3, 8, 3, 3, 1, 1, true, b))
	visual.Add("relu1", nn.NewReLU[B]())
	visual.Add("flatten", nn.NewFlatten[B]())
	visual.Add("fc", nn.NewLinear(32, 16, b))

	root := nn.NewGroup[B]()
	root.Add("visual", visual)
	return root
}

func TestDirectory_LayersSortedAndComplete(t *testing.T) {
	d := NewDirectory(buildModel(cpu.New()))

	layers := d.Layers()
	assert.True(t, sort.StringsAreSorted(layers), "layers must be sorted")
	assert.Equal(t, []string{
		"visual",
		"visual.conv1",
		"visual.fc",
		"visual.flatten",
		"visual.relu1",
	}, layers)

	// Every listed path resolves.
	for _, path := range layers {
		_, ok := d.Layer(path)
		assert.True(t, ok, "path %q must resolve", path)
	}
}

func TestDirectory_Deterministic(t *testing.T) {
	b := cpu.New()
	model := buildModel(b)

	first := NewDirectory(model).Layers()
	second := NewDirectory(model).Layers()
	assert.Equal(t, first, second)
}

func TestDirectory_Describe(t *testing.T) {
	d := NewDirectory(buildModel(cpu.New()))

	conv, ok := d.Describe("visual.conv1")
	require.True(t, ok)
	assert.Equal(t, "conv2d", conv.Kind)
	assert.Equal(t, 8*3*3*3+8, conv.Parameters) // weight + bias
	assert.Equal(t, 8, conv.OutputWidth)

	fc, ok := d.Describe("visual.fc")
	require.True(t, ok)
	assert.Equal(t, "linear", fc.Kind)
	assert.Equal(t, 16*32+16, fc.Parameters)
	assert.Equal(t, 16, fc.OutputWidth)

	relu, ok := d.Describe("visual.relu1")
	require.True(t, ok)
	assert.Equal(t, "relu", relu.Kind)
	assert.Equal(t, 0, relu.Parameters)
	assert.Equal(t, 0, relu.OutputWidth)

	// A container reports the parameter total of its whole subtree.
	group, ok := d.Describe("visual")
	require.True(t, ok)
	assert.Equal(t, "group", group.Kind)
	assert.Equal(t, conv.Parameters+fc.Parameters, group.Parameters)

	_, ok = d.Describe("no.such.layer")
	assert.False(t, ok)
}

func TestDirectory_UnitsNaming(t *testing.T) {
	d := NewDirectory(buildModel(cpu.New()))

	units, err := d.Units("visual.fc")
	require.NoError(t, err)
	require.Len(t, units, 16)
	assert.Equal(t, "neuron_0", units[0])
	assert.Equal(t, "neuron_15", units[15])

	units, err = d.Units("visual.conv1")
	require.NoError(t, err)
	require.Len(t, units, 8)
	assert.Equal(t, "channel_0", units[0])

	// A parameterless layer has no units, but that is not an error.
	units, err = d.Units("visual.relu1")
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestDirectory_UnitsUnknownPath(t *testing.T) {
	d := NewDirectory(buildModel(cpu.New()))

	_, err := d.Units("visual.conv9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLayerNotFound))
}

// weightOnly is a module that exposes only a raw weight tensor, with no
// declared output features or channels.
type weightOnly struct {
	weight *tensor.RawTensor
}

func (m *weightOnly) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input
}

func (m *weightOnly) Parameters() []*nn.Parameter[B] { return nil }

func (m *weightOnly) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{"weight": m.weight}
}

func (m *weightOnly) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

func TestDirectory_UnitsGenericCapped(t *testing.T) {
	weight, err := tensor.NewRaw(tensor.Shape{1000, 2}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	root := nn.NewGroup[B]()
	root.Add("embed", &weightOnly{weight: weight})

	d := NewDirectory[B](root)

	units, unitsErr := d.Units("embed")
	require.NoError(t, unitsErr)
	require.Len(t, units, 768)
	assert.Equal(t, "unit_0", units[0])
	assert.Equal(t, "unit_767", units[767])

	info, ok := d.Describe("embed")
	require.True(t, ok)
	assert.Equal(t, "module", info.Kind)
}

func TestDirectory_SequentialIndexPaths(t *testing.T) {
	b := cpu.New()
	seq := nn.NewSequential[B](
		nn.NewConv2D(3, 4, 3, 3, 1, 1, true, b),
		nn.NewReLU[B](),
	)
	root := nn.NewGroup[B]()
	root.Add("features", seq)

	d := NewDirectory[B](root)
	assert.Equal(t, []string{"features", "features.0", "features.1"}, d.Layers())

	info, ok := d.Describe("features.0")
	require.True(t, ok)
	assert.Equal(t, "conv2d", info.Kind)
}
