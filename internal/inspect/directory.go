// Package inspect presents a network's sub-components as a flat, queryable
// catalog of dotted layer paths.
//
// A Directory is built once by walking the model's named children
// (containers expose them via nn.Composite) and never touches the network
// again: queries are pure metadata lookups with no gradients and no
// mutation.
package inspect

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lucid-ml/lucid/internal/nn"
	"github.com/lucid-ml/lucid/internal/tensor"
)

// ErrLayerNotFound is returned when a layer path does not resolve in the
// network.
var ErrLayerNotFound = errors.New("layer not found")

// maxGenericUnits bounds unit enumeration for layers whose width is only
// known from a raw weight shape, to avoid pathological listings.
const maxGenericUnits = 768

// LayerInfo describes one addressable sub-component of a network.
type LayerInfo struct {
	Path string // Dotted path from the network root (e.g., "visual.conv1")
	Kind string // Component kind ("linear", "conv2d", "relu", ...)

	// Parameters is the number of learnable scalars in the layer's whole
	// subtree (a container reports the sum over its descendants).
	Parameters int

	// OutputWidth is the declared output axis size (out_features for dense
	// layers, out_channels for convolutions), or 0 when the layer does not
	// declare one.
	OutputWidth int
}

// Directory is a catalog of the named sub-components of a single network.
//
// It is immutable after construction and safe for concurrent queries.
type Directory[B tensor.Backend] struct {
	paths  []string // Sorted, duplicate-free
	byPath map[string]nn.Module[B]
}

// NewDirectory builds a Directory by walking root's named children.
//
// Every named sub-component, including nested containers, is recorded
// under its dotted path. The root itself has no name and is not listed.
// Walking the same network twice yields identical catalogs: containers
// report their children in registration order and the result is sorted.
func NewDirectory[B tensor.Backend](root nn.Module[B]) *Directory[B] {
	d := &Directory[B]{
		byPath: make(map[string]nn.Module[B]),
	}
	d.walk("", root)
	sort.Strings(d.paths)
	return d
}

func (d *Directory[B]) walk(prefix string, module nn.Module[B]) {
	composite, ok := module.(nn.Composite[B])
	if !ok {
		return
	}
	for _, child := range composite.NamedChildren() {
		path := child.Name
		if prefix != "" {
			path = prefix + "." + child.Name
		}
		if _, dup := d.byPath[path]; dup {
			panic(fmt.Sprintf("inspect: duplicate layer path %q", path))
		}
		d.byPath[path] = child.Module
		d.paths = append(d.paths, path)
		d.walk(path, child.Module)
	}
}

// Layers returns all layer paths, sorted lexicographically.
func (d *Directory[B]) Layers() []string {
	out := make([]string, len(d.paths))
	copy(out, d.paths)
	return out
}

// Layer resolves a path to its module. The second result reports whether
// the path exists.
func (d *Directory[B]) Layer(path string) (nn.Module[B], bool) {
	m, ok := d.byPath[path]
	return m, ok
}

// Describe returns metadata for the layer at path. An unknown path returns
// a zero LayerInfo and false; callers decide whether that is fatal.
func (d *Directory[B]) Describe(path string) (LayerInfo, bool) {
	module, ok := d.byPath[path]
	if !ok {
		return LayerInfo{}, false
	}

	info := LayerInfo{
		Path: path,
		Kind: kindOf(module),
	}
	for _, p := range module.Parameters() {
		info.Parameters += p.NumElements()
	}
	if w, ok := outputWidth(module); ok {
		info.OutputWidth = w
	}
	return info, true
}

// Units returns the unit names of the layer at path, one per slot of its
// output axis.
//
// The axis size is derived in priority order: declared output features
// (named "neuron_<i>"), declared output channels ("channel_<i>"), then the
// leading dimension of the layer's raw weight ("unit_<i>", capped at 768).
// A known layer with none of these yields an empty slice. Only an unknown
// path is an error.
func (d *Directory[B]) Units(path string) ([]string, error) {
	module, ok := d.byPath[path]
	if !ok {
		return nil, fmt.Errorf("units of %q: %w", path, ErrLayerNotFound)
	}

	if l, ok := module.(interface{ OutFeatures() int }); ok {
		return unitNames("neuron", l.OutFeatures()), nil
	}
	if c, ok := module.(interface{ OutChannels() int }); ok {
		return unitNames("channel", c.OutChannels()), nil
	}
	if weight, ok := module.StateDict()["weight"]; ok {
		n := weight.Shape()[0]
		if n > maxGenericUnits {
			n = maxGenericUnits
		}
		return unitNames("unit", n), nil
	}
	return []string{}, nil
}

func unitNames(category string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s_%d", category, i)
	}
	return names
}

func kindOf[B tensor.Backend](module nn.Module[B]) string {
	switch module.(type) {
	case *nn.Linear[B]:
		return "linear"
	case *nn.Conv2D[B]:
		return "conv2d"
	case *nn.ReLU[B]:
		return "relu"
	case *nn.Flatten[B]:
		return "flatten"
	case *nn.Sequential[B]:
		return "sequential"
	case *nn.Group[B]:
		return "group"
	default:
		return "module"
	}
}

func outputWidth[B tensor.Backend](module nn.Module[B]) (int, bool) {
	if l, ok := module.(interface{ OutFeatures() int }); ok {
		return l.OutFeatures(), true
	}
	if c, ok := module.(interface{ OutChannels() int }); ok {
		return c.OutChannels(), true
	}
	return 0, false
}
