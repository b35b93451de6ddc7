package nn

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// Group is a container like Sequential but with explicitly named children.
//
// Names become path segments in the layer directory, so a model built as
//
//	visual := nn.NewGroup[B]()
//	visual.Add("conv1", conv1)
//	visual.Add("relu1", relu1)
//
// exposes layers at "visual.conv1" and "visual.relu1" when registered as
// the "visual" child of its parent.
type Group[B tensor.Backend] struct {
	hookSet[B]

	children []NamedChild[B]
}

// NewGroup creates an empty named container.
func NewGroup[B tensor.Backend]() *Group[B] {
	return &Group[B]{}
}

// Add registers a child under the given name and appends it to the forward
// chain. Panics on a duplicate or empty name.
func (g *Group[B]) Add(name string, module Module[B]) *Group[B] {
	if name == "" {
		panic("Group.Add: empty child name")
	}
	for _, c := range g.children {
		if c.Name == name {
			panic(fmt.Sprintf("Group.Add: duplicate child name %q", name))
		}
	}
	g.children = append(g.children, NamedChild[B]{Name: name, Module: module})
	return g
}

// Child returns the module registered under name, or nil.
func (g *Group[B]) Child(name string) Module[B] {
	for _, c := range g.children {
		if c.Name == name {
			return c.Module
		}
	}
	return nil
}

// Forward applies the children in registration order.
func (g *Group[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, c := range g.children {
		output = c.Module.Forward(output)
	}
	g.fire(output)
	return output
}

// Parameters returns all trainable parameters from all children.
func (g *Group[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, c := range g.children {
		params = append(params, c.Module.Parameters()...)
	}
	return params
}

// NamedChildren returns the children in registration order.
func (g *Group[B]) NamedChildren() []NamedChild[B] {
	children := make([]NamedChild[B], len(g.children))
	copy(children, g.children)
	return children
}

// StateDict returns a map of parameter names to raw tensors, prefixed with
// the child name (e.g., "conv1.weight").
func (g *Group[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for _, c := range g.children {
		for name, raw := range c.Module.StateDict() {
			stateDict[c.Name+"."+name] = raw
		}
	}
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary keyed by child
// name prefix.
func (g *Group[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, c := range g.children {
		childStateDict := make(map[string]*tensor.RawTensor)
		prefix := c.Name + "."

		for key, raw := range stateDict {
			if len(key) > len(prefix) && key[:len(prefix)] == prefix {
				childStateDict[key[len(prefix):]] = raw
			}
		}

		if len(childStateDict) > 0 {
			if err := c.Module.LoadStateDict(childStateDict); err != nil {
				return fmt.Errorf("failed to load child %q: %w", c.Name, err)
			}
		}
	}
	return nil
}
