// Copyright 2025 The Lucid Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for lucid's neural network modules.
//
// It re-exports the building blocks used to construct image encoders for
// the visualization engine: layers (Linear, Conv2D, ReLU, Flatten),
// containers (Sequential, Group), trainable parameters, and the forward
// hook mechanism the activation-maximization engine taps layers with.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model := nn.NewGroup[*autodiff.Backend[*cpu.Backend]]()
//	model.Add("conv1", nn.NewConv2D(3, 16, 3, 3, 1, 1, true, backend))
//	model.Add("relu1", nn.NewReLU[*autodiff.Backend[*cpu.Backend]]())
package nn

import (
	"math/rand"

	"github.com/lucid-ml/lucid/internal/nn"
	"github.com/lucid-ml/lucid/internal/tensor"
)

// Module is the base interface for all neural network components.
type Module[B tensor.Backend] = nn.Module[B]

// NamedChild is a child module together with its registered name.
type NamedChild[B tensor.Backend] = nn.NamedChild[B]

// Composite is implemented by containers that expose their children for
// traversal (used to build a layer directory).
type Composite[B tensor.Backend] = nn.Composite[B]

// Parameter represents a trainable parameter.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// ForwardHook observes a layer's output during Forward.
type ForwardHook[B tensor.Backend] = nn.ForwardHook[B]

// Observable is implemented by layers whose output can be captured with a
// forward hook.
type Observable[B tensor.Backend] = nn.Observable[B]

// Linear is a fully connected layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new Linear layer.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Conv2D is a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a new 2D convolutional layer.
func NewConv2D[B tensor.Backend](
	inChannels, outChannels int,
	kernelH, kernelW int,
	stride, padding int,
	useBias bool,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// ReLU applies the rectified linear unit element-wise.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Flatten collapses all dimensions after the batch dimension.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a new Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Sequential chains modules, addressing children by index.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Group chains modules with explicitly named children.
type Group[B tensor.Backend] = nn.Group[B]

// NewGroup creates an empty named container.
func NewGroup[B tensor.Backend]() *Group[B] {
	return nn.NewGroup[B]()
}

// Xavier initializes a weight tensor with the Glorot uniform distribution.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// XavierFrom is Xavier initialization driven by an explicit random source,
// for models whose weights must be reproducible across runs.
func XavierFrom[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return nn.XavierFrom(fanIn, fanOut, shape, rng, backend)
}
