// Copyright 2025 The Lucid Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package vision provides the public API for the activation-maximization
// engine.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model := buildEncoder(backend)
//	viz := vision.NewVisualizer(model, backend)
//
//	raster, err := viz.GenerateImage("visual.conv1", 0, vision.Config{
//	    ImageSize:    224,
//	    Iterations:   500,
//	    LearningRate: 0.01,
//	    BlurEvery:    10,
//	    Seed:         42,
//	}, nil)
package vision

import (
	"github.com/lucid-ml/lucid/internal/autodiff"
	"github.com/lucid-ml/lucid/internal/nn"
	"github.com/lucid-ml/lucid/internal/tensor"
	"github.com/lucid-ml/lucid/internal/vision"
)

// Sentinel errors of the engine. Test with errors.Is.
var (
	ErrLayerNotFound         = vision.ErrLayerNotFound
	ErrInvalidParameter      = vision.ErrInvalidParameter
	ErrUnsupportedLayerShape = vision.ErrUnsupportedLayerShape
)

// Config holds the parameters of one visualization run.
type Config = vision.Config

// ProgressFunc observes a run roughly 20 times over its iterations.
type ProgressFunc = vision.ProgressFunc

// Raster is the final 8-bit RGB image produced by a run.
type Raster = vision.Raster

// Visualizer runs activation maximization against one network.
type Visualizer[B tensor.Backend] = vision.Visualizer[B]

// NewVisualizer creates a Visualizer for a model built on the given
// autodiff backend.
func NewVisualizer[B tensor.Backend](
	model nn.Module[*autodiff.AutodiffBackend[B]],
	backend *autodiff.AutodiffBackend[B],
) *Visualizer[B] {
	return vision.NewVisualizer(model, backend)
}
