// Copyright 2025 The Lucid Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the public API for lucid's optimizers.
//
// Example:
//
//	optimizer := optim.NewAdam(params, optim.AdamConfig{LR: 0.05}, backend)
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
package optim

import (
	"github.com/lucid-ml/lucid/internal/nn"
	"github.com/lucid-ml/lucid/internal/optim"
	"github.com/lucid-ml/lucid/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer = optim.Optimizer

// Adam implements the Adam optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	return optim.NewAdam(params, config, backend)
}

// SGD implements stochastic gradient descent with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGD(params, config, backend)
}
