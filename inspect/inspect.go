// Copyright 2025 The Lucid Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package inspect provides the public API for the layer directory: a flat,
// queryable catalog of a network's addressable sub-components.
//
// Example:
//
//	dir := inspect.NewDirectory(model)
//	for _, path := range dir.Layers() {
//	    info, _ := dir.Describe(path)
//	    fmt.Println(info.Path, info.Kind, info.Parameters)
//	}
package inspect

import (
	"github.com/lucid-ml/lucid/internal/inspect"
	"github.com/lucid-ml/lucid/internal/nn"
	"github.com/lucid-ml/lucid/internal/tensor"
)

// ErrLayerNotFound is returned when a layer path does not resolve.
var ErrLayerNotFound = inspect.ErrLayerNotFound

// LayerInfo describes one addressable sub-component of a network.
type LayerInfo = inspect.LayerInfo

// Directory is a catalog of the named sub-components of a single network.
type Directory[B tensor.Backend] = inspect.Directory[B]

// NewDirectory builds a Directory by walking the model's named children.
func NewDirectory[B tensor.Backend](root nn.Module[B]) *Directory[B] {
	return inspect.NewDirectory(root)
}
