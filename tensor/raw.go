// Copyright 2025 The Lucid Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/lucid-ml/lucid/internal/tensor"
)

// RawTensor is the untyped tensor underlying Tensor[T, B]: a byte buffer
// with shape, strides, dtype and device. Gradient maps produced by the
// autodiff package are keyed by *RawTensor identity.
type RawTensor = tensor.RawTensor
