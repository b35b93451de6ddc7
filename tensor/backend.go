// Copyright 2025 The Lucid Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/lucid-ml/lucid/internal/tensor"
)

// Backend defines the interface that compute backends must implement.
//
// Implementations:
//   - backend/cpu: pure Go float32 implementation
//
// Decorator backends:
//   - autodiff: gradient tracking (wraps any Backend)
type Backend = tensor.Backend
