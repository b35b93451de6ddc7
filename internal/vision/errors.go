package vision

import (
	"errors"

	"github.com/lucid-ml/lucid/internal/inspect"
)

// ErrLayerNotFound is returned when the requested layer path does not
// resolve in the network. It is the same sentinel the inspection directory
// uses, so errors.Is works across both packages.
var ErrLayerNotFound = inspect.ErrLayerNotFound

// ErrInvalidParameter is returned for non-positive configuration values and
// out-of-range unit indexes. Out-of-range indexes fail; they are never
// clamped.
var ErrInvalidParameter = errors.New("invalid parameter")

// ErrUnsupportedLayerShape is returned when the tapped layer output has a
// rank other than 2 or 4.
var ErrUnsupportedLayerShape = errors.New("unsupported layer shape")
