// Package vision implements the activation-maximization engine: given a
// layer and unit of a trained image network, it synthesizes the input image
// that maximizes that unit's activation via gradient ascent.
//
// The engine performs no logging and holds no package-level state; a
// Visualizer is an explicit session object owning the network, its layer
// directory, and the autodiff backend the network was built on.
package vision

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/lucid-ml/lucid/internal/autodiff"
	"github.com/lucid-ml/lucid/internal/inspect"
	"github.com/lucid-ml/lucid/internal/nn"
	"github.com/lucid-ml/lucid/internal/optim"
	"github.com/lucid-ml/lucid/internal/tensor"
)

// Per-channel normalization constants of the target network family
// (CLIP-style visual encoders).
var (
	normMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	normStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

const (
	tvWeight = 0.01 // Total-variation regularization strength
	clampLo  = -2.0 // Pixel search-space bound, post-normalization
	clampHi  = 2.0

	progressSamples = 20 // Approximate progress callbacks per run
)

// Config holds the parameters of one visualization run. It is immutable
// for the duration of the run; no state carries over between runs.
type Config struct {
	ImageSize    int     // Output width and height in pixels
	Iterations   int     // Exact number of ascent steps (no early exit)
	LearningRate float32 // Adam step size
	BlurEvery    int     // Apply a 3x3 box blur every N iterations
	Seed         int64   // Seed for the initial random image
}

// ProgressFunc observes the run roughly 20 times: iteration is 1-based and
// never exceeds total. The callback is synchronous and cannot cancel the
// run; the engine ignores anything it does.
type ProgressFunc func(iteration, total int, activation float32)

// Visualizer runs activation maximization against one network.
//
// The network is treated as opaque and immutable: the engine evaluates it
// forward and differentiates the path from the input image to the tapped
// layer, but never updates its parameters.
//
// A Visualizer serializes its runs (the gradient tape is per-backend
// state). For parallel generation, build one Visualizer per goroutine,
// each over its own model and backend.
type Visualizer[B tensor.Backend] struct {
	mu      sync.Mutex
	model   nn.Module[*autodiff.AutodiffBackend[B]]
	dir     *inspect.Directory[*autodiff.AutodiffBackend[B]]
	backend *autodiff.AutodiffBackend[B]

	mean *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]] // [1,3,1,1]
	std  *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]] // [1,3,1,1]
}

// NewVisualizer creates a Visualizer for a model built on the given
// autodiff backend.
func NewVisualizer[B tensor.Backend](
	model nn.Module[*autodiff.AutodiffBackend[B]],
	backend *autodiff.AutodiffBackend[B],
) *Visualizer[B] {
	mean, err := tensor.FromSlice(normMean[:], tensor.Shape{1, 3, 1, 1}, backend)
	if err != nil {
		panic(err)
	}
	std, err := tensor.FromSlice(normStd[:], tensor.Shape{1, 3, 1, 1}, backend)
	if err != nil {
		panic(err)
	}

	return &Visualizer[B]{
		model:   model,
		dir:     inspect.NewDirectory(model),
		backend: backend,
		mean:    mean,
		std:     std,
	}
}

// Directory returns the layer catalog of the visualizer's network.
func (v *Visualizer[B]) Directory() *inspect.Directory[*autodiff.AutodiffBackend[B]] {
	return v.dir
}

// GenerateImage synthesizes the image that maximizes the activation of the
// given unit of the layer at layerPath.
//
// A negative unit selects the mean over the layer's output axis. The run
// executes exactly cfg.Iterations ascent steps; there is no convergence
// exit and the progress callback cannot stop it. With a fixed seed, network
// and config the returned raster is bit-identical across invocations.
//
// Errors: ErrLayerNotFound if layerPath does not resolve,
// ErrInvalidParameter for non-positive config values or a unit index at or
// beyond the layer's output axis, ErrUnsupportedLayerShape if the tapped
// output is neither rank-4 nor rank-2. No partial image is ever returned,
// and the layer tap is removed on every path out.
//
// Non-finite values arising mid-loop are not detected; a diverging run
// produces a garbage image rather than an error.
func (v *Visualizer[B]) GenerateImage(layerPath string, unit int, cfg Config, onProgress ProgressFunc) (*Raster, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	layer, ok := v.dir.Layer(layerPath)
	if !ok {
		return nil, fmt.Errorf("layer %q: %w", layerPath, ErrLayerNotFound)
	}
	observable, ok := layer.(nn.Observable[*autodiff.AutodiffBackend[B]])
	if !ok {
		return nil, fmt.Errorf("layer %q cannot be tapped: %w", layerPath, ErrUnsupportedLayerShape)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// The tap is the one scoped resource in the system. Register before
	// anything can fail mid-run and release unconditionally.
	var captured *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]]
	removeTap := observable.RegisterForwardHook(func(output *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]]) {
		captured = output
	})
	defer removeTap()

	tape := v.backend.Tape()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // Seeded for reproducibility, not security
	image := tensor.RandnFrom[float32](tensor.Shape{1, 3, cfg.ImageSize, cfg.ImageSize}, rng, v.backend)

	imageParam := nn.NewParameter("image", image)
	optimizer := optim.NewAdam([]*nn.Parameter[*autodiff.AutodiffBackend[B]]{imageParam}, optim.AdamConfig{
		LR: cfg.LearningRate,
	}, v.backend)

	progressEvery := cfg.Iterations / progressSamples
	if progressEvery < 1 {
		progressEvery = 1
	}

	for iter := 0; iter < cfg.Iterations; iter++ {
		tape.Clear()
		tape.StartRecording()

		captured = nil
		normalized := image.Sub(v.mean).Div(v.std)
		v.model.Forward(normalized)

		if captured == nil {
			tape.StopRecording()
			return nil, fmt.Errorf("layer %q produced no output: %w", layerPath, ErrLayerNotFound)
		}

		activation, err := selectActivation(captured, unit)
		if err != nil {
			tape.StopRecording()
			return nil, err
		}
		activationValue := activation.Raw().AsFloat32()[0]

		loss := activation.MulScalar(-1)
		grads := autodiff.Backward(loss, v.backend)
		tape.StopRecording()
		tape.Clear()

		optimizer.Step(grads)

		// Post-step regularization runs outside gradient tracking, directly
		// on the image buffer. The ordering (ascent step, total variation,
		// periodic blur, clamp) affects convergence and must not change.
		data := image.Data()
		tv := totalVariation(data, 3, cfg.ImageSize, cfg.ImageSize)
		for i := range data {
			data[i] -= tvWeight * tv
		}

		if (iter+1)%cfg.BlurEvery == 0 {
			boxBlur3(data, 3, cfg.ImageSize, cfg.ImageSize)
		}

		for i := range data {
			if data[i] < clampLo {
				data[i] = clampLo
			} else if data[i] > clampHi {
				data[i] = clampHi
			}
		}

		if onProgress != nil && (iter+1)%progressEvery == 0 {
			onProgress(iter+1, cfg.Iterations, activationValue)
		}
	}

	return rasterize(image.Data(), cfg.ImageSize), nil
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.ImageSize <= 0:
		return fmt.Errorf("image size %d: %w", cfg.ImageSize, ErrInvalidParameter)
	case cfg.Iterations <= 0:
		return fmt.Errorf("iterations %d: %w", cfg.Iterations, ErrInvalidParameter)
	case cfg.LearningRate <= 0:
		return fmt.Errorf("learning rate %g: %w", cfg.LearningRate, ErrInvalidParameter)
	case cfg.BlurEvery <= 0:
		return fmt.Errorf("blur period %d: %w", cfg.BlurEvery, ErrInvalidParameter)
	}
	return nil
}

// selectActivation reduces the tapped layer output to the scalar the
// engine ascends on.
//
// Rank-4 [batch, channel, h, w]: index (or mean over) the channel axis,
// then mean the rest. Rank-2 [batch, feature]: index (or mean over) the
// feature axis, then mean the batch. A negative unit means mean-over-axis.
func selectActivation[B tensor.Backend](
	captured *tensor.Tensor[float32, B],
	unit int,
) (*tensor.Tensor[float32, B], error) {
	shape := captured.Shape()
	switch len(shape) {
	case 4, 2:
		axisSize := shape[1]
		if unit >= axisSize {
			return nil, fmt.Errorf("unit %d out of range for axis size %d: %w", unit, axisSize, ErrInvalidParameter)
		}
		if unit < 0 {
			return captured.Mean(), nil
		}
		return captured.Select(1, unit).Mean(), nil
	default:
		return nil, fmt.Errorf("rank-%d layer output: %w", len(shape), ErrUnsupportedLayerShape)
	}
}

// totalVariation is the mean absolute difference between horizontally
// adjacent pixels plus the same for vertically adjacent pixels. No
// wraparound: edge pixels simply omit the out-of-bounds neighbor.
func totalVariation(data []float32, channels, height, width int) float32 {
	var horiz, vert float64

	for c := 0; c < channels; c++ {
		base := c * height * width
		for y := 0; y < height; y++ {
			row := base + y*width
			for x := 0; x < width-1; x++ {
				d := data[row+x] - data[row+x+1]
				horiz += math.Abs(float64(d))
			}
		}
		for y := 0; y < height-1; y++ {
			row := base + y*width
			for x := 0; x < width; x++ {
				d := data[row+x] - data[row+x+width]
				vert += math.Abs(float64(d))
			}
		}
	}

	tv := 0.0
	if n := channels * height * (width - 1); n > 0 {
		tv += horiz / float64(n)
	}
	if n := channels * (height - 1) * width; n > 0 {
		tv += vert / float64(n)
	}
	return float32(tv)
}

// boxBlur3 replaces the image with a 3x3 box blur (stride 1, same-size
// zero padding, divisor fixed at 9 so border pixels darken slightly,
// matching average pooling with padding included in the count).
func boxBlur3(data []float32, channels, height, width int) {
	blurred := make([]float32, len(data))

	for c := 0; c < channels; c++ {
		base := c * height * width
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				var sum float32
				for dy := -1; dy <= 1; dy++ {
					yy := y + dy
					if yy < 0 || yy >= height {
						continue
					}
					for dx := -1; dx <= 1; dx++ {
						xx := x + dx
						if xx < 0 || xx >= width {
							continue
						}
						sum += data[base+yy*width+xx]
					}
				}
				blurred[base+y*width+x] = sum / 9.0
			}
		}
	}

	copy(data, blurred)
}

// rasterize denormalizes the optimized image and converts it to 8-bit
// channel-last pixels. This happens exactly once, after the loop, outside
// gradient tracking.
func rasterize(data []float32, size int) *Raster {
	pix := make([]uint8, size*size*3)

	for c := 0; c < 3; c++ {
		base := c * size * size
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				val := data[base+y*size+x]*normStd[c] + normMean[c]
				if val < 0 {
					val = 0
				} else if val > 1 {
					val = 1
				}
				pix[(y*size+x)*3+c] = uint8(math.Round(float64(val * 255)))
			}
		}
	}

	return &Raster{Size: size, Pix: pix}
}
