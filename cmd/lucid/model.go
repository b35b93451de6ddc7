package main

import (
	"math/rand"

	"github.com/lucid-ml/lucid/autodiff"
	"github.com/lucid-ml/lucid/backend/cpu"
	"github.com/lucid-ml/lucid/nn"
)

// demoWeightSeed fixes the demo encoder's weights so every run of the CLI
// sees the same network, keeping generated images reproducible across
// processes.
const demoWeightSeed = 1

type cliBackend = *autodiff.Backend[*cpu.Backend]

// newDemoEncoder builds the built-in demo network: a small fully
// convolutional encoder under a "visual" group, usable at any image size.
//
// There is no pretrained-model loader (model loading is out of scope), so
// the CLI visualizes the random-but-fixed features of this encoder.
func newDemoEncoder(backend cliBackend) nn.Module[cliBackend] {
	visual := nn.NewGroup[cliBackend]()
	visual.Add("conv1", nn.NewConv2D(3, 16, 3, 3, 2, 1, true, backend))
	visual.Add("relu1", nn.NewReLU[cliBackend]())
	visual.Add("conv2", nn.NewConv2D(16, 32, 3, 3, 2, 1, true, backend))
	visual.Add("relu2", nn.NewReLU[cliBackend]())
	visual.Add("conv3", nn.NewConv2D(32, 64, 3, 3, 2, 1, true, backend))
	visual.Add("relu3", nn.NewReLU[cliBackend]())

	root := nn.NewGroup[cliBackend]()
	root.Add("visual", visual)

	reseedParameters(root, demoWeightSeed, backend)
	return root
}

// reseedParameters overwrites every parameter with values from a seeded
// source: Xavier for weights, zeros for biases. Parameters() is in
// registration order, so the result is deterministic.
func reseedParameters(m nn.Module[cliBackend], seed int64, backend cliBackend) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // Reproducibility, not security

	for _, p := range m.Parameters() {
		data := p.Tensor().Data()
		shape := p.Tensor().Shape()

		if p.Name() == "bias" || len(shape) == 1 {
			for i := range data {
				data[i] = 0
			}
			continue
		}

		fanIn, fanOut := fans(shape)
		fresh := nn.XavierFrom(fanIn, fanOut, shape, rng, backend)
		copy(data, fresh.Data())
	}
}

func fans(shape []int) (fanIn, fanOut int) {
	switch len(shape) {
	case 4: // [out_channels, in_channels, kh, kw]
		receptive := shape[2] * shape[3]
		return shape[1] * receptive, shape[0] * receptive
	case 2: // [out_features, in_features]
		return shape[1], shape[0]
	default:
		return 1, 1
	}
}
