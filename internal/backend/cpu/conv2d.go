package cpu

import (
	"fmt"

	"github.com/lucid-ml/lucid/internal/tensor"
)

// conv2dDims validates the tensors of a convolution and returns the
// geometry shared by the forward and backward kernels.
func conv2dDims(input, kernel *tensor.RawTensor, stride, padding int) (n, cIn, h, w, cOut, kh, kw, hOut, wOut int) {
	inShape, kShape := input.Shape(), kernel.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inShape)))
	}
	if len(kShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kShape)))
	}
	if inShape[1] != kShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", inShape[1], kShape[1]))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}

	n, cIn, h, w = inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kh, kw = kShape[0], kShape[2], kShape[3]
	hOut = (h+2*padding-kh)/stride + 1
	wOut = (w+2*padding-kw)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions out_h=%d, out_w=%d (check stride/padding)", hOut, wOut))
	}
	return
}

// Conv2D performs 2D convolution.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// The implementation is a direct loop over output positions. The networks
// this backend drives are small vision encoders, where the direct form is
// simpler than im2col and fast enough.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, cIn, h, w, cOut, kh, kw, hOut, wOut := conv2dDims(input, kernel, stride, padding)

	output := newFloat32(tensor.Shape{n, cOut, hOut, wOut}, cpu.device, "conv2d")
	in, k, out := input.AsFloat32(), kernel.AsFloat32(), output.AsFloat32()

	for b := 0; b < n; b++ {
		for co := 0; co < cOut; co++ {
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					var sum float32
					for ci := 0; ci < cIn; ci++ {
						for dy := 0; dy < kh; dy++ {
							iy := oh*stride - padding + dy
							if iy < 0 || iy >= h {
								continue
							}
							for dx := 0; dx < kw; dx++ {
								ix := ow*stride - padding + dx
								if ix < 0 || ix >= w {
									continue
								}
								sum += in[((b*cIn+ci)*h+iy)*w+ix] * k[((co*cIn+ci)*kh+dy)*kw+dx]
							}
						}
					}
					out[((b*cOut+co)*hOut+oh)*wOut+ow] = sum
				}
			}
		}
	}
	return output
}

// Conv2DInputBackward computes the gradient of a convolution with respect
// to its input: every output gradient is scattered back through the kernel
// taps that produced it.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, cIn, h, w, cOut, kh, kw, hOut, wOut := conv2dDims(input, kernel, stride, padding)
	if !grad.Shape().Equal(tensor.Shape{n, cOut, hOut, wOut}) {
		panic(fmt.Sprintf("conv2d input backward: grad shape %v does not match output shape [%d %d %d %d]",
			grad.Shape(), n, cOut, hOut, wOut))
	}

	gradInput := newFloat32(input.Shape(), cpu.device, "conv2d input backward")
	k, g, gi := kernel.AsFloat32(), grad.AsFloat32(), gradInput.AsFloat32()

	for b := 0; b < n; b++ {
		for co := 0; co < cOut; co++ {
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					gv := g[((b*cOut+co)*hOut+oh)*wOut+ow]
					if gv == 0 {
						continue
					}
					for ci := 0; ci < cIn; ci++ {
						for dy := 0; dy < kh; dy++ {
							iy := oh*stride - padding + dy
							if iy < 0 || iy >= h {
								continue
							}
							for dx := 0; dx < kw; dx++ {
								ix := ow*stride - padding + dx
								if ix < 0 || ix >= w {
									continue
								}
								gi[((b*cIn+ci)*h+iy)*w+ix] += gv * k[((co*cIn+ci)*kh+dy)*kw+dx]
							}
						}
					}
				}
			}
		}
	}
	return gradInput
}

// Conv2DKernelBackward computes the gradient of a convolution with respect
// to its kernel.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	n, cIn, h, w, cOut, kh, kw, hOut, wOut := conv2dDims(input, kernel, stride, padding)
	if !grad.Shape().Equal(tensor.Shape{n, cOut, hOut, wOut}) {
		panic(fmt.Sprintf("conv2d kernel backward: grad shape %v does not match output shape [%d %d %d %d]",
			grad.Shape(), n, cOut, hOut, wOut))
	}

	gradKernel := newFloat32(kernel.Shape(), cpu.device, "conv2d kernel backward")
	in, g, gk := input.AsFloat32(), grad.AsFloat32(), gradKernel.AsFloat32()

	for b := 0; b < n; b++ {
		for co := 0; co < cOut; co++ {
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					gv := g[((b*cOut+co)*hOut+oh)*wOut+ow]
					if gv == 0 {
						continue
					}
					for ci := 0; ci < cIn; ci++ {
						for dy := 0; dy < kh; dy++ {
							iy := oh*stride - padding + dy
							if iy < 0 || iy >= h {
								continue
							}
							for dx := 0; dx < kw; dx++ {
								ix := ow*stride - padding + dx
								if ix < 0 || ix >= w {
									continue
								}
								gk[((co*cIn+ci)*kh+dy)*kw+dx] += gv * in[((b*cIn+ci)*h+iy)*w+ix]
							}
						}
					}
				}
			}
		}
	}
	return gradKernel
}
