package vision

// Raster is the final 8-bit image produced by a visualization run.
//
// Pix holds Size*Size RGB pixels in row-major, channel-last order:
// Pix[(y*Size+x)*3+c] is channel c of the pixel at (x, y). The layout is
// fixed regardless of how a caller later encodes it (PNG or otherwise).
type Raster struct {
	Size int
	Pix  []uint8
}

// RGBA returns the pixel at (x, y) with full alpha, in the 16-bit-per
// channel convention of image/color. It lets a Raster back a stdlib
// image.Image adapter without copying.
func (r *Raster) RGBA(x, y int) (uint32, uint32, uint32, uint32) {
	i := (y*r.Size + x) * 3
	cr := uint32(r.Pix[i])
	cg := uint32(r.Pix[i+1])
	cb := uint32(r.Pix[i+2])
	return cr * 0x101, cg * 0x101, cb * 0x101, 0xffff
}
