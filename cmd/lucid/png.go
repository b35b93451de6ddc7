package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/lucid-ml/lucid/vision"
)

// savePNG encodes a raster as a PNG, creating parent directories as
// needed.
func savePNG(path string, raster *vision.Raster) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, raster.Size, raster.Size))
	for y := 0; y < raster.Size; y++ {
		for x := 0; x < raster.Size; x++ {
			i := (y*raster.Size + x) * 3
			img.SetRGBA(x, y, color.RGBA{
				R: raster.Pix[i],
				G: raster.Pix[i+1],
				B: raster.Pix[i+2],
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return err
	}
	return f.Close()
}
