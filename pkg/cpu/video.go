package cpu

import (
	"image"
	"image/png"
	"os"

	"govm/pkg/grid"
	"govm/pkg/hack"
)

const (
	ScreenWidth  = 512
	ScreenHeight = 256
)

// GetFramebufferRGBA decodes the screen map into a 512×256 RGBA8888 byte
// slice. Set bits are black, clear bits white.
func (c *CPU) GetFramebufferRGBA() []byte {
	pixels := make([]byte, ScreenWidth*ScreenHeight*4)
	for i := range pixels {
		pixels[i] = 0xFF
	}

	for w := 0; w < grid.ScreenWords; w++ {
		word := c.RAM[int(hack.ScreenBase)+w]
		if word == 0 {
			continue
		}
		for bit := 0; bit < 16; bit++ {
			if word&(1<<bit) == 0 {
				continue
			}
			x, y := grid.PixelCoords(w, bit)
			i := (y*ScreenWidth + x) * 4
			pixels[i+0] = 0
			pixels[i+1] = 0
			pixels[i+2] = 0
		}
	}
	return pixels
}

// GetFramebufferImage wraps GetFramebufferRGBA in an image.RGBA.
func (c *CPU) GetFramebufferImage() *image.RGBA {
	return &image.RGBA{
		Pix:    c.GetFramebufferRGBA(),
		Stride: ScreenWidth * 4,
		Rect:   image.Rect(0, 0, ScreenWidth, ScreenHeight),
	}
}

// SaveScreenshot writes the screen as a PNG file.
func (c *CPU) SaveScreenshot(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, c.GetFramebufferImage())
}
