package image

import (
	"image"
	"image/color"
)

// Bitonal is a width x height grid of 1-bit pixels. A set pixel is ink.
type Bitonal struct {
	Width, Height int

	// Pix holds one byte per pixel, row-major, 0 or 1.
	Pix []byte
}

func NewBitonal(width, height int) *Bitonal {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Bitonal{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height),
	}
}

// Ink reports whether (x, y) is dark. Pixels outside the grid are blank.
func (b *Bitonal) Ink(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	return b.Pix[y*b.Width+x] != 0
}

// bit returns Ink(x, y) as 0 or 1.
func (b *Bitonal) bit(x, y int) byte {
	if b.Ink(x, y) {
		return 1
	}
	return 0
}

func (b *Bitonal) Set(x, y int, ink bool) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	var v byte
	if ink {
		v = 1
	}
	b.Pix[y*b.Width+x] = v
}

// Fill sets every pixel.
func (b *Bitonal) Fill(ink bool) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			b.Set(x, y, ink)
		}
	}
}

// InkCount returns the number of dark pixels.
func (b *Bitonal) InkCount() int {
	n := 0
	for _, p := range b.Pix {
		if p != 0 {
			n++
		}
	}
	return n
}

// Equal compares size and pixels.
func (b *Bitonal) Equal(o *Bitonal) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.Width != o.Width || b.Height != o.Height {
		return false
	}
	for i := range b.Pix {
		if (b.Pix[i] != 0) != (o.Pix[i] != 0) {
			return false
		}
	}
	return true
}

// Gray renders the grid as it looks on paper: ink black, the rest white.
func (b *Bitonal) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := color.Gray{Y: 0xff}
			if b.Ink(x, y) {
				c.Y = 0
			}
			img.SetGray(x, y, c)
		}
	}
	return img
}
