package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	logInternal "github.com/AlexStarov/ez30-GoLang-lib/log"
)

// DefaultThreshold is the luminance below which a pixel becomes ink.
const DefaultThreshold = 127

// ErrEmptyImage is returned for nil or zero-sized input.
var ErrEmptyImage = errors.New("image: empty image")

// Target receives a segmented job, normally the printer.
type Target interface {
	PrintJob(job *Job) error
}

type Converter struct {
	// Resolution the image is prepared for; sets the resize box.
	Mode Mode

	// The threshold between white and black dots, 0..255
	Threshold int

	// Interpolation used by Resize. Zero value is resize.NearestNeighbor,
	// NewConverter sets resize.Bicubic.
	Interpolation resize.InterpolationFunction
}

func NewConverter(mode Mode, threshold int) *Converter {
	return &Converter{
		Mode:          mode,
		Threshold:     threshold,
		Interpolation: resize.Bicubic,
	}
}

// Print converts img and hands the resulting job to target.
func (c *Converter) Print(img image.Image, target Target) error {
	lines, err := c.Convert(img)
	if err != nil {
		return err
	}
	job := Segmentize(lines, c.Mode)

	logInternal.Debug("converted image",
		zap.String("job", job.ID),
		zap.Stringer("mode", c.Mode),
		zap.Int("packed_lines", len(lines)),
		zap.Int("lines", len(job.Lines)))

	return target.PrintJob(job)
}

// Convert runs Resize, Binarize and Pack.
func (c *Converter) Convert(img image.Image) ([][]byte, error) {
	resized, err := c.Resize(img)
	if err != nil {
		return nil, err
	}
	return Pack(Binarize(resized, c.Threshold), c.Mode), nil
}

// Resize scales img to the label width keeping the aspect ratio. Images
// taller than the label keep their top MaxHeight rows; the rest is cut off.
func (c *Converter) Resize(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	sz := img.Bounds().Size()
	if sz.X <= 0 || sz.Y <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, sz.X, sz.Y)
	}

	maxWidth, maxHeight := c.Mode.MaxWidth(), c.Mode.MaxHeight()

	newHeight := int(float64(maxWidth) / float64(sz.X) * float64(sz.Y))
	if newHeight < 1 {
		newHeight = 1
	}

	logInternal.Debug("resize",
		zap.Int("src_w", sz.X), zap.Int("src_h", sz.Y),
		zap.Int("dst_w", maxWidth), zap.Int("dst_h", newHeight))

	out := resize.Resize(uint(maxWidth), uint(newHeight), img, c.Interpolation)
	if newHeight <= maxHeight {
		return out, nil
	}

	b := out.Bounds()
	top := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+maxHeight)
	if sub, ok := out.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(top), nil
	}
	cropped := image.NewRGBA(image.Rect(0, 0, top.Dx(), top.Dy()))
	draw.Draw(cropped, cropped.Bounds(), out, top.Min, draw.Src)
	return cropped, nil
}

// Binarize thresholds img into a Bitonal. Transparent areas count as white
// paper. A pixel is ink when its luma is strictly below threshold.
func Binarize(img image.Image, threshold int) *Bitonal {
	b := img.Bounds()
	out := NewBitonal(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			if int(luma(img.At(b.Min.X+x, b.Min.Y+y))) < threshold {
				out.Pix[y*out.Width+x] = 1
			}
		}
	}
	return out
}

// luma composes c over white and returns ITU-R 601 luminance, 0..255.
func luma(c color.Color) uint8 {
	r, g, b, a := c.RGBA()
	bg := 0xffff - a
	r, g, b = (r+bg)>>8, (g+bg)>>8, (b+bg)>>8

	// same fixed point weights as the usual L conversion: 0.299, 0.587, 0.114
	return uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 16)
}

var interpolations = map[string]resize.InterpolationFunction{
	"nearest":            resize.NearestNeighbor,
	"bilinear":           resize.Bilinear,
	"bicubic":            resize.Bicubic,
	"mitchell-netravali": resize.MitchellNetravali,
	"lanczos2":           resize.Lanczos2,
	"lanczos3":           resize.Lanczos3,
}

// InterpolationByName maps a filter name from configuration to a resize
// function. An empty name is bicubic.
func InterpolationByName(name string) (resize.InterpolationFunction, error) {
	if name == "" {
		return resize.Bicubic, nil
	}
	f, ok := interpolations[name]
	if !ok {
		return 0, fmt.Errorf("image: unknown interpolation %q", name)
	}
	return f, nil
}
