package image

import (
	"image"
	"image/draw"

	"github.com/disintegration/gift"
)

// Printed dots are taller than they are wide. A full high-res label of 510
// rows is previewLength pixels long.
const previewLength = 680

func stretched(rows int) int { return rows * previewLength / HighResHeight }

// Preview renders img the way it comes out of the printer: resized,
// thresholded, packed and unpacked again, stretched, placed on a blank label
// and turned so the feed direction is horizontal. Low-res previews are scaled
// to the high-res preview size.
func (c *Converter) Preview(img image.Image) (image.Image, error) {
	resized, err := c.Resize(img)
	if err != nil {
		return nil, err
	}
	bounds := resized.Bounds()
	printed := Unpack(Pack(Binarize(resized, c.Threshold), c.Mode), bounds.Dx(), bounds.Dy(), c.Mode).Gray()

	stretch := gift.New(gift.Resize(bounds.Dx(), stretched(bounds.Dy()), gift.NearestNeighborResampling))
	tall := image.NewGray(stretch.Bounds(printed.Bounds()))
	stretch.Draw(tall, printed)

	label := image.NewGray(image.Rect(0, 0, c.Mode.MaxWidth(), stretched(c.Mode.MaxHeight())))
	draw.Draw(label, label.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(label, tall.Bounds(), tall, image.Point{}, draw.Src)

	filters := []gift.Filter{gift.Rotate90()}
	if c.Mode == LowRes {
		filters = append(filters, gift.Resize(previewLength, HighResWidth, gift.NearestNeighborResampling))
	}
	g := gift.New(filters...)
	out := image.NewGray(g.Bounds(label.Bounds()))
	g.Draw(out, label)
	return out, nil
}
