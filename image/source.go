package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	// decoders registered for image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	logInternal "github.com/AlexStarov/ez30-GoLang-lib/log"
)

// Source is anything that can be turned into a bitmap before printing:
// a file on disk, an image already in memory, or a QR payload.
type Source interface {
	Image() (image.Image, error)
}

// FileSource is a path to an image file (png, jpeg, gif, bmp, tiff, webp).
type FileSource string

func (f FileSource) Image() (image.Image, error) {
	imgFile, err := os.Open(string(f))
	if err != nil {
		return nil, err
	}
	defer imgFile.Close()

	img, imgFormat, err := image.Decode(imgFile)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", string(f), err)
	}
	logInternal.Debug("loaded image",
		zap.String("path", string(f)),
		zap.String("format", imgFormat),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
	return img, nil
}

// BitmapSource wraps a decoded image.
type BitmapSource struct {
	Bitmap image.Image
}

func (b BitmapSource) Image() (image.Image, error) {
	if b.Bitmap == nil {
		return nil, ErrEmptyImage
	}
	return b.Bitmap, nil
}

// BytesSource is an encoded image held in memory, e.g. an upload.
type BytesSource []byte

func (b BytesSource) Image() (image.Image, error) {
	if len(b) == 0 {
		return nil, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode image bytes: %w", err)
	}
	return img, nil
}

// QRSource renders Content as a square QR code of Size pixels.
type QRSource struct {
	Content string
	Level   qrcode.RecoveryLevel
	Size    int
}

func (q QRSource) Image() (image.Image, error) {
	if q.Content == "" {
		return nil, errors.New("qr: empty content")
	}
	size := q.Size
	if size <= 0 {
		size = HighResWidth
	}
	code, err := qrcode.New(q.Content, q.Level)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	code.DisableBorder = true
	return code.Image(size), nil
}
