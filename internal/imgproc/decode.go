// Package imgproc holds the raster transforms the OCR pipeline and the
// noise cleaner are built from: decoding, grayscale conversion,
// thresholding, filtering, morphology and rotation.
package imgproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

// placeholderSize is the side of the blank image substituted for inputs
// that cannot be decoded.
const placeholderSize = 100

// Decode parses image bytes into an in-memory image. JPEG, PNG, GIF, TIFF,
// BMP and WebP are accepted.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	return img, nil
}

// DecodeOrPlaceholder parses image bytes and falls back to a small blank
// white image when the bytes are unreadable, so callers that must always
// produce a result never have to handle a decode failure.
func DecodeOrPlaceholder(data []byte) image.Image {
	img, err := Decode(data)
	if err != nil {
		return Placeholder()
	}
	return img
}

// Placeholder returns a uniform white image.
func Placeholder() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// IsEmpty reports whether the image is missing or has no pixels.
func IsEmpty(img image.Image) bool {
	if img == nil {
		return true
	}
	b := img.Bounds()
	return b.Dx() <= 0 || b.Dy() <= 0
}

// EncodePNG serializes an image to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}

// Rotate turns the image counter-clockwise by the given angle in degrees.
// Quadrant angles rotate losslessly; any other angle fills the exposed
// corners with white, matching typical document margins.
func Rotate(img image.Image, angle float64) image.Image {
	switch angle {
	case 0:
		return img
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return imaging.Rotate(img, angle, color.White)
	}
}

// Invert produces the photographic negative of the image.
func Invert(img image.Image) image.Image {
	return imaging.Invert(img)
}
