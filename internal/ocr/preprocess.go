package ocr

import (
	"image"

	"github.com/NextFutureHub/ocr-quality-service/internal/imgproc"
)

// Variant names used in candidate provenance.
const (
	VariantBaseline = "baseline"
	VariantInverted = "inverted"
	VariantAdaptive = "adaptive"
)

// Variant is one preprocessing recipe tried during candidate generation.
type Variant struct {
	Name string
	// MinConfidence drops fragments the engine scored at or below it
	// before their texts join the candidate.
	MinConfidence float64
	Apply         func(image.Image) *image.Gray
}

// Variants returns the standard recipes. Scans of dark stamps and
// thermal paper recover under inversion, while uneven lighting favors
// the adaptive threshold; trying all three costs little next to the
// engine invocations.
func Variants(minConfidence, adaptiveMinConfidence float64) []Variant {
	if minConfidence <= 0 {
		minConfidence = 0.3
	}
	if adaptiveMinConfidence <= 0 {
		adaptiveMinConfidence = 0.4
	}
	return []Variant{
		{Name: VariantBaseline, MinConfidence: minConfidence, Apply: baseline},
		{Name: VariantInverted, MinConfidence: minConfidence, Apply: inverted},
		{Name: VariantAdaptive, MinConfidence: adaptiveMinConfidence, Apply: adaptive},
	}
}

func baseline(img image.Image) *image.Gray {
	g := imgproc.ToGray(img)
	g = imgproc.CLAHE(g, 2.0, 8, 8)
	g = imgproc.Median3(g)
	return imgproc.Otsu(g)
}

func inverted(img image.Image) *image.Gray {
	return imgproc.InvertGray(baseline(img))
}

func adaptive(img image.Image) *image.Gray {
	g := imgproc.ToGray(img)
	g = imgproc.CLAHE(g, 2.0, 8, 8)
	g = imgproc.Gaussian3(g)
	return imgproc.AdaptiveThreshold(g, 11, 2)
}
