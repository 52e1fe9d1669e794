package ocr

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/NextFutureHub/ocr-quality-service/internal/models"
)

// TesseractEngine drives the Tesseract library through gosseract. Every
// call builds a fresh client because Tesseract's internal buffers are
// not safe under the concurrent matrix scan.
type TesseractEngine struct {
	languages string
	blacklist string
	psm       gosseract.PageSegMode
	name      string
}

// NewTesseractEngines builds one engine per configured page
// segmentation mode. Different modes fail on different layouts, so each
// runs as its own matrix column.
func NewTesseractEngines(cfg models.OCRConfig) []Engine {
	languages := cfg.Languages
	if languages == "" {
		languages = "rus+eng"
	}
	modes := cfg.PageSegModes
	if len(modes) == 0 {
		modes = []int{int(gosseract.PSM_AUTO), int(gosseract.PSM_SINGLE_BLOCK)}
	}

	engines := make([]Engine, 0, len(modes))
	for _, mode := range modes {
		engines = append(engines, &TesseractEngine{
			languages: languages,
			blacklist: cfg.Blacklist,
			psm:       gosseract.PageSegMode(mode),
			name:      fmt.Sprintf("tesseract-psm%d", mode),
		})
	}
	return engines
}

func (t *TesseractEngine) Name() string { return t.name }

// Recognize runs Tesseract and converts word boxes into fragments with
// confidence on a 0-1 scale.
func (t *TesseractEngine) Recognize(ctx context.Context, imageBytes []byte) ([]models.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if t.blacklist != "" {
		if err := client.SetVariable("tessedit_char_blacklist", t.blacklist); err != nil {
			log.Printf("[OCR] Warning: failed to set character blacklist: %v", err)
		}
	}
	if err := client.SetPageSegMode(t.psm); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(imageBytes); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR extraction failed: %w", err)
	}

	fragments := make([]models.Fragment, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		fragments = append(fragments, models.Fragment{
			Polygon:    rectPolygon(box.Box),
			Text:       text,
			Confidence: box.Confidence / 100.0,
		})
	}
	return fragments, nil
}

func rectPolygon(r image.Rectangle) []models.Point {
	return []models.Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}
