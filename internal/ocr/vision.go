package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/NextFutureHub/ocr-quality-service/internal/ai"
	"github.com/NextFutureHub/ocr-quality-service/internal/imgproc"
	"github.com/NextFutureHub/ocr-quality-service/internal/models"
)

const visionPrompt = `Transcribe every character visible in this image exactly as printed.
The document may mix Russian and English text in two side-by-side columns.
Preserve line breaks. Reply with the transcription only, no commentary and no markdown.`

// visionConfidence is assigned to model transcripts, which carry no
// per-word confidence of their own.
const visionConfidence = 0.9

// VisionEngine adapts a hosted vision model as a recognition engine.
// The model returns plain text without geometry, so the whole reply
// becomes one fragment spanning the full image.
type VisionEngine struct {
	provider ai.Provider
}

func NewVisionEngine(provider ai.Provider) *VisionEngine {
	return &VisionEngine{provider: provider}
}

func (v *VisionEngine) Name() string { return "vision-" + v.provider.Name() }

func (v *VisionEngine) Recognize(ctx context.Context, imageBytes []byte) ([]models.Fragment, error) {
	img, err := imgproc.Decode(imageBytes)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageBytes)
	text, err := v.provider.Transcribe(ctx, visionPrompt, dataURL)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	b := img.Bounds()
	return []models.Fragment{{
		Polygon: []models.Point{
			{X: 0, Y: 0},
			{X: float64(b.Dx()), Y: 0},
			{X: float64(b.Dx()), Y: float64(b.Dy())},
			{X: 0, Y: float64(b.Dy())},
		},
		Text:       text,
		Confidence: visionConfidence,
	}}, nil
}
