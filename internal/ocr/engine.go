// Package ocr generates recognition candidates across preprocessing
// variants, rotation angles and engines, and keeps the best transcript.
package ocr

import (
	"context"

	"github.com/NextFutureHub/ocr-quality-service/internal/models"
)

// Engine turns a prepared image into positioned text fragments.
type Engine interface {
	// Name identifies the engine in candidate provenance.
	Name() string
	// Recognize extracts text fragments from encoded image bytes.
	Recognize(ctx context.Context, image []byte) ([]models.Fragment, error)
}
