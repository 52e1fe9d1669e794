package ocr

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"
	"strings"
	"sync"

	"github.com/NextFutureHub/ocr-quality-service/internal/imgproc"
	"github.com/NextFutureHub/ocr-quality-service/internal/models"
)

// Candidate is one scored transcript hypothesis from a single cell of
// the (variant, angle, engine) matrix.
type Candidate struct {
	Variant string
	Angle   float64
	Engine  string
	Text    string
	Score   float64

	fragments []models.Fragment
	width     int
	height    int
}

// Result carries the winning transcript and its provenance. Width and
// Height describe the image the winning fragments were measured on.
type Result struct {
	Text       string
	Fragments  []models.Fragment
	Variant    string
	Angle      float64
	Engine     string
	Score      float64
	Width      int
	Height     int
	Candidates int
}

// Recognizer scans the candidate matrix and keeps the best transcript.
// Engines are long-lived and shared; everything else is request-local.
type Recognizer struct {
	engines   []Engine
	variants  []Variant
	angles    []float64
	corrector *Corrector
	workers   int
}

// NewRecognizer wires the engines to the configured variants, angles
// and worker count.
func NewRecognizer(engines []Engine, cfg models.OCRConfig) *Recognizer {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Recognizer{
		engines:   engines,
		variants:  Variants(cfg.MinConfidence, cfg.AdaptiveMinConfidence),
		angles:    rotationAngles(cfg.ExtraAngles),
		corrector: NewCorrector(),
		workers:   workers,
	}
}

// rotationAngles returns the four quadrant angles plus any configured
// skew angles, deduplicated modulo 360.
func rotationAngles(extra []float64) []float64 {
	angles := []float64{0, 90, 180, 270}
	seen := map[float64]bool{0: true, 90: true, 180: true, 270: true}
	for _, a := range extra {
		a = math.Mod(a, 360)
		if a < 0 {
			a += 360
		}
		if !seen[a] {
			seen[a] = true
			angles = append(angles, a)
		}
	}
	return angles
}

// Recognize decodes the image and runs every (variant, angle, engine)
// combination, returning the maximum-score corrected candidate. Ties
// keep the first cell in matrix order. An empty or unreadable image
// yields an empty transcript without invoking any engine.
func (r *Recognizer) Recognize(ctx context.Context, imageBytes []byte) Result {
	img, err := imgproc.Decode(imageBytes)
	if err != nil || imgproc.IsEmpty(img) {
		return Result{}
	}

	cells := r.buildCells(img)
	if len(cells) == 0 {
		return Result{}
	}

	candidates := make([]Candidate, len(cells))
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := r.workers
	if workers > len(cells) {
		workers = len(cells)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				candidates[i] = r.runCell(ctx, cells[i])
			}
		}()
	}
	for i := range cells {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	best := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.Score > best.Score {
			best = cand
		}
	}

	return Result{
		Text:       best.Text,
		Fragments:  best.fragments,
		Variant:    best.Variant,
		Angle:      best.Angle,
		Engine:     best.Engine,
		Score:      best.Score,
		Width:      best.width,
		Height:     best.height,
		Candidates: len(candidates),
	}
}

type cell struct {
	variant Variant
	angle   float64
	engine  Engine
	image   []byte
	width   int
	height  int
}

// buildCells prepares one encoded image per (variant, angle) pair and
// fans it out across the engines. A failing transform skips its variant
// or angle; the rest of the matrix still runs.
func (r *Recognizer) buildCells(img image.Image) []cell {
	cells := make([]cell, 0, len(r.variants)*len(r.angles)*len(r.engines))
	for _, variant := range r.variants {
		base, err := applyVariant(variant, img)
		if err != nil {
			log.Printf("[OCR] Skipping variant %s: %v", variant.Name, err)
			continue
		}
		for _, angle := range r.angles {
			rotated := imgproc.Rotate(base, angle)
			encoded, err := imgproc.EncodePNG(rotated)
			if err != nil {
				log.Printf("[OCR] Skipping %s at %.0f degrees: %v", variant.Name, angle, err)
				continue
			}
			bounds := rotated.Bounds()
			for _, engine := range r.engines {
				cells = append(cells, cell{
					variant: variant,
					angle:   angle,
					engine:  engine,
					image:   encoded,
					width:   bounds.Dx(),
					height:  bounds.Dy(),
				})
			}
		}
	}
	return cells
}

func applyVariant(v Variant, img image.Image) (g *image.Gray, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("variant %s: %v", v.Name, p)
		}
	}()
	return v.Apply(img), nil
}

// runCell invokes one engine on one prepared image. Engine failures
// yield a zero-score candidate and never abort the scan.
func (r *Recognizer) runCell(ctx context.Context, c cell) Candidate {
	cand := Candidate{
		Variant: c.variant.Name,
		Angle:   c.angle,
		Engine:  c.engine.Name(),
		width:   c.width,
		height:  c.height,
	}

	fragments, err := c.engine.Recognize(ctx, c.image)
	if err != nil {
		log.Printf("[OCR] %s failed on %s/%.0f: %v", c.engine.Name(), c.variant.Name, c.angle, err)
		return cand
	}

	kept := make([]models.Fragment, 0, len(fragments))
	texts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.Confidence > c.variant.MinConfidence {
			kept = append(kept, f)
			texts = append(texts, f.Text)
		}
	}

	cand.fragments = kept
	cand.Text = r.corrector.Correct(strings.Join(texts, " "))
	cand.Score = Score(cand.Text)
	return cand
}
