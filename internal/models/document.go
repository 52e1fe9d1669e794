package models

import (
	"github.com/NextFutureHub/ocr-quality-service/internal/metrics"
)

// Point is one vertex of a recognition polygon, in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Fragment is one OCR-detected text region: its bounding polygon, the
// recognized text and the engine's confidence in [0,1].
type Fragment struct {
	Polygon    []Point `json:"polygon"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// MeanX returns the average x-coordinate of the fragment polygon.
func (f Fragment) MeanX() float64 {
	if len(f.Polygon) == 0 {
		return 0
	}
	var sum float64
	for _, p := range f.Polygon {
		sum += p.X
	}
	return sum / float64(len(f.Polygon))
}

// MeanY returns the average y-coordinate of the fragment polygon.
func (f Fragment) MeanY() float64 {
	if len(f.Polygon) == 0 {
		return 0
	}
	var sum float64
	for _, p := range f.Polygon {
		sum += p.Y
	}
	return sum / float64(len(f.Polygon))
}

// Side tells which visual column a segment belongs to.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideSingle Side = "single"
)

// Language is the dominant script of a text block.
type Language string

const (
	LangRussian Language = "ru"
	LangEnglish Language = "en"
	LangMixed   Language = "mixed"
	LangUnknown Language = "unknown"
)

// ColumnSegment is one detected column of a page: its joined text, which
// side it sits on, its dominant language and aggregate confidence.
type ColumnSegment struct {
	Text          string   `json:"text"`
	Side          Side     `json:"side"`
	Language      Language `json:"language"`
	ItemCount     int      `json:"items_count"`
	ConfidenceAvg float64  `json:"confidence_avg"`
}

// ProcessResponse is the result of processing one uploaded document.
type ProcessResponse struct {
	ExtractedText      string                  `json:"extracted_text"`
	StructuredData     map[string]string       `json:"structured_data"`
	Metrics            *metrics.QualityMetrics `json:"metrics,omitempty"`
	JSONValidity       bool                    `json:"json_validity"`
	SchemaConsistency  bool                    `json:"schema_consistency"`
	ProcessingTime     float64                 `json:"processing_time"` // seconds
	Columns            []ColumnSegment         `json:"columns"`
	ColumnsCount       int                     `json:"columns_count"`
	HasMultipleColumns bool                    `json:"has_multiple_columns"`
}

// BatchItem is the outcome for one file of a batch request.
type BatchItem struct {
	Filename string           `json:"filename"`
	Result   *ProcessResponse `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// BatchResponse aggregates per-file results plus quality averages over the
// files that carried a ground truth.
type BatchResponse struct {
	Results   []BatchItem      `json:"results"`
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Summary   *metrics.Summary `json:"summary,omitempty"`
}

// NoiseResponse is the result of the denoise-then-recognize flow. The
// noise levels are grayscale standard deviation estimates taken before and
// after the cleaning chain.
type NoiseResponse struct {
	ExtractedText    string                  `json:"extracted_text"`
	Metrics          *metrics.QualityMetrics `json:"metrics,omitempty"`
	NoiseRemoved     bool                    `json:"noise_removed"`
	NoiseLevelBefore float64                 `json:"noise_level_before"`
	NoiseLevel       float64                 `json:"noise_level"`
	CleanedImage     string                  `json:"cleaned_image,omitempty"` // base64 PNG
}

// PDFInfo carries page count and document metadata of a PDF.
type PDFInfo struct {
	Pages     int    `json:"pages"`
	Encrypted bool   `json:"encrypted"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Creator   string `json:"creator,omitempty"`
	Producer  string `json:"producer,omitempty"`
}

// PageResult is the per-page breakdown of a processed PDF. Method records
// whether the text came from the embedded text layer or from OCR.
type PageResult struct {
	Page               int    `json:"page"`
	Text               string `json:"text"`
	Method             string `json:"method"`
	ColumnsCount       int    `json:"columns_count"`
	HasMultipleColumns bool   `json:"has_multiple_columns"`
}

// PDFResponse extends the document result with PDF specifics.
type PDFResponse struct {
	ProcessResponse
	PDFInfo  PDFInfo      `json:"pdf_info"`
	Pages    []PageResult `json:"pages,omitempty"`
	FileType string       `json:"file_type"`
}
