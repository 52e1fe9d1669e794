// Package layout partitions recognized page content into visual and
// linguistic columns, the structure bilingual side-by-side documents use.
package layout

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/NextFutureHub/ocr-quality-service/internal/models"
)

// Config holds the tunable detection thresholds.
type Config struct {
	// MinConfidence drops fragments the engine was unsure about.
	MinConfidence float64
	// GapFraction is the horizontal gap, as a share of image width,
	// that separates two spatial columns.
	GapFraction float64
	// MinPairEvidence is how many adjacent bilingual line pairs a plain
	// text needs before it is split.
	MinPairEvidence int
	// MinSizeRatio is the smallest allowed size balance between the two
	// line groups of a text split.
	MinSizeRatio float64
	// KeywordPairs are Russian/English term pairs whose adjacent
	// appearance counts as bilingual evidence.
	KeywordPairs [][2]string
}

// DefaultConfig returns the thresholds tuned on bilingual contract and
// application templates.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.3,
		GapFraction:     0.2,
		MinPairEvidence: 5,
		MinSizeRatio:    0.3,
		KeywordPairs:    defaultKeywordPairs,
	}
}

var defaultKeywordPairs = [][2]string{
	{"договор", "agreement"},
	{"заявление", "application"},
	{"арендодатель", "landlord"},
	{"арендатор", "tenant"},
	{"паспорт", "passport"},
	{"адрес", "address"},
	{"подпись", "signature"},
	{"дата", "date"},
	{"фамилия", "surname"},
	{"страхование", "insurance"},
}

// Segmenter implements both column detection modes: spatial clustering of
// engine fragments and structural analysis of plain text.
type Segmenter struct {
	cfg Config
}

// New creates a segmenter, filling unset thresholds with defaults.
func New(cfg Config) *Segmenter {
	def := DefaultConfig()
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	if cfg.GapFraction <= 0 {
		cfg.GapFraction = def.GapFraction
	}
	if cfg.MinPairEvidence <= 0 {
		cfg.MinPairEvidence = def.MinPairEvidence
	}
	if cfg.MinSizeRatio <= 0 {
		cfg.MinSizeRatio = def.MinSizeRatio
	}
	if len(cfg.KeywordPairs) == 0 {
		cfg.KeywordPairs = def.KeywordPairs
	}
	return &Segmenter{cfg: cfg}
}

// HasMultipleColumns reports whether the segment set describes a
// two-column page.
func HasMultipleColumns(segments []models.ColumnSegment) bool {
	return len(segments) > 1
}

// SegmentFragments derives the column structure of a page from engine
// fragments. It returns two left/right segments when a split is found,
// one single segment over all qualifying fragments otherwise, and nothing
// when fewer than two fragments qualify.
func (s *Segmenter) SegmentFragments(fragments []models.Fragment, imageWidth int) []models.ColumnSegment {
	qualifying := make([]models.Fragment, 0, len(fragments))
	for _, f := range fragments {
		if f.Confidence > s.cfg.MinConfidence {
			qualifying = append(qualifying, f)
		}
	}
	if len(qualifying) < 2 {
		return nil
	}

	if left, right, ok := s.splitByGap(qualifying, imageWidth); ok {
		return buildColumns(left, right)
	}
	if left, right, ok := splitByScript(qualifying); ok {
		return buildColumns(left, right)
	}

	single := buildSingle(qualifying)
	if single == nil {
		return nil
	}
	return []models.ColumnSegment{*single}
}

// splitByGap looks for one dominant horizontal gap between the sorted
// fragment centers and splits at its midpoint.
func (s *Segmenter) splitByGap(fragments []models.Fragment, imageWidth int) (left, right []models.Fragment, ok bool) {
	if imageWidth <= 0 {
		return nil, nil, false
	}

	xs := make([]float64, len(fragments))
	for i, f := range fragments {
		xs[i] = f.MeanX()
	}
	sort.Float64s(xs)

	maxGap := 0.0
	gapIndex := 0
	for i := 0; i < len(xs)-1; i++ {
		if gap := xs[i+1] - xs[i]; gap > maxGap {
			maxGap = gap
			gapIndex = i
		}
	}

	if maxGap < s.cfg.GapFraction*float64(imageWidth) {
		return nil, nil, false
	}

	split := (xs[gapIndex] + xs[gapIndex+1]) / 2
	for _, f := range fragments {
		if f.MeanX() < split {
			left = append(left, f)
		} else {
			right = append(right, f)
		}
	}
	return left, right, true
}

// splitByScript groups fragments by dominant script when the positional
// test found nothing. Fragments without a letter majority follow the
// nearer group; the group further left becomes the left column.
func splitByScript(fragments []models.Fragment) (left, right []models.Fragment, ok bool) {
	var cyrillic, latin, unclassified []models.Fragment
	for _, f := range fragments {
		cyr, lat := scriptCounts(f.Text)
		switch {
		case cyr > lat:
			cyrillic = append(cyrillic, f)
		case lat > cyr:
			latin = append(latin, f)
		default:
			unclassified = append(unclassified, f)
		}
	}
	if len(cyrillic) == 0 || len(latin) == 0 {
		return nil, nil, false
	}

	cyrX := meanX(cyrillic)
	latX := meanX(latin)
	for _, f := range unclassified {
		x := f.MeanX()
		if math.Abs(x-cyrX) <= math.Abs(x-latX) {
			cyrillic = append(cyrillic, f)
		} else {
			latin = append(latin, f)
		}
	}

	if cyrX <= latX {
		return cyrillic, latin, true
	}
	return latin, cyrillic, true
}

func buildColumns(left, right []models.Fragment) []models.ColumnSegment {
	segments := make([]models.ColumnSegment, 0, 2)
	if seg := buildColumn(left, models.SideLeft); seg != nil {
		segments = append(segments, *seg)
	}
	if seg := buildColumn(right, models.SideRight); seg != nil {
		segments = append(segments, *seg)
	}
	return segments
}

// buildColumn joins fragment texts top to bottom.
func buildColumn(fragments []models.Fragment, side models.Side) *models.ColumnSegment {
	if len(fragments) == 0 {
		return nil
	}

	ordered := make([]models.Fragment, len(fragments))
	copy(ordered, fragments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MeanY() < ordered[j].MeanY()
	})

	texts := make([]string, 0, len(ordered))
	var confSum float64
	for _, f := range ordered {
		texts = append(texts, f.Text)
		confSum += f.Confidence
	}

	return &models.ColumnSegment{
		Text:          strings.Join(texts, " "),
		Side:          side,
		Language:      DetectLanguage(texts),
		ItemCount:     len(ordered),
		ConfidenceAvg: confSum / float64(len(ordered)),
	}
}

// buildSingle keeps the engine's native reading order.
func buildSingle(fragments []models.Fragment) *models.ColumnSegment {
	texts := make([]string, 0, len(fragments))
	var confSum float64
	for _, f := range fragments {
		texts = append(texts, f.Text)
		confSum += f.Confidence
	}

	joined := strings.Join(texts, " ")
	if strings.TrimSpace(joined) == "" {
		return nil
	}

	return &models.ColumnSegment{
		Text:          joined,
		Side:          models.SideSingle,
		Language:      DetectLanguage(texts),
		ItemCount:     len(fragments),
		ConfidenceAvg: confSum / float64(len(fragments)),
	}
}

// DetectLanguage reports the dominant script across a group of texts.
func DetectLanguage(texts []string) models.Language {
	if len(texts) == 0 {
		return models.LangUnknown
	}

	cyr, lat := scriptCounts(strings.Join(texts, " "))
	switch {
	case cyr > lat:
		return models.LangRussian
	case lat > cyr:
		return models.LangEnglish
	default:
		return models.LangMixed
	}
}

func scriptCounts(text string) (cyrillic, latin int) {
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case r >= 'a' && r <= 'z':
			latin++
		}
	}
	return cyrillic, latin
}

func meanX(fragments []models.Fragment) float64 {
	var sum float64
	for _, f := range fragments {
		sum += f.MeanX()
	}
	return sum / float64(len(fragments))
}
