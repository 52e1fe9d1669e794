package layout

import (
	"regexp"
	"strings"

	"github.com/NextFutureHub/ocr-quality-service/internal/models"
)

var (
	numberPattern     = regexp.MustCompile(`\d+`)
	listPrefixPattern = regexp.MustCompile(`^(\d+)[.)]`)
)

// SegmentText derives column structure from plain text, used when a PDF
// carries a text layer and no fragment geometry exists. Reflowed text
// from a two-column original shows Russian and English lines alternating,
// so the split decision rests on repeated bilingual line pairs rather
// than coordinates. Without enough evidence the whole text stays one
// block.
func (s *Segmenter) SegmentText(text string) []models.ColumnSegment {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	if !s.hasBilingualEvidence(lines) {
		return []models.ColumnSegment{textBlock(lines, models.SideSingle)}
	}

	cyrillic, latin := groupLinesByScript(lines)
	if len(cyrillic) == 0 || len(latin) == 0 {
		return []models.ColumnSegment{textBlock(lines, models.SideSingle)}
	}

	smaller, larger := len(cyrillic), len(latin)
	if smaller > larger {
		smaller, larger = larger, smaller
	}
	if float64(smaller)/float64(larger) < s.cfg.MinSizeRatio {
		return []models.ColumnSegment{textBlock(lines, models.SideSingle)}
	}

	return []models.ColumnSegment{
		textBlock(cyrillic, models.SideLeft),
		textBlock(latin, models.SideRight),
	}
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// hasBilingualEvidence counts adjacent line pairs that look like a
// Russian line next to its English counterpart.
func (s *Segmenter) hasBilingualEvidence(lines []string) bool {
	pairs := 0
	for i := 0; i+1 < len(lines); i++ {
		if s.isBilingualPair(lines[i], lines[i+1]) {
			pairs++
			if pairs >= s.cfg.MinPairEvidence {
				return true
			}
		}
	}
	return false
}

// isBilingualPair accepts two lines of opposite script sharing a number
// or a list position, or any adjacent lines matched by the keyword table.
func (s *Segmenter) isBilingualPair(a, b string) bool {
	aCyr, aLat := scriptCounts(a)
	bCyr, bLat := scriptCounts(b)
	crossScript := (aCyr > aLat && bLat > bCyr) || (aLat > aCyr && bCyr > bLat)

	if crossScript {
		if sharesNumber(a, b) {
			return true
		}
		if pa, pb := listPrefix(a), listPrefix(b); pa != "" && pa == pb {
			return true
		}
	}

	return s.matchesKeywordPair(a, b)
}

func sharesNumber(a, b string) bool {
	seen := map[string]bool{}
	for _, n := range numberPattern.FindAllString(b, -1) {
		seen[n] = true
	}
	if len(seen) == 0 {
		return false
	}
	for _, n := range numberPattern.FindAllString(a, -1) {
		if seen[n] {
			return true
		}
	}
	return false
}

func listPrefix(line string) string {
	m := listPrefixPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

func (s *Segmenter) matchesKeywordPair(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	for _, pair := range s.cfg.KeywordPairs {
		ru, en := pair[0], pair[1]
		if (strings.Contains(la, ru) && strings.Contains(lb, en)) ||
			(strings.Contains(la, en) && strings.Contains(lb, ru)) {
			return true
		}
	}
	return false
}

// groupLinesByScript assigns every line to the Cyrillic or Latin column.
// Lines without a letter majority, like bare numbers or dates, stay with
// the column of the previous line.
func groupLinesByScript(lines []string) (cyrillic, latin []string) {
	target := &cyrillic
	for _, line := range lines {
		cyr, lat := scriptCounts(line)
		switch {
		case cyr > lat:
			target = &cyrillic
		case lat > cyr:
			target = &latin
		}
		*target = append(*target, line)
	}
	return cyrillic, latin
}

func textBlock(lines []string, side models.Side) models.ColumnSegment {
	return models.ColumnSegment{
		Text:          strings.Join(lines, "\n"),
		Side:          side,
		Language:      DetectLanguage(lines),
		ItemCount:     len(lines),
		ConfidenceAvg: 1.0,
	}
}
