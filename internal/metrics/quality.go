// Package metrics compares extracted OCR text against a ground truth
// reference and reports standard recognition quality scores.
package metrics

import (
	"math"
	"strings"
)

// QualityMetrics holds every comparison score for one (extracted, ground truth)
// pair. All values live in [0,1]; ExactMatch is 0 or 1.
type QualityMetrics struct {
	CER                   float64 `json:"cer"`
	WER                   float64 `json:"wer"`
	NormalizedLevenshtein float64 `json:"normalized_levenshtein"`
	ExactMatch            float64 `json:"exact_match"`
	CharPrecision         float64 `json:"char_precision"`
	CharRecall            float64 `json:"char_recall"`
	CharF1                float64 `json:"char_f1"`
	WordPrecision         float64 `json:"word_precision"`
	WordRecall            float64 `json:"word_recall"`
	WordF1                float64 `json:"word_f1"`
}

// OverallScore collapses the error rates into a single 0-100 quality
// percentage, weighting CER heaviest and the exact-match bonus lightest.
func (m QualityMetrics) OverallScore() float64 {
	score := (1 - m.CER) * 0.4
	score += (1 - m.WER) * 0.3
	score += (1 - m.NormalizedLevenshtein) * 0.2
	score += m.ExactMatch * 0.1
	return score * 100
}

// Summary aggregates per-document metrics over a batch.
type Summary struct {
	AverageCER        float64 `json:"average_cer"`
	AverageWER        float64 `json:"average_wer"`
	ExactMatchPercent float64 `json:"exact_match_percentage"`
}

// Compute derives all quality metrics for one extracted/ground truth pair.
// It never fails: inputs are never mutated and every score is well defined
// for empty strings.
func Compute(extracted, groundTruth string) QualityMetrics {
	m := QualityMetrics{
		CER:                   CER(extracted, groundTruth),
		WER:                   WER(extracted, groundTruth),
		NormalizedLevenshtein: NormalizedLevenshtein(extracted, groundTruth),
	}

	if strings.TrimSpace(extracted) == strings.TrimSpace(groundTruth) {
		m.ExactMatch = 1.0
	}

	m.CharPrecision, m.CharRecall, m.CharF1 = charScores(extracted, groundTruth)
	m.WordPrecision, m.WordRecall, m.WordF1 = wordScores(extracted, groundTruth)

	return m
}

// CER calculates the character error rate: edit distance over normalized
// runes divided by the reference length, clamped to [0,1]. An empty ground
// truth scores 1.0 when anything was extracted and 0.0 otherwise.
func CER(extracted, groundTruth string) float64 {
	if groundTruth == "" {
		if extracted != "" {
			return 1.0
		}
		return 0.0
	}

	ext := []rune(normalizeText(extracted))
	ref := []rune(normalizeText(groundTruth))

	dist := editDistance(ext, ref)
	refLen := len(ref)
	if refLen < 1 {
		refLen = 1
	}

	return math.Min(float64(dist)/float64(refLen), 1.0)
}

// WER calculates the word error rate: token-level edit distance divided by
// the reference word count, clamped to [0,1]. The empty ground truth rule
// mirrors CER.
func WER(extracted, groundTruth string) float64 {
	if groundTruth == "" {
		if extracted != "" {
			return 1.0
		}
		return 0.0
	}

	ext := splitWords(extracted)
	ref := splitWords(groundTruth)

	dist := tokenEditDistance(ext, ref)
	refLen := len(ref)
	if refLen < 1 {
		refLen = 1
	}

	return math.Min(float64(dist)/float64(refLen), 1.0)
}

// NormalizedLevenshtein calculates the character edit distance divided by
// the longer normalized length. Two empty strings score 0.0.
func NormalizedLevenshtein(extracted, groundTruth string) float64 {
	if extracted == "" && groundTruth == "" {
		return 0.0
	}

	ext := []rune(normalizeText(extracted))
	ref := []rune(normalizeText(groundTruth))

	maxLen := len(ext)
	if len(ref) > maxLen {
		maxLen = len(ref)
	}
	if maxLen == 0 {
		return 0.0
	}

	dist := editDistance(ext, ref)
	return math.Min(float64(dist)/float64(maxLen), 1.0)
}

// Summarize aggregates a batch of per-document metrics. An empty batch
// returns a zero summary.
func Summarize(all []QualityMetrics) Summary {
	if len(all) == 0 {
		return Summary{}
	}

	var s Summary
	exact := 0
	for _, m := range all {
		s.AverageCER += m.CER
		s.AverageWER += m.WER
		if m.ExactMatch == 1.0 {
			exact++
		}
	}

	n := float64(len(all))
	s.AverageCER /= n
	s.AverageWER /= n
	s.ExactMatchPercent = float64(exact) / n * 100

	return s
}

// charScores computes set-based precision, recall and F1 over the distinct
// runes of both normalized texts.
func charScores(extracted, groundTruth string) (precision, recall, f1 float64) {
	extSet := runeSet(normalizeText(extracted))
	refSet := runeSet(normalizeText(groundTruth))

	inter := 0
	for r := range extSet {
		if refSet[r] {
			inter++
		}
	}

	if len(extSet) > 0 {
		precision = float64(inter) / float64(len(extSet))
	}
	if len(refSet) > 0 {
		recall = float64(inter) / float64(len(refSet))
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

// wordScores computes set-based precision, recall and F1 over the distinct
// words of both normalized texts.
func wordScores(extracted, groundTruth string) (precision, recall, f1 float64) {
	extSet := wordSet(extracted)
	refSet := wordSet(groundTruth)

	inter := 0
	for w := range extSet {
		if refSet[w] {
			inter++
		}
	}

	if len(extSet) > 0 {
		precision = float64(inter) / float64(len(extSet))
	}
	if len(refSet) > 0 {
		recall = float64(inter) / float64(len(refSet))
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

// normalizeText lowercases the text, collapses whitespace runs to single
// spaces, and trims both ends.
func normalizeText(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func splitWords(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, r := range s {
		set[r] = true
	}
	return set
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range splitWords(text) {
		set[w] = true
	}
	return set
}
