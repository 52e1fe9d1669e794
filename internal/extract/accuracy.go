package extract

import "strings"

// DocumentPair couples one document's extracted fields with its ground
// truth for evaluation.
type DocumentPair struct {
	Extracted   map[string]string
	GroundTruth map[string]string
}

// FieldAccuracy scores each ground-truth field 1.0 on exact match and
// 0.0 otherwise. Fields with an empty ground-truth value score 0.0.
func FieldAccuracy(extracted, groundTruth map[string]string) map[string]float64 {
	out := make(map[string]float64, len(groundTruth))
	for field, want := range groundTruth {
		if want != "" && extracted[field] == want {
			out[field] = 1.0
		} else {
			out[field] = 0.0
		}
	}
	return out
}

// FieldF1 relaxes exact matching: a full match scores 1.0, otherwise the
// overlap of the two lowercased character sets over their union.
func FieldF1(extracted, groundTruth map[string]string) map[string]float64 {
	out := make(map[string]float64, len(groundTruth))
	for field, want := range groundTruth {
		got := extracted[field]
		switch {
		case want == "":
			out[field] = 0.0
		case got == want:
			out[field] = 1.0
		case got != "":
			out[field] = charOverlap(got, want)
		default:
			out[field] = 0.0
		}
	}
	return out
}

// charOverlap is the Jaccard similarity of the two rune sets.
func charOverlap(a, b string) float64 {
	setA := runeSet(strings.ToLower(a))
	setB := runeSet(strings.ToLower(b))

	inter, union := 0, len(setB)
	for r := range setA {
		if setB[r] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

// ExactMatchPercent reports the share of documents whose extracted
// fields all match the ground truth, as a percentage.
func ExactMatchPercent(pairs []DocumentPair) float64 {
	if len(pairs) == 0 {
		return 0.0
	}

	exact := 0
	for _, p := range pairs {
		if fieldsEqual(p.Extracted, p.GroundTruth) {
			exact++
		}
	}
	return float64(exact) / float64(len(pairs)) * 100
}

func fieldsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, r := range s {
		set[r] = true
	}
	return set
}
