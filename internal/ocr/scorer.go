package ocr

import (
	"math"
	"strings"
	"unicode"
)

// Score rates a candidate transcript without reference text; higher is
// better. The weights are tuned for Cyrillic-dominant documents: script
// ratio carries the most, then a token density that punishes both
// shattered and glued-together output, then a saturating length reward.
func Score(text string) float64 {
	length := len([]rune(text))
	if length == 0 {
		return 0
	}

	var cyrillic, alphabetic, words int
	for _, token := range strings.Fields(text) {
		hasLetter := false
		for _, r := range token {
			if unicode.IsLetter(r) {
				alphabetic++
				hasLetter = true
				if unicode.Is(unicode.Cyrillic, r) {
					cyrillic++
				}
			}
		}
		if hasLetter {
			words++
		}
	}

	var cyrillicRatio float64
	if alphabetic > 0 {
		cyrillicRatio = float64(cyrillic) / float64(alphabetic)
	}
	wordDensity := float64(words) / math.Max(1, float64(length)/25.0)
	lengthScore := math.Min(float64(length)/1000.0, 1.0)

	return 2.0*cyrillicRatio + 1.0*wordDensity + 0.5*lengthScore
}
