package ocr

import (
	"strings"
	"unicode"
)

type substitution struct {
	from string
	to   string
}

// phraseSubstitutions fixes known misread words that the character
// table cannot reach, mostly digits standing in for Cyrillic letters
// inside otherwise pure-Cyrillic words. Applied globally, in order.
var phraseSubstitutions = []substitution{
	{"3аявление", "Заявление"},
	{"3аявка", "Заявка"},
	{"3акон", "Закон"},
	{"Д0говор", "Договор"},
	{"д0говор", "договор"},
	{"Пасп0рт", "Паспорт"},
	{"пасп0рт", "паспорт"},
	{"гор0д", "город"},
	{"Ф.И.0.", "Ф.И.О."},
	{"0ОО", "ООО"},
}

// charSubstitutions maps Latin look-alikes to their Cyrillic
// counterparts. Applied only inside tokens that mix both scripts.
var charSubstitutions = []substitution{
	{"A", "А"}, {"B", "В"}, {"C", "С"}, {"E", "Е"}, {"H", "Н"},
	{"K", "К"}, {"M", "М"}, {"O", "О"}, {"P", "Р"}, {"T", "Т"},
	{"X", "Х"}, {"Y", "У"},
	{"a", "а"}, {"c", "с"}, {"e", "е"}, {"k", "к"}, {"m", "м"},
	{"o", "о"}, {"p", "р"}, {"u", "и"}, {"x", "х"}, {"y", "у"},
	{"0", "о"}, {"3", "з"},
}

// Corrector fixes systematic script confusions in raw engine output.
// It is a heuristic over a fixed table, not a spell checker.
type Corrector struct {
	phrases []substitution
	chars   []substitution
}

func NewCorrector() *Corrector {
	return &Corrector{phrases: phraseSubstitutions, chars: charSubstitutions}
}

// Correct applies the phrase table to the whole text, then rewrites
// Latin look-alikes inside tokens containing both Latin and Cyrillic
// letters. Tokens in a single script are never touched beyond the
// phrase matches.
func (c *Corrector) Correct(text string) string {
	for _, rule := range c.phrases {
		text = strings.ReplaceAll(text, rule.from, rule.to)
	}

	var b strings.Builder
	b.Grow(len(text))
	token := make([]rune, 0, 16)
	flush := func() {
		if len(token) > 0 {
			b.WriteString(c.correctToken(string(token)))
			token = token[:0]
		}
	}
	for _, r := range text {
		if unicode.IsSpace(r) {
			flush()
			b.WriteRune(r)
		} else {
			token = append(token, r)
		}
	}
	flush()
	return b.String()
}

func (c *Corrector) correctToken(token string) string {
	hasCyrillic, hasLatin := false, false
	for _, r := range token {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			hasCyrillic = true
		case isLatinLetter(r):
			hasLatin = true
		}
	}
	if !hasCyrillic || !hasLatin {
		return token
	}

	for _, rule := range c.chars {
		token = strings.ReplaceAll(token, rule.from, rule.to)
	}
	return token
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
