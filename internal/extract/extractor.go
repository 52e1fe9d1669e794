// Package extract pulls structured document fields out of recognized
// text with layered regex patterns, normalizes the values and checks
// them against built-in document schemas.
package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// DefaultFields lists every field the extractor knows how to find, in
// extraction order.
var DefaultFields = []string{
	"name", "date", "phone", "email", "address", "passport", "inn", "amount",
}

// fieldPatterns holds per-field patterns tried in order: a labeled form
// first (Russian or English label, optional colon), then a bare value
// shape as fallback.
var fieldPatterns = map[string][]*regexp.Regexp{
	"name": {
		regexp.MustCompile(`(?im)(?:имя|name|фио|ф\.и\.о\.?)\s*:?\s*([а-яё\s]+)`),
		regexp.MustCompile(`(?im)([А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+(?:\s+[А-ЯЁ][а-яё]+)?)`),
	},
	"date": {
		regexp.MustCompile(`(?im)(?:дата|date)\s*:?\s*(\d{1,2}[./]\d{1,2}[./]\d{2,4})`),
		regexp.MustCompile(`(?im)(\d{1,2}[./]\d{1,2}[./]\d{2,4})`),
	},
	"phone": {
		regexp.MustCompile(`(?im)(?:телефон|phone|тел\.?)\s*:?\s*([+]?[0-9\s()-]+)`),
		regexp.MustCompile(`(?im)([+]?[0-9\s()-]{10,})`),
	},
	"email": {
		regexp.MustCompile(`(?im)(?:email|почта|e-mail)\s*:?\s*([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
		regexp.MustCompile(`(?im)([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
	},
	"address": {
		regexp.MustCompile(`(?im)(?:адрес|address|адр\.?)\s*:?\s*([а-яё\s\d,.-]+)`),
		regexp.MustCompile(`(?im)(г\.\s*[а-яё\s]+,\s*[а-яё\s\d,.-]+)`),
	},
	"passport": {
		regexp.MustCompile(`(?im)(?:паспорт|passport|пасп\.?)\s*:?\s*(\d{4}\s*\d{6})`),
		regexp.MustCompile(`(?im)(\d{4}\s*\d{6})`),
	},
	"inn": {
		regexp.MustCompile(`(?im)(?:инн|inn)\s*:?\s*(\d{10,12})`),
		regexp.MustCompile(`(?im)(\d{10,12})`),
	},
	"amount": {
		regexp.MustCompile(`(?im)(?:сумма|amount|сумм\.?)\s*:?\s*(\d+(?:[.,]\d+)?)`),
		regexp.MustCompile(`(?im)(\d+(?:[.,]\d+)?\s*(?:руб|р\.?|₽))`),
	},
}

var (
	nonPhoneChars  = regexp.MustCompile(`[^\d+]`)
	dateSeparators = regexp.MustCompile(`[/\-]`)
	dateShape      = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{2,4}`)
	amountNumber   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// Fields extracts the named fields from the text. A nil or empty names
// slice extracts every known field. Fields the text does not contain are
// omitted from the result.
func Fields(text string, names []string) map[string]string {
	if len(names) == 0 {
		names = DefaultFields
	}

	out := make(map[string]string, len(names))
	for _, name := range names {
		if v := Field(text, name); v != "" {
			out[name] = v
		}
	}
	return out
}

// Field extracts one named field, returning the cleaned first match or
// an empty string.
func Field(text, name string) string {
	patterns, ok := fieldPatterns[name]
	if !ok {
		return ""
	}

	for _, p := range patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if value := strings.TrimSpace(m[1]); value != "" {
			return cleanValue(name, value)
		}
	}
	return ""
}

func cleanValue(name, value string) string {
	switch name {
	case "phone":
		return nonPhoneChars.ReplaceAllString(value, "")
	case "email":
		return strings.ToLower(value)
	case "date":
		return normalizeDate(value)
	case "amount":
		return normalizeAmount(value)
	case "name":
		return normalizeName(value)
	}
	return value
}

// normalizeDate unifies the separators to dots; values that still do not
// look like a date are returned untouched.
func normalizeDate(value string) string {
	normalized := dateSeparators.ReplaceAllString(value, ".")
	if dateShape.MatchString(normalized) {
		return normalized
	}
	return value
}

// normalizeAmount isolates the number, swaps the decimal comma for a dot
// and reduces it to decimal's canonical form.
func normalizeAmount(value string) string {
	m := amountNumber.FindString(value)
	if m == "" {
		return value
	}
	m = strings.ReplaceAll(m, ",", ".")
	d, err := decimal.NewFromString(m)
	if err != nil {
		return m
	}
	return d.String()
}

// normalizeName collapses whitespace and title-cases every word.
func normalizeName(value string) string {
	words := strings.Fields(value)
	for i, w := range words {
		runes := []rune(w)
		words[i] = string(unicode.ToUpper(runes[0])) + strings.ToLower(string(runes[1:]))
	}
	return strings.Join(words, " ")
}
