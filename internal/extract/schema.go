package extract

import (
	"encoding/json"
	"regexp"
)

// FieldRule is one property constraint: a minimum rune length and an
// optional shape the value must match.
type FieldRule struct {
	MinLength int
	Pattern   *regexp.Regexp
}

// Schema is a document profile: which fields must be present and what
// each field must look like when it is.
type Schema struct {
	Name     string
	Required []string
	Fields   map[string]FieldRule
}

var (
	schemaDate     = regexp.MustCompile(`^\d{1,2}[./]\d{1,2}[./]\d{2,4}$`)
	schemaPhone    = regexp.MustCompile(`^[+]?[0-9\s()-]+$`)
	schemaAmount   = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
	schemaPassport = regexp.MustCompile(`^\d{4}\s*\d{6}$`)
	schemaINN      = regexp.MustCompile(`^\d{10,12}$`)
)

// DefaultSchemas holds the built-in document profiles keyed by the name
// clients pass in the schema form value.
var DefaultSchemas = map[string]Schema{
	"person_document": {
		Name:     "person_document",
		Required: []string{"name"},
		Fields: map[string]FieldRule{
			"name":  {MinLength: 1},
			"date":  {Pattern: schemaDate},
			"phone": {Pattern: schemaPhone},
			"email": {},
		},
	},
	"financial_document": {
		Name:     "financial_document",
		Required: []string{"amount", "date"},
		Fields: map[string]FieldRule{
			"amount": {Pattern: schemaAmount},
			"date":   {Pattern: schemaDate},
			"inn":    {Pattern: schemaINN},
		},
	},
	"identity_document": {
		Name:     "identity_document",
		Required: []string{"name", "passport"},
		Fields: map[string]FieldRule{
			"name":     {MinLength: 1},
			"passport": {Pattern: schemaPassport},
			"date":     {Pattern: schemaDate},
		},
	},
}

// SchemaByName looks up a built-in schema.
func SchemaByName(name string) (Schema, bool) {
	s, ok := DefaultSchemas[name]
	return s, ok
}

// Validate reports whether the extracted fields satisfy the schema:
// every required field is present and every present field with a rule
// matches it. Fields the schema does not know are ignored.
func (s Schema) Validate(data map[string]string) bool {
	for _, field := range s.Required {
		if _, ok := data[field]; !ok {
			return false
		}
	}

	for field, value := range data {
		rule, ok := s.Fields[field]
		if !ok {
			continue
		}
		if rule.MinLength > 0 && len([]rune(value)) < rule.MinLength {
			return false
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
			return false
		}
	}
	return true
}

// ValidateJSON reports whether the extracted fields serialize cleanly.
func ValidateJSON(data map[string]string) bool {
	_, err := json.Marshal(data)
	return err == nil
}
