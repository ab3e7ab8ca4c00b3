package main

import (
	"fmt"
	"strings"
)

// ValidationError describes one payload field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Validator normalizes a caller payload before it reaches the store. The
// payload passed in covers the full record state (for partial updates the
// orchestrator merges the existing fields first); existing is nil on create.
type Validator interface {
	Validate(payload, existing Record) (Record, error)
}

// FieldSpec declares one caller-settable field of a resource.
type FieldSpec struct {
	Name     string
	Required bool
	Default  any  // applied when the field is absent; nil means field stays unset
	Strip    bool // trim surrounding whitespace from string values
}

// Schema is a declarative Validator: fields not declared here are dropped,
// required fields must be present and non-empty, defaults fill the gaps.
type Schema struct {
	Fields []FieldSpec
}

// Validate implements Validator.
func (s Schema) Validate(payload, existing Record) (Record, error) {
	payload = stripReserved(payload)
	out := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := payload[f.Name]
		if v == nil {
			ok = false
		}
		if !ok {
			if f.Required {
				return nil, &ValidationError{Field: f.Name, Reason: "is required"}
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}
		if str, isStr := v.(string); isStr {
			if f.Strip {
				str = strings.Trim(str, " \t\n\r")
				v = str
			}
			if f.Required && str == "" {
				return nil, &ValidationError{Field: f.Name, Reason: "is required"}
			}
		}
		out[f.Name] = v
	}
	return out, nil
}

// ArticleSchema declares the reading-list article resource: a saved page with
// read-state flags and optional resolution metadata.
func ArticleSchema() Schema {
	return Schema{Fields: []FieldSpec{
		{Name: "title", Required: true, Strip: true},
		{Name: "url", Required: true, Strip: true},
		{Name: "added_by", Required: true, Strip: true},
		{Name: "status", Default: int64(0)},
		{Name: "excerpt", Default: ""},
		{Name: "favorite", Default: false},
		{Name: "unread", Default: true},
		{Name: "is_article", Default: true},
		{Name: "marked_read_by"},
		{Name: "marked_read_on"},
		{Name: "word_count"},
		{Name: "resolved_url"},
		{Name: "resolved_title"},
	}}
}
