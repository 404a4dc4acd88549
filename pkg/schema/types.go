// Package schema defines the declarative form description: field descriptors
// grouped into titled sections. The set of field types is closed; documents
// naming any other type fail to decode.
package schema

import (
	"fmt"
	"strings"
)

// FieldType tags a field descriptor with its rendering strategy.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeSelect   FieldType = "select"
	TypeAsync    FieldType = "async"
	TypeArray    FieldType = "array"
	TypeCheckbox FieldType = "checkbox"
	TypeRadio    FieldType = "radio"
	TypeSwitch   FieldType = "switch"
	TypeAuto     FieldType = "auto"

	// Generic typed inputs share the default input rendering.
	TypeEmail    FieldType = "email"
	TypeNumber   FieldType = "number"
	TypePassword FieldType = "password"
	TypeURL      FieldType = "url"
	TypeTel      FieldType = "tel"
	TypeDate     FieldType = "date"
)

// FieldTypes lists every accepted tag in declaration order.
var FieldTypes = []FieldType{
	TypeText,
	TypeTextarea,
	TypeSelect,
	TypeAsync,
	TypeArray,
	TypeCheckbox,
	TypeRadio,
	TypeSwitch,
	TypeAuto,
	TypeEmail,
	TypeNumber,
	TypePassword,
	TypeURL,
	TypeTel,
	TypeDate,
}

// ParseFieldType normalises raw and rejects tags outside the closed set. An
// empty tag resolves to TypeText.
func ParseFieldType(raw string) (FieldType, error) {
	candidate := FieldType(strings.ToLower(strings.TrimSpace(raw)))
	if candidate == "" {
		return TypeText, nil
	}
	if !candidate.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFieldType, raw)
	}
	return candidate, nil
}

// Valid reports whether t belongs to the closed set.
func (t FieldType) Valid() bool {
	for _, known := range FieldTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsChoice reports membership in the checkbox/radio/switch group.
func (t FieldType) IsChoice() bool {
	switch t {
	case TypeCheckbox, TypeRadio, TypeSwitch:
		return true
	default:
		return false
	}
}

// IsInput reports whether t renders as a generic typed input.
func (t FieldType) IsInput() bool {
	switch t {
	case TypeText, TypeEmail, TypeNumber, TypePassword, TypeURL, TypeTel, TypeDate:
		return true
	default:
		return false
	}
}

// HasOptions reports whether the type draws from a static option list.
func (t FieldType) HasOptions() bool {
	return t == TypeSelect || t == TypeRadio || t == TypeCheckbox
}

// Option is one selectable entry of a select-like field.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Field describes one input. ID keys into the form values.
type Field struct {
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Type        FieldType `json:"type" yaml:"type"`
	Options     []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	Multi       bool      `json:"multi,omitempty" yaml:"multi,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	ReadOnly    bool      `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	URL         string    `json:"url,omitempty" yaml:"url,omitempty"`
	Help        string    `json:"help,omitempty" yaml:"help,omitempty"`
	// Title names the enclosing section when a document uses the nested
	// array form; only the first field's title is read.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Section is an ordered group of fields sharing one display title.
type Section struct {
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Schema is the ordered list of sections making up a form.
type Schema []Section

// Fields flattens the schema in display order.
func (s Schema) Fields() []Field {
	var out []Field
	for _, section := range s {
		out = append(out, section.Fields...)
	}
	return out
}

// Field looks a descriptor up by id.
func (s Schema) Field(id string) (Field, bool) {
	for _, section := range s {
		for _, field := range section.Fields {
			if field.ID == id {
				return field, true
			}
		}
	}
	return Field{}, false
}

// DisplayLabel falls back to the id when no label is set.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.ID
}
