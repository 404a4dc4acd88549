package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownFieldType is returned for type tags outside the closed set.
	ErrUnknownFieldType = errors.New("schema: unknown field type")
	// ErrEmptyDocument is returned when a document has no content.
	ErrEmptyDocument = errors.New("schema: document is empty")
)

// UnmarshalJSON rejects unknown tags at decode time.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("schema: field type must be a string: %w", err)
	}
	parsed, err := ParseFieldType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML documents.
func (t *FieldType) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("schema: field type must be a string: %w", err)
	}
	parsed, err := ParseFieldType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalJSON accepts both the object form and the nested array form.
func (s *Section) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var fields []Field
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return err
		}
		*s = sectionFromFields(fields)
		return nil
	}

	type plain Section
	var out plain
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return err
	}
	*s = Section(out)
	return nil
}

// UnmarshalYAML accepts both the mapping form and the nested sequence form.
func (s *Section) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var fields []Field
		if err := node.Decode(&fields); err != nil {
			return err
		}
		*s = sectionFromFields(fields)
		return nil
	}

	type plain Section
	var out plain
	if err := node.Decode(&out); err != nil {
		return err
	}
	*s = Section(out)
	return nil
}

func sectionFromFields(fields []Field) Section {
	section := Section{Fields: fields}
	if len(fields) > 0 {
		section.Title = strings.TrimSpace(fields[0].Title)
	}
	return section
}

// Parse decodes a schema document. The name is used to pick the codec by
// extension and to label errors.
func Parse(data []byte, name string) (Schema, error) {
	var out Schema
	if err := DecodeDocument(data, name, &out); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", name, err)
	}
	return normalize(out), nil
}

// DecodeDocument decodes JSON or YAML into out. Files ending in .json (or
// content starting with '{' or '[' when the extension is unknown) use JSON;
// everything else is YAML.
func DecodeDocument(data []byte, name string, out any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ErrEmptyDocument
	}
	if isJSON(name, trimmed) {
		return json.Unmarshal(trimmed, out)
	}
	return yaml.Unmarshal(trimmed, out)
}

func isJSON(name string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return true
	case ".yaml", ".yml":
		return false
	}
	return data[0] == '{' || data[0] == '['
}

func normalize(s Schema) Schema {
	for si := range s {
		for fi := range s[si].Fields {
			field := &s[si].Fields[fi]
			field.ID = strings.TrimSpace(field.ID)
			if field.Type == "" {
				field.Type = TypeText
			}
		}
	}
	return s
}
