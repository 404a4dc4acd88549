package openapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/goccy/go-json"

	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

// hints is the decoded x-formschema extension of a property.
type hints struct {
	Type        string            `json:"type"`
	Placeholder string            `json:"placeholder"`
	URL         string            `json:"url"`
	Help        string            `json:"help"`
	Order       int               `json:"order"`
	Multi       bool              `json:"multi"`
	Labels      map[string]string `json:"labels"`
}

func readHints(ext map[string]any) (hints, error) {
	var h hints
	raw, ok := ext[extensionKey]
	if !ok || raw == nil {
		return h, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("decode %s: %w", extensionKey, err)
	}
	return h, nil
}

type property struct {
	name   string
	schema *openapi3.Schema
	hints  hints
}

type builder struct {
	importer *Importer
	rules    validation.RulesetSpec
	values   values.Values
}

// object maps the properties of s into a section titled title, followed by
// one section per nested object property.
func (b *builder) object(title, prefix string, s *openapi3.Schema, depth int) []schema.Section {
	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	section := schema.Section{Title: title}
	var nested []schema.Section

	for _, prop := range b.properties(prefix, s) {
		id := prefix + prop.name
		switch {
		case isObject(prop.schema):
			if depth+1 >= b.importer.maxDepth {
				b.importer.logger.Debug("openapi: nested object too deep, skipped", "property", id)
				continue
			}
			nested = append(nested, b.object(b.label(prop), id+".", prop.schema, depth+1)...)
		default:
			field, initial, ok := b.field(id, prop)
			if !ok {
				b.importer.logger.Debug("openapi: unsupported property skipped", "property", id)
				continue
			}
			section.Fields = append(section.Fields, field)
			b.values[id] = initial
			if rule, ok := b.rule(prop.schema, required[prop.name]); ok {
				rule.Rows = b.rules[id].Rows
				b.rules[id] = rule
			}
		}
	}

	var out []schema.Section
	if len(section.Fields) > 0 {
		out = append(out, section)
	}
	return append(out, nested...)
}

func (b *builder) properties(prefix string, s *openapi3.Schema) []property {
	props := make([]property, 0, len(s.Properties))
	for name, ref := range s.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		h, err := readHints(ref.Value.Extensions)
		if err != nil {
			b.importer.logger.Warn("openapi: ignoring malformed extension", "property", prefix+name, "error", err)
		}
		props = append(props, property{name: name, schema: ref.Value, hints: h})
	}
	sort.SliceStable(props, func(i, j int) bool {
		if props[i].hints.Order != props[j].hints.Order {
			return props[i].hints.Order < props[j].hints.Order
		}
		return props[i].name < props[j].name
	})
	return props
}

func (b *builder) label(prop property) string {
	if title := strings.TrimSpace(prop.schema.Title); title != "" {
		return title
	}
	return b.importer.labeler(prop.name)
}

func (b *builder) field(id string, prop property) (schema.Field, any, bool) {
	s := prop.schema
	field := schema.Field{
		ID:          id,
		Label:       b.label(prop),
		ReadOnly:    s.ReadOnly,
		Help:        firstNonEmpty(prop.hints.Help, s.Description),
		Placeholder: firstNonEmpty(prop.hints.Placeholder, exampleText(s.Example)),
		URL:         prop.hints.URL,
		Multi:       prop.hints.Multi,
	}

	var initial any
	switch {
	case hasType(s, openapi3.TypeBoolean):
		field.Type = schema.TypeSwitch
		initial = values.Bool(s.Default)
	case hasType(s, openapi3.TypeInteger), hasType(s, openapi3.TypeNumber):
		field.Type = schema.TypeNumber
		initial = numberDefault(s.Default)
	case hasType(s, openapi3.TypeArray):
		return b.arrayField(field, prop)
	case hasType(s, openapi3.TypeString), s.Type == nil:
		field.Type = b.stringType(s)
		if len(s.Enum) > 0 {
			field.Type = schema.TypeSelect
			field.Options = b.enumOptions(s.Enum, prop.hints.Labels)
		}
		if field.URL != "" {
			field.Type = schema.TypeAsync
		}
		initial = values.String(s.Default)
	default:
		return schema.Field{}, nil, false
	}

	if override, ok := b.override(id, prop.hints.Type); ok {
		field.Type = override
	}
	if field.Type == schema.TypeSwitch || field.Type == schema.TypeCheckbox {
		if len(field.Options) == 0 {
			initial = values.Bool(initial)
		}
	}
	return field, initial, true
}

func (b *builder) arrayField(field schema.Field, prop property) (schema.Field, any, bool) {
	s := prop.schema
	if s.Items == nil || s.Items.Value == nil {
		return schema.Field{}, nil, false
	}
	items := s.Items.Value

	switch {
	case isObject(items):
		field.Type = schema.TypeArray
		field.Multi = false
		return field, []map[string]any{b.rowTemplate(field.ID, items)}, true
	case len(items.Enum) > 0:
		field.Type = schema.TypeSelect
		field.Multi = true
		field.Options = b.enumOptions(items.Enum, prop.hints.Labels)
		if override, ok := b.override(field.ID, prop.hints.Type); ok && override.HasOptions() {
			field.Type = override
		}
	case field.URL != "":
		field.Type = schema.TypeAsync
		field.Multi = true
	case hasType(items, openapi3.TypeString), items.Type == nil:
		field.Type = schema.TypeAuto
	default:
		return schema.Field{}, nil, false
	}
	return field, stringList(s.Default), true
}

// rowTemplate builds row 0 of an array of objects and registers the row rules.
func (b *builder) rowTemplate(id string, items *openapi3.Schema) map[string]any {
	required := make(map[string]bool, len(items.Required))
	for _, name := range items.Required {
		required[name] = true
	}
	row := make(map[string]any, len(items.Properties))
	rows := make(map[string]validation.RuleSpec)
	for name, ref := range items.Properties {
		if ref == nil || ref.Value == nil || isObject(ref.Value) || hasType(ref.Value, openapi3.TypeArray) {
			continue
		}
		row[name] = values.String(ref.Value.Default)
		if rule, ok := b.rule(ref.Value, required[name]); ok {
			rows[name] = rule
		}
	}
	if len(rows) > 0 {
		spec := b.rules[id]
		spec.Rows = rows
		b.rules[id] = spec
	}
	return row
}

func (b *builder) stringType(s *openapi3.Schema) schema.FieldType {
	switch strings.ToLower(s.Format) {
	case "email":
		return schema.TypeEmail
	case "uri", "url":
		return schema.TypeURL
	case "date", "date-time":
		return schema.TypeDate
	case "password":
		return schema.TypePassword
	case "tel", "phone":
		return schema.TypeTel
	case "textarea":
		return schema.TypeTextarea
	}
	if s.MaxLength != nil && int(*s.MaxLength) > b.importer.textareaAt {
		return schema.TypeTextarea
	}
	return schema.TypeText
}

func (b *builder) override(id, raw string) (schema.FieldType, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	t, err := schema.ParseFieldType(raw)
	if err != nil {
		b.importer.logger.Warn("openapi: ignoring field type override", "property", id, "error", err)
		return "", false
	}
	return t, true
}

func (b *builder) enumOptions(enum []any, labels map[string]string) []schema.Option {
	out := make([]schema.Option, 0, len(enum))
	for _, entry := range enum {
		value := values.String(entry)
		if value == "" {
			continue
		}
		label := labels[value]
		if label == "" {
			label = b.importer.labeler(value)
		}
		out = append(out, schema.Option{Label: label, Value: value})
	}
	return out
}

// rule derives the declarative rule of one property. The bool is false when
// the property carries no constraint.
func (b *builder) rule(s *openapi3.Schema, required bool) (validation.RuleSpec, bool) {
	spec := validation.RuleSpec{Required: required}
	switch strings.ToLower(s.Format) {
	case "email":
		spec.Format = validation.FormatEmail
	case "uri", "url":
		spec.Format = validation.FormatURL
	}
	if hasType(s, openapi3.TypeArray) {
		if s.MinItems > 0 {
			// Length checks skip empty values, so an empty list is caught by required.
			spec.Required = true
			spec.MinLength = validation.IntPtr(int(s.MinItems))
		}
		if s.MaxItems != nil {
			spec.MaxLength = validation.IntPtr(int(*s.MaxItems))
		}
	} else {
		if s.MinLength > 0 {
			spec.MinLength = validation.IntPtr(int(s.MinLength))
		}
		if s.MaxLength != nil {
			spec.MaxLength = validation.IntPtr(int(*s.MaxLength))
		}
		spec.Pattern = s.Pattern
	}
	empty := !spec.Required && spec.Format == "" && spec.MinLength == nil && spec.MaxLength == nil && spec.Pattern == ""
	return spec, !empty
}

func numberDefault(value any) any {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return ""
	}
}

func stringList(value any) []string {
	list := values.Strings(value)
	if list == nil {
		return []string{}
	}
	return list
}

func exampleText(example any) string {
	if s, ok := example.(string); ok {
		return s
	}
	return ""
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
