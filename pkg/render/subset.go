package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-formschema/pkg/schema"
)

// FieldSubset narrows a schema to some sections or fields. Section tokens
// match titles case-insensitively; field tokens match ids.
type FieldSubset struct {
	Sections []string
	Fields   []string
}

// ParseFieldSubset reads comma separated (or JSON array) token lists, as
// passed on the command line or in query strings.
func ParseFieldSubset(sections, fields string) FieldSubset {
	return FieldSubset{
		Sections: parseTokenList(sections),
		Fields:   parseTokenList(fields),
	}
}

// Empty reports whether the subset filters nothing.
func (f FieldSubset) Empty() bool {
	return len(f.Sections) == 0 && len(f.Fields) == 0
}

// ApplySubset returns the sections and fields matching subset. Sections left
// without fields are dropped. An empty subset returns s unchanged.
func ApplySubset(s schema.Schema, subset FieldSubset) schema.Schema {
	if subset.Empty() {
		return s
	}
	sections := normaliseTokens(subset.Sections)
	fields := normaliseTokens(subset.Fields)

	out := make(schema.Schema, 0, len(s))
	for _, section := range s {
		_, sectionMatch := sections[normaliseToken(section.Title)]
		kept := make([]schema.Field, 0, len(section.Fields))
		for _, field := range section.Fields {
			_, fieldMatch := fields[normaliseToken(field.ID)]
			if sectionMatch || fieldMatch {
				kept = append(kept, field)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, schema.Section{Title: section.Title, Fields: kept})
	}
	return out
}

func normaliseTokens(values []string) map[string]struct{} {
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		if token := normaliseToken(value); token != "" {
			result[token] = struct{}{}
		}
	}
	return result
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func parseTokenList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var parsed []any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			tokens := make([]string, 0, len(parsed))
			for _, entry := range parsed {
				if token := normaliseToken(fmt.Sprint(entry)); token != "" {
					tokens = append(tokens, token)
				}
			}
			return dedupe(tokens)
		}
	}

	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := normaliseToken(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	return dedupe(tokens)
}
