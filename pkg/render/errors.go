package render

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formschema/pkg/arrayfield"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
)

// ErrorMapping splits an error map into messages bound to controls and
// form-level messages whose key matches no control.
type ErrorMapping struct {
	Fields validation.ErrorMap
	Form   []string
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrors keeps keys naming a schema field or a cell of an array field and
// moves everything else to the form level, prefixed with its key so the
// message is not lost.
func MapErrors(s schema.Schema, errs validation.ErrorMap) ErrorMapping {
	var mapping ErrorMapping
	if len(errs) == 0 {
		return mapping
	}

	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		message := strings.TrimSpace(errs[key])
		if message == "" {
			continue
		}
		if isControlKey(s, key) {
			if mapping.Fields == nil {
				mapping.Fields = make(validation.ErrorMap)
			}
			mapping.Fields[key] = message
			continue
		}
		if isFormLevelKey(key) {
			mapping.Form = append(mapping.Form, message)
			continue
		}
		mapping.Form = append(mapping.Form, key+": "+message)
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func isControlKey(s schema.Schema, key string) bool {
	if _, ok := s.Field(key); ok {
		return true
	}
	id, _, _, ok := arrayfield.ParseInputName(key)
	if !ok {
		return false
	}
	field, ok := s.Field(id)
	return ok && field.Type == schema.TypeArray
}

func isFormLevelKey(key string) bool {
	switch strings.TrimSpace(key) {
	case "", "_", "form", "_form":
		return true
	}
	return false
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
