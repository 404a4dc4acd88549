// Package values holds the mutable value mapping a form session works on and
// the small coercion helpers renderers and validators share.
package values

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Values maps a field id to its current value. Values are strings, numbers,
// booleans, lists of scalars, or lists of row objects for array fields.
type Values map[string]any

// Clone returns a deep copy so callers can hand snapshots out without sharing
// nested rows or lists.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = deepCopy(value)
	}
	return out
}

// Has reports whether id is a key of the mapping.
func (v Values) Has(id string) bool {
	_, ok := v[id]
	return ok
}

// Keys returns the sorted key set.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SameSnapshot reports whether a and b are the same map reference. Two
// distinct maps with equal contents are different snapshots.
func SameSnapshot(a, b Values) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

// IsEmpty reports whether value counts as absent for required checks: nil,
// blank strings, and empty lists or maps. Booleans and numbers are present.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case []map[string]any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

// String renders a scalar for display inside a text control. Lists are joined
// with ", " so auto fields round-trip through SplitList.
func String(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, ", ")
	case []any:
		return strings.Join(Strings(v), ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Strings coerces a scalar or list into a list of strings. Nil and blank
// scalars produce an empty list.
func Strings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, String(item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return []string{String(v)}
	}
}

// Bool coerces checkbox-like values.
func Bool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "1", "yes":
			return true
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

// SplitList splits a raw comma separated string into trimmed entries,
// dropping blanks. It backs the auto field blur behaviour.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []map[string]any:
		clone := make([]map[string]any, len(typed))
		for i, row := range typed {
			clone[i] = deepCopy(row).(map[string]any)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
