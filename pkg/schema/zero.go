package schema

import "github.com/goliatone/go-formschema/pkg/values"

// ZeroValues builds a value snapshot holding the empty value of every field,
// so a schema can be edited without a separate values document.
func (s Schema) ZeroValues() values.Values {
	out := make(values.Values)
	for _, field := range s.Fields() {
		out[field.ID] = field.Zero()
	}
	return out
}

// Zero returns the empty value stored for the field's type.
func (f Field) Zero() any {
	switch f.Type {
	case TypeSwitch:
		return false
	case TypeCheckbox:
		if len(f.Options) > 0 {
			return []string{}
		}
		return false
	case TypeAuto:
		return []string{}
	case TypeSelect, TypeAsync:
		if f.Multi {
			return []string{}
		}
		return ""
	case TypeArray:
		return []map[string]any{}
	default:
		return ""
	}
}
