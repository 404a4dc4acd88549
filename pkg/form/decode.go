package form

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-formschema/pkg/arrayfield"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/values"
)

// MaxRows caps the row index Decode accepts for array cells. Cells with a
// larger index are dropped.
const MaxRows = 500

// Decode converts a url-encoded submission into typed values following each
// field's type. Readonly fields and fields absent from the body are skipped,
// except toggles and multi-choice checkboxes whose absence means "nothing
// checked".
func Decode(s schema.Schema, in url.Values) values.Values {
	out := make(values.Values)
	cells := collectCells(in)

	for _, field := range s.Fields() {
		if field.ReadOnly {
			continue
		}
		raw, present := in[field.ID]

		switch field.Type {
		case schema.TypeArray:
			if rows, ok := cells[field.ID]; ok {
				out[field.ID] = rows
			}

		case schema.TypeAuto:
			if present {
				out[field.ID] = values.SplitList(last(raw))
			}

		case schema.TypeCheckbox, schema.TypeRadio, schema.TypeSwitch:
			switch {
			case field.Type == schema.TypeRadio:
				if present {
					out[field.ID] = last(raw)
				}
			case field.Type == schema.TypeCheckbox && len(field.Options) > 0:
				out[field.ID] = nonEmpty(raw)
			default:
				// The hidden "false" input precedes the checkbox, so the last
				// value wins.
				out[field.ID] = present && values.Bool(last(raw))
			}

		case schema.TypeSelect, schema.TypeAsync:
			if !present {
				continue
			}
			if field.Multi {
				out[field.ID] = nonEmpty(raw)
			} else {
				out[field.ID] = last(raw)
			}

		case schema.TypeNumber:
			if !present {
				continue
			}
			text := strings.TrimSpace(last(raw))
			if n, err := strconv.ParseFloat(text, 64); err == nil {
				out[field.ID] = n
			} else {
				out[field.ID] = text
			}

		default:
			if present {
				out[field.ID] = last(raw)
			}
		}
	}
	return out
}

func collectCells(in url.Values) map[string][]arrayfield.Row {
	type cell struct {
		index int
		key   string
		value string
	}
	byField := make(map[string][]cell)
	for name, raw := range in {
		id, index, key, ok := arrayfield.ParseInputName(name)
		if !ok || index >= MaxRows {
			continue
		}
		byField[id] = append(byField[id], cell{index: index, key: key, value: last(raw)})
	}

	out := make(map[string][]arrayfield.Row, len(byField))
	for id, cells := range byField {
		size := 0
		keys := make(map[string]struct{})
		for _, c := range cells {
			if c.index+1 > size {
				size = c.index + 1
			}
			keys[c.key] = struct{}{}
		}
		rows := make([]arrayfield.Row, size)
		for i := range rows {
			rows[i] = make(arrayfield.Row, len(keys))
			for key := range keys {
				rows[i][key] = ""
			}
		}
		for _, c := range cells {
			rows[c.index][c.key] = c.value
		}
		out[id] = rows
	}
	return out
}

func last(raw []string) string {
	if len(raw) == 0 {
		return ""
	}
	return raw[len(raw)-1]
}

func nonEmpty(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
