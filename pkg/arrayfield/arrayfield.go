// Package arrayfield manages repeating groups: a variable-length list of
// homogeneous row objects stored under one field id. Row 0 is the template
// every new row is cloned from, so it can never be removed.
package arrayfield

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Row is one entry of an array field.
type Row = map[string]any

// Rows coerces a stored value into a row list. Lists of generic values are
// accepted as long as every element is an object.
func Rows(value any) ([]Row, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case []Row:
		return v, true
	case []any:
		out := make([]Row, 0, len(v))
		for _, item := range v {
			row, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, row)
		}
		return out, true
	default:
		return nil, false
	}
}

// Add appends a row carrying the first row's keys with empty string values.
// An empty list has no template and is returned unchanged.
func Add(rows []Row) []Row {
	if len(rows) == 0 {
		return rows
	}
	blank := make(Row, len(rows[0]))
	for key := range rows[0] {
		blank[key] = ""
	}
	out := make([]Row, 0, len(rows)+1)
	out = append(out, rows...)
	return append(out, blank)
}

// Remove deletes the row at index when 0 < index < len(rows). Any other
// index leaves the list unchanged.
func Remove(rows []Row, index int) []Row {
	if !Removable(rows, index) {
		return rows
	}
	out := make([]Row, 0, len(rows)-1)
	out = append(out, rows[:index]...)
	return append(out, rows[index+1:]...)
}

// Removable reports whether Remove would drop the row at index.
func Removable(rows []Row, index int) bool {
	return index > 0 && index < len(rows)
}

// Keys returns the sorted key set of row.
func Keys(row Row) []string {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// InputName scopes a row cell to its field and index: "contacts[1].phone".
// Validation errors for the cell use the same key.
func InputName(fieldID string, index int, key string) string {
	return fmt.Sprintf("%s[%d].%s", fieldID, index, key)
}

// ParseInputName reverses InputName.
func ParseInputName(name string) (fieldID string, index int, key string, ok bool) {
	open := strings.IndexByte(name, '[')
	if open <= 0 {
		return "", 0, "", false
	}
	rest := name[open+1:]
	closing := strings.Index(rest, "].")
	if closing <= 0 {
		return "", 0, "", false
	}
	idx, err := strconv.Atoi(rest[:closing])
	if err != nil || idx < 0 {
		return "", 0, "", false
	}
	key = rest[closing+2:]
	if key == "" {
		return "", 0, "", false
	}
	return name[:open], idx, key, true
}
