package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formschema/pkg/values"
)

// ErrMissingValue marks a field whose id is absent from the initial values.
var ErrMissingValue = errors.New("schema: field id missing from initial values")

// Check validates the structural contract between a schema and the initial
// value snapshot. Every problem found is reported through errors.Join.
func Check(s Schema, initial values.Values) error {
	var errs []error
	seen := make(map[string]struct{})

	for si, section := range s {
		for fi, field := range section.Fields {
			where := fmt.Sprintf("section %d field %d", si, fi)
			id := strings.TrimSpace(field.ID)
			if id == "" {
				errs = append(errs, fmt.Errorf("schema: %s: id is required", where))
				continue
			}
			if _, dup := seen[id]; dup {
				errs = append(errs, fmt.Errorf("schema: duplicate field id %q", id))
			}
			seen[id] = struct{}{}

			if !field.Type.Valid() {
				errs = append(errs, fmt.Errorf("%w: %q on field %q", ErrUnknownFieldType, field.Type, id))
			}
			if initial != nil && !initial.Has(id) {
				errs = append(errs, fmt.Errorf("%w: %q", ErrMissingValue, id))
			}

			switch field.Type {
			case TypeAsync:
				if strings.TrimSpace(field.URL) == "" {
					errs = append(errs, fmt.Errorf("schema: async field %q requires a url", id))
				}
			case TypeSelect, TypeRadio:
				if len(field.Options) == 0 {
					errs = append(errs, fmt.Errorf("schema: %s field %q requires options", field.Type, id))
				}
			}
		}
	}

	return errors.Join(errs...)
}
