package render

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

// Binding is the setter surface interactive renderers write through. The form
// orchestrator implements it; renderers never mutate values themselves.
type Binding interface {
	Values() values.Values
	SetValue(id string, value any) error
	AddRow(id string) error
	RemoveRow(id string, index int) error
}

// OptionLookup supplies options for async fields.
type OptionLookup interface {
	Load(ctx context.Context, field schema.Field) []schema.Option
}

// SectionView is one titled group of controls.
type SectionView struct {
	Title    string    `json:"title,omitempty"`
	Controls []Control `json:"controls"`
}

// View is the full rendering decision for a form.
type View struct {
	Sections   []SectionView       `json:"sections"`
	Errors     validation.ErrorMap `json:"errors,omitempty"`
	FormErrors []string            `json:"formErrors,omitempty"`
	Submitting bool                `json:"submitting"`
}

// HasErrors reports whether any field or form level error is present.
func (v View) HasErrors() bool {
	return len(v.Errors) > 0 || len(v.FormErrors) > 0
}

// Control finds a control by field id.
func (v View) Control(id string) (Control, bool) {
	for _, section := range v.Sections {
		for _, ctrl := range section.Controls {
			if ctrl.ID == id {
				return ctrl, true
			}
		}
	}
	return Control{}, false
}

// Build walks the schema in order and dispatches every field. Async fields
// without options in state are resolved through lookup when one is given.
// Error keys that do not belong to any control are surfaced as form errors.
func Build(ctx context.Context, s schema.Schema, state State, lookup OptionLookup) (View, error) {
	if lookup != nil {
		resolved := make(map[string][]schema.Option, len(state.Options))
		for id, opts := range state.Options {
			resolved[id] = opts
		}
		for _, field := range s.Fields() {
			if field.Type != schema.TypeAsync {
				continue
			}
			if _, ok := resolved[field.ID]; ok {
				continue
			}
			resolved[field.ID] = lookup.Load(ctx, field)
		}
		state.Options = resolved
	}

	view := View{
		Sections:   make([]SectionView, 0, len(s)),
		Submitting: state.Submitting,
	}
	for _, section := range s {
		sv := SectionView{
			Title:    PlainText(section.Title),
			Controls: make([]Control, 0, len(section.Fields)),
		}
		for _, field := range section.Fields {
			ctrl, err := Dispatch(field, state)
			if err != nil {
				return View{}, fmt.Errorf("render: build: %w", err)
			}
			sv.Controls = append(sv.Controls, ctrl)
		}
		view.Sections = append(view.Sections, sv)
	}

	mapping := MapErrors(s, state.Errors)
	view.Errors = mapping.Fields
	view.FormErrors = mapping.Form
	return view, nil
}
