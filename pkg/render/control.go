package render

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formschema/pkg/arrayfield"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

// ErrUnknownFieldType is returned by Dispatch for tags outside the closed set.
var ErrUnknownFieldType = errors.New("render: unknown field type")

// Kind selects the control a renderer draws for a field.
type Kind string

const (
	KindInput    Kind = "input"
	KindTextarea Kind = "textarea"
	KindSelect   Kind = "select"
	KindAsync    Kind = "async"
	KindAuto     Kind = "auto"
	KindChoice   Kind = "choice"
	KindArray    Kind = "array"
)

// ChoiceMode distinguishes the three shapes a choice control can take.
type ChoiceMode string

const (
	// ChoiceToggle stores a boolean (switch, checkbox without options).
	ChoiceToggle ChoiceMode = "toggle"
	// ChoiceMulti stores a list of option values (checkbox with options).
	ChoiceMulti ChoiceMode = "multi"
	// ChoiceSingle stores one option value (radio).
	ChoiceSingle ChoiceMode = "single"
)

// State is the read-only form state a control is derived from.
type State struct {
	Values     values.Values
	Errors     validation.ErrorMap
	Touched    map[string]bool
	Submitting bool
	// Options holds fetched options for async fields, keyed by field id.
	Options map[string][]schema.Option
}

// Error returns the message bound to key, which is a field id or a
// row-scoped cell name.
func (s State) Error(key string) string {
	return s.Errors[key]
}

// IsTouched reports whether the user has interacted with id.
func (s State) IsTouched(id string) bool {
	return s.Touched[id]
}

// OptionView is one option with its selection state resolved.
type OptionView struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected,omitempty"`
}

// CellView is one text input inside an array row.
type CellView struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
}

// RowView is one row of an array control.
type RowView struct {
	Index     int        `json:"index"`
	Cells     []CellView `json:"cells"`
	Removable bool       `json:"removable"`
}

// Control is the rendering decision for one field.
type Control struct {
	ID          string       `json:"id"`
	Kind        Kind         `json:"kind"`
	Type        string       `json:"type"`
	Label       string       `json:"label"`
	Placeholder string       `json:"placeholder,omitempty"`
	Help        string       `json:"help,omitempty"`
	ReadOnly    bool         `json:"readonly,omitempty"`
	Multi       bool         `json:"multi,omitempty"`
	Mode        ChoiceMode   `json:"mode,omitempty"`
	Value       string       `json:"value,omitempty"`
	Selected    []string     `json:"selected,omitempty"`
	Checked     bool         `json:"checked,omitempty"`
	Options     []OptionView `json:"options,omitempty"`
	URL         string       `json:"url,omitempty"`
	Rows        []RowView    `json:"rows,omitempty"`
	CanAddRow   bool         `json:"canAddRow,omitempty"`
	Error       string       `json:"error,omitempty"`
	Touched     bool         `json:"touched,omitempty"`
	// Valid and Invalid are only set once the field has been touched.
	Valid   bool `json:"valid,omitempty"`
	Invalid bool `json:"invalid,omitempty"`
}

// Dispatch maps one field and the current state to a Control. The switch is
// exhaustive over the closed type set; anything else is an error.
func Dispatch(field schema.Field, state State) (Control, error) {
	value := state.Values[field.ID]
	ctrl := Control{
		ID:          field.ID,
		Type:        string(field.Type),
		Label:       SanitizeLabel(field.DisplayLabel()),
		Placeholder: PlainText(field.Placeholder),
		Help:        SanitizeLabel(field.Help),
		ReadOnly:    field.ReadOnly,
		Multi:       field.Multi,
		Error:       state.Error(field.ID),
		Touched:     state.IsTouched(field.ID),
	}

	switch field.Type {
	case schema.TypeArray:
		ctrl.Kind = KindArray
		rows, ok := arrayfield.Rows(value)
		if !ok {
			return Control{}, fmt.Errorf("render: array field %q holds %T, want a list of rows", field.ID, value)
		}
		ctrl.Rows = rowViews(field.ID, rows, state)
		ctrl.CanAddRow = len(rows) > 0 && !field.ReadOnly

	case schema.TypeAsync:
		ctrl.Kind = KindAsync
		ctrl.URL = field.URL
		ctrl.Selected = values.Strings(value)
		ctrl.Options = optionViews(state.Options[field.ID], ctrl.Selected)
		if !field.Multi {
			ctrl.Value = values.String(value)
		}

	case schema.TypeAuto:
		ctrl.Kind = KindAuto
		ctrl.Value = values.String(value)

	case schema.TypeCheckbox, schema.TypeRadio, schema.TypeSwitch:
		ctrl.Kind = KindChoice
		switch {
		case field.Type == schema.TypeRadio:
			ctrl.Mode = ChoiceSingle
			ctrl.Value = values.String(value)
			ctrl.Selected = values.Strings(value)
		case field.Type == schema.TypeCheckbox && len(field.Options) > 0:
			ctrl.Mode = ChoiceMulti
			ctrl.Multi = true
			ctrl.Selected = values.Strings(value)
		default:
			ctrl.Mode = ChoiceToggle
			ctrl.Checked = values.Bool(value)
		}
		ctrl.Options = optionViews(field.Options, ctrl.Selected)

	case schema.TypeSelect:
		ctrl.Kind = KindSelect
		ctrl.Selected = values.Strings(value)
		ctrl.Options = optionViews(field.Options, ctrl.Selected)
		if !field.Multi {
			ctrl.Value = values.String(value)
		}

	case schema.TypeTextarea:
		ctrl.Kind = KindTextarea
		ctrl.Value = values.String(value)

	case schema.TypeText, schema.TypeEmail, schema.TypeNumber, schema.TypePassword,
		schema.TypeURL, schema.TypeTel, schema.TypeDate:
		ctrl.Kind = KindInput
		ctrl.Value = values.String(value)
		if ctrl.Touched {
			ctrl.Invalid = ctrl.Error != ""
			ctrl.Valid = !ctrl.Invalid
		}

	default:
		return Control{}, fmt.Errorf("%w: %q on field %q", ErrUnknownFieldType, field.Type, field.ID)
	}

	return ctrl, nil
}

func rowViews(id string, rows []arrayfield.Row, state State) []RowView {
	out := make([]RowView, 0, len(rows))
	for index, row := range rows {
		view := RowView{
			Index:     index,
			Removable: arrayfield.Removable(rows, index),
		}
		for _, key := range arrayfield.Keys(row) {
			name := arrayfield.InputName(id, index, key)
			view.Cells = append(view.Cells, CellView{
				Key:   key,
				Name:  name,
				Value: values.String(row[key]),
				Error: state.Error(name),
			})
		}
		out = append(out, view)
	}
	return out
}

func optionViews(opts []schema.Option, selected []string) []OptionView {
	if len(opts) == 0 {
		return nil
	}
	chosen := make(map[string]struct{}, len(selected))
	for _, value := range selected {
		chosen[value] = struct{}{}
	}
	out := make([]OptionView, 0, len(opts))
	for _, opt := range opts {
		_, ok := chosen[opt.Value]
		out = append(out, OptionView{
			Label:    PlainText(opt.Label),
			Value:    opt.Value,
			Selected: ok,
		})
	}
	return out
}
