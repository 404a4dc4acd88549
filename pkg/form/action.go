package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownAction is returned by ParseAction for unrecognised actions.
var ErrUnknownAction = errors.New("form: unknown action")

// ActionKind names what a posted button asks the form to do.
type ActionKind string

const (
	ActionSubmit    ActionKind = "submit"
	ActionCancel    ActionKind = "cancel"
	ActionAddRow    ActionKind = "add-row"
	ActionRemoveRow ActionKind = "remove-row"
)

// ActionField is the form key carrying the action.
const ActionField = "_action"

// Action is a parsed form action.
type Action struct {
	Kind  ActionKind
	Field string
	Index int
}

// String renders the action in its posted form.
func (a Action) String() string {
	switch a.Kind {
	case ActionAddRow:
		return fmt.Sprintf("%s:%s", a.Kind, a.Field)
	case ActionRemoveRow:
		return fmt.Sprintf("%s:%s:%d", a.Kind, a.Field, a.Index)
	default:
		return string(a.Kind)
	}
}

// ParseAction reads "submit", "cancel", "add-row:<id>" or
// "remove-row:<id>:<index>". An empty value is a submit, which is what the
// browser sends when Enter is pressed inside a field.
func ParseAction(raw string) (Action, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", string(ActionSubmit):
		return Action{Kind: ActionSubmit}, nil
	case string(ActionCancel):
		return Action{Kind: ActionCancel}, nil
	}

	kind, rest, _ := strings.Cut(raw, ":")
	switch ActionKind(kind) {
	case ActionAddRow:
		if rest == "" || strings.Contains(rest, ":") {
			return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, raw)
		}
		return Action{Kind: ActionAddRow, Field: rest}, nil
	case ActionRemoveRow:
		sep := strings.LastIndex(rest, ":")
		if sep <= 0 {
			return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, raw)
		}
		index, err := strconv.Atoi(rest[sep+1:])
		if err != nil || index < 0 {
			return Action{}, fmt.Errorf("%w: %q: bad row index", ErrUnknownAction, raw)
		}
		return Action{Kind: ActionRemoveRow, Field: rest[:sep], Index: index}, nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
}

// Handle runs action against the form.
func (f *Form) Handle(ctx context.Context, action Action) (Result, error) {
	switch action.Kind {
	case ActionSubmit:
		return f.Submit(ctx)
	case ActionCancel:
		f.Cancel()
		return Result{Status: StatusCancelled}, nil
	case ActionAddRow:
		if err := f.AddRow(action.Field); err != nil {
			return Result{Status: StatusEditing}, err
		}
		return Result{Status: StatusEditing}, nil
	case ActionRemoveRow:
		if err := f.RemoveRow(action.Field, action.Index); err != nil {
			return Result{Status: StatusEditing}, err
		}
		return Result{Status: StatusEditing}, nil
	default:
		return Result{Status: StatusEditing}, fmt.Errorf("%w: %q", ErrUnknownAction, action.Kind)
	}
}
