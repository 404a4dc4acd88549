package form

import (
	"fmt"

	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

// Status summarises the outcome of an action on the form.
type Status string

const (
	// StatusEditing means the form stays open (row edits, rejected re-entry).
	StatusEditing Status = "editing"
	// StatusInvalid means validation blocked the submit.
	StatusInvalid Status = "invalid"
	// StatusSubmitted means the submit callback accepted the values.
	StatusSubmitted Status = "submitted"
	// StatusFailed means the submit callback returned an error.
	StatusFailed Status = "failed"
	// StatusCancelled means the cancel action ran.
	StatusCancelled Status = "cancelled"
)

// Result is the structured outcome of Submit or Handle.
type Result struct {
	Status Status
	// Values is the snapshot handed to the submit callback.
	Values values.Values
	Errors validation.ErrorMap
	// Err carries the submit callback error for StatusFailed.
	Err error
}

// Done reports whether the session is finished.
func (r Result) Done() bool {
	return r.Status == StatusSubmitted || r.Status == StatusCancelled
}

// FieldErrors lets a submit callback report server-side field errors. They
// are merged into the form's error map and shown until the next edit.
type FieldErrors struct {
	Errors validation.ErrorMap
}

func (e *FieldErrors) Error() string {
	return fmt.Sprintf("form: %d field error(s) from submit", len(e.Errors))
}
