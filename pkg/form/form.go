// Package form owns the live state of one form session: values, touched
// fields, validation errors, and the submitting flag. Renderers read a View
// from it and write edits back through its setters.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/goliatone/go-formschema/pkg/arrayfield"
	"github.com/goliatone/go-formschema/pkg/render"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

var (
	// ErrValidation is returned by Submit when the ruleset reports errors.
	ErrValidation = errors.New("form: validation failed")
	// ErrSubmitInProgress rejects a Submit while another one is running.
	ErrSubmitInProgress = errors.New("form: submit already in progress")
	// ErrUnknownField is returned by setters for ids the schema lacks.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrNotArray is returned by row operations on non-array fields.
	ErrNotArray = errors.New("form: field is not an array")
	// ErrReadOnly is returned by setters targeting a readonly field.
	ErrReadOnly = errors.New("form: field is readonly")
)

// SubmitFunc receives a snapshot of all values once validation passes.
type SubmitFunc func(ctx context.Context, vals values.Values) error

// CancelFunc is invoked by Cancel.
type CancelFunc func()

// Option configures a Form.
type Option func(*Form)

// WithRules sets the validation ruleset.
func WithRules(rules validation.Ruleset) Option {
	return func(f *Form) {
		f.rules = rules
	}
}

// WithSubmit sets the submit callback.
func WithSubmit(fn SubmitFunc) Option {
	return func(f *Form) {
		f.submit = fn
	}
}

// WithCancel sets the cancel callback.
func WithCancel(fn CancelFunc) Option {
	return func(f *Form) {
		f.cancel = fn
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithOptionSource resolves async field options when building views.
func WithOptionSource(lookup render.OptionLookup) Option {
	return func(f *Form) {
		f.lookup = lookup
	}
}

// Form is safe for concurrent use. The submit callback runs without the lock
// held so it may read the form.
type Form struct {
	mu sync.Mutex

	schema schema.Schema
	rules  validation.Ruleset
	submit SubmitFunc
	cancel CancelFunc
	lookup render.OptionLookup
	logger *slog.Logger

	snapshot   values.Values
	values     values.Values
	touched    map[string]bool
	errors     validation.ErrorMap
	submitting bool
}

var _ render.Session = (*Form)(nil)

// New seeds a form from the initial snapshot. The schema must pass
// schema.Check against it.
func New(s schema.Schema, initial values.Values, opts ...Option) (*Form, error) {
	seed := initial
	if seed == nil {
		seed = values.Values{}
	}
	if err := schema.Check(s, seed); err != nil {
		return nil, fmt.Errorf("form: invalid schema: %w", err)
	}

	f := &Form{
		schema: s,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	f.seed(initial)
	return f, nil
}

func (f *Form) seed(snapshot values.Values) {
	f.snapshot = snapshot
	f.values = snapshot.Clone()
	if f.values == nil {
		f.values = values.Values{}
	}
	f.touched = make(map[string]bool)
	f.errors = f.rules.Validate(f.values)
}

// Reset re-seeds the form when snapshot is a different reference from the
// one the form was seeded with. It reports whether a reset happened.
func (f *Form) Reset(snapshot values.Values) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if values.SameSnapshot(snapshot, f.snapshot) {
		return false, nil
	}
	seed := snapshot
	if seed == nil {
		seed = values.Values{}
	}
	if err := schema.Check(f.schema, seed); err != nil {
		return false, fmt.Errorf("form: reset: %w", err)
	}
	f.seed(snapshot)
	return true, nil
}

// Schema returns the schema the form was built from.
func (f *Form) Schema() schema.Schema {
	return f.schema
}

// Values returns a deep copy of the current values.
func (f *Form) Values() values.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Clone()
}

// Errors returns the current error map, including errors on untouched fields.
func (f *Form) Errors() validation.ErrorMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyErrors(f.errors)
}

// Touched reports whether key (a field id or row cell name) was touched.
func (f *Form) Touched(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched[key]
}

// Submitting reports whether a submit callback is running.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// SetValue writes a field value, or a single array cell when id is a
// row-scoped name like "contacts[1].phone". The field is marked touched and
// the form re-validated.
func (f *Form) SetValue(id string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.set(id, value); err != nil {
		return err
	}
	f.touched[id] = true
	f.revalidate()
	return nil
}

func (f *Form) set(id string, value any) error {
	copied := values.Values{"v": value}.Clone()["v"]

	if fieldID, index, key, ok := arrayfield.ParseInputName(id); ok {
		field, err := f.arrayField(fieldID)
		if err != nil {
			return err
		}
		if field.ReadOnly {
			return fmt.Errorf("%w: %q", ErrReadOnly, fieldID)
		}
		rows, _ := arrayfield.Rows(f.values[field.ID])
		if index >= len(rows) {
			return fmt.Errorf("form: %q: row %d out of range", fieldID, index)
		}
		if _, ok := rows[0][key]; !ok {
			return fmt.Errorf("%w: %q has no column %q", ErrUnknownField, fieldID, key)
		}
		rows[index][key] = copied
		f.values[field.ID] = rows
		return nil
	}

	field, ok := f.schema.Field(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	if field.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, id)
	}
	f.values[id] = copied
	return nil
}

// Blur marks id touched. Auto fields holding a raw string are split on commas
// into a list.
func (f *Form) Blur(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	field, ok := f.schema.Field(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	if field.Type == schema.TypeAuto {
		if raw, isString := f.values[id].(string); isString {
			f.values[id] = values.SplitList(raw)
		}
	}
	f.touched[id] = true
	f.revalidate()
	return nil
}

// Touch marks keys touched without changing values.
func (f *Form) Touch(keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		f.touched[key] = true
	}
}

// AddRow appends a row cloned from the first row's keys. Empty arrays are
// left unchanged.
func (f *Form) AddRow(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	field, err := f.arrayField(id)
	if err != nil {
		return err
	}
	if field.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, id)
	}
	rows, _ := arrayfield.Rows(f.values[id])
	if len(rows) == 0 {
		return nil
	}
	f.values[id] = arrayfield.Add(rows)
	f.revalidate()
	return nil
}

// RemoveRow deletes the row at index when 0 < index < len(rows); any other
// index is a no-op.
func (f *Form) RemoveRow(id string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	field, err := f.arrayField(id)
	if err != nil {
		return err
	}
	if field.ReadOnly {
		return fmt.Errorf("%w: %q", ErrReadOnly, id)
	}
	rows, _ := arrayfield.Rows(f.values[id])
	if !arrayfield.Removable(rows, index) {
		return nil
	}
	f.values[id] = arrayfield.Remove(rows, index)
	for key := range f.touched {
		if fieldID, _, _, ok := arrayfield.ParseInputName(key); ok && fieldID == id {
			delete(f.touched, key)
		}
	}
	f.revalidate()
	return nil
}

func (f *Form) arrayField(id string) (schema.Field, error) {
	field, ok := f.schema.Field(id)
	if !ok {
		return schema.Field{}, fmt.Errorf("%w: %q", ErrUnknownField, id)
	}
	if field.Type != schema.TypeArray {
		return schema.Field{}, fmt.Errorf("%w: %q is %s", ErrNotArray, id, field.Type)
	}
	if _, ok := arrayfield.Rows(f.values[id]); !ok {
		return schema.Field{}, fmt.Errorf("%w: %q holds %T", ErrNotArray, id, f.values[id])
	}
	return field, nil
}

// Apply merges decoded POST values into the form. Fields whose value changed
// are marked touched. Posted array rows are fitted onto the stored rows:
// extra rows and columns row 0 lacks are dropped; rows are only added or
// removed through AddRow and RemoveRow.
func (f *Form) Apply(decoded values.Values) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range decoded.Keys() {
		field, ok := f.schema.Field(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, id)
		}
		if field.ReadOnly {
			continue
		}
		value := decoded[id]
		if field.Type == schema.TypeArray {
			posted, ok := arrayfield.Rows(value)
			current, isRows := arrayfield.Rows(f.values[id])
			if !ok || !isRows {
				continue
			}
			value = conformRows(current, posted)
		}
		if reflect.DeepEqual(f.values[id], value) {
			continue
		}
		f.values[id] = value
		f.touched[id] = true
	}
	f.revalidate()
	return nil
}

// Validate runs the ruleset over the current values and returns the result.
func (f *Form) Validate() validation.ErrorMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revalidate()
	return copyErrors(f.errors)
}

func (f *Form) revalidate() {
	f.errors = f.rules.Validate(f.values)
}

// Cancel invokes the cancel callback, if any. State is left untouched.
func (f *Form) Cancel() {
	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Submit marks every field touched and re-validates. Only a clean error map
// reaches the submit callback, which receives a snapshot of all values. A
// second Submit while the callback runs fails with ErrSubmitInProgress.
func (f *Form) Submit(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return Result{Status: StatusEditing}, ErrSubmitInProgress
	}
	for _, field := range f.schema.Fields() {
		f.touched[field.ID] = true
	}
	f.revalidate()
	if !f.errors.Empty() {
		errs := copyErrors(f.errors)
		f.mu.Unlock()
		f.logger.Debug("form: submit rejected", "errors", len(errs))
		return Result{Status: StatusInvalid, Errors: errs}, fmt.Errorf("%w: %d field(s)", ErrValidation, len(errs))
	}

	snapshot := f.values.Clone()
	submit := f.submit
	f.submitting = submit != nil
	f.mu.Unlock()

	if submit == nil {
		return Result{Status: StatusSubmitted, Values: snapshot}, nil
	}

	err := submit(ctx, snapshot)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		var fieldErrs *FieldErrors
		if errors.As(err, &fieldErrs) {
			for key, msg := range fieldErrs.Errors {
				f.errors[key] = msg
				f.touched[key] = true
			}
		}
	}
	errs := copyErrors(f.errors)
	f.mu.Unlock()

	if err != nil {
		f.logger.Info("form: submit failed", "error", err)
		return Result{Status: StatusFailed, Values: snapshot, Errors: errs, Err: err}, fmt.Errorf("form: submit: %w", err)
	}
	f.logger.Info("form: submitted", "fields", len(snapshot))
	return Result{Status: StatusSubmitted, Values: snapshot}, nil
}

// View builds the render view. Errors are only exposed for touched keys; a
// touched array field exposes all of its cell errors.
func (f *Form) View(ctx context.Context) (render.View, error) {
	return f.ViewOf(ctx, f.schema)
}

// ViewOf builds the view of the current state against a derived schema, such
// as a localised copy or a subset of sections.
func (f *Form) ViewOf(ctx context.Context, s schema.Schema) (render.View, error) {
	f.mu.Lock()
	state := render.State{
		Values:     f.values.Clone(),
		Errors:     f.visibleErrors(),
		Touched:    copyTouched(f.touched),
		Submitting: f.submitting,
	}
	lookup := f.lookup
	f.mu.Unlock()

	return render.Build(ctx, s, state, lookup)
}

func (f *Form) visibleErrors() validation.ErrorMap {
	out := make(validation.ErrorMap)
	for key, msg := range f.errors {
		if f.touched[key] {
			out[key] = msg
			continue
		}
		if fieldID, _, _, ok := arrayfield.ParseInputName(key); ok {
			if f.touched[fieldID] {
				out[key] = msg
			}
			continue
		}
		if _, known := f.schema.Field(key); !known {
			// Form level messages from the submit callback.
			out[key] = msg
		}
	}
	return out
}

// conformRows copies current and overlays the posted cells that match an
// existing row and a column of row 0.
func conformRows(current, posted []arrayfield.Row) []arrayfield.Row {
	if len(current) == 0 {
		return current
	}
	columns := arrayfield.Keys(current[0])
	out := make([]arrayfield.Row, len(current))
	for i, row := range current {
		next := make(arrayfield.Row, len(row))
		for key, v := range row {
			next[key] = v
		}
		if i < len(posted) {
			for _, key := range columns {
				if v, ok := posted[i][key]; ok {
					next[key] = v
				}
			}
		}
		out[i] = next
	}
	return out
}

func copyErrors(in validation.ErrorMap) validation.ErrorMap {
	out := make(validation.ErrorMap, len(in))
	for key, msg := range in {
		out[key] = msg
	}
	return out
}

func copyTouched(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for key, v := range in {
		out[key] = v
	}
	return out
}
