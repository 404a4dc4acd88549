package form_test

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formschema/pkg/form"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

func orgSchema() schema.Schema {
	return schema.Schema{{Title: "Organisation", Fields: []schema.Field{
		{ID: "orgName", Label: "Name", Type: schema.TypeText},
		{ID: "email", Label: "Email", Type: schema.TypeEmail},
	}}}
}

func orgRules() validation.Ruleset {
	return validation.Ruleset{
		"orgName": validation.NewRule(validation.Required()),
		"email":   validation.NewRule(validation.Required(), validation.Email()),
	}
}

func TestNew_RejectsSchemaMissingInitialValue(t *testing.T) {
	_, err := form.New(orgSchema(), values.Values{"orgName": ""})
	if !errors.Is(err, schema.ErrMissingValue) {
		t.Fatalf("expected ErrMissingValue, got %v", err)
	}
}

func TestNew_CopiesInitialValues(t *testing.T) {
	initial := values.Values{"orgName": "Acme", "email": ""}
	f, err := form.New(orgSchema(), initial)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := f.SetValue("orgName", "Other"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if initial["orgName"] != "Acme" {
		t.Fatalf("initial snapshot mutated: %v", initial)
	}
}

func TestSubmit_OrganisationExample(t *testing.T) {
	var calls []values.Values
	f, err := form.New(orgSchema(), values.Values{"orgName": "", "email": ""},
		form.WithRules(orgRules()),
		form.WithSubmit(func(_ context.Context, vals values.Values) error {
			calls = append(calls, vals)
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	mustSet(t, f, "orgName", "Acme")
	mustSet(t, f, "email", "not-an-email")

	res, err := f.Submit(context.Background())
	if !errors.Is(err, form.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if res.Status != form.StatusInvalid {
		t.Fatalf("expected invalid status, got %s", res.Status)
	}
	if diff := cmp.Diff(validation.ErrorMap{"email": "Invalid Email"}, res.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(calls) != 0 {
		t.Fatalf("callback must not run on invalid submit")
	}

	mustSet(t, f, "email", "a@b.com")
	res, err = f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Status != form.StatusSubmitted || !res.Done() {
		t.Fatalf("expected submitted, got %s", res.Status)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one callback, got %d", len(calls))
	}
	want := values.Values{"orgName": "Acme", "email": "a@b.com"}
	if diff := cmp.Diff(want, calls[0]); diff != "" {
		t.Fatalf("submitted values mismatch (-want +got):\n%s", diff)
	}
	if f.Submitting() {
		t.Fatalf("submitting flag must clear after callback")
	}
}

func TestSubmit_EmptyRequiredFieldBlocksCallback(t *testing.T) {
	var called atomic.Int32
	f, err := form.New(orgSchema(), values.Values{"orgName": "", "email": "a@b.com"},
		form.WithRules(orgRules()),
		form.WithSubmit(func(context.Context, values.Values) error {
			called.Add(1)
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := f.Submit(context.Background())
	if !errors.Is(err, form.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if res.Errors["orgName"] == "" {
		t.Fatalf("expected message for orgName, got %v", res.Errors)
	}
	if called.Load() != 0 {
		t.Fatalf("callback must not run")
	}
}

func TestSubmit_CallbackKeysMatchSnapshot(t *testing.T) {
	s := schema.Schema{{Fields: []schema.Field{
		{ID: "a", Type: schema.TypeText},
		{ID: "b", Type: schema.TypeSwitch},
		{ID: "c", Type: schema.TypeArray},
	}}}
	initial := values.Values{"a": "x", "b": false, "c": []map[string]any{{"k": "v"}}}
	var got values.Values
	f, err := form.New(s, initial, form.WithSubmit(func(_ context.Context, vals values.Values) error {
		got = vals
		return nil
	}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := f.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if diff := cmp.Diff(initial.Keys(), got.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_RejectsReentry(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	f, err := form.New(orgSchema(), values.Values{"orgName": "Acme", "email": "a@b.com"},
		form.WithSubmit(func(context.Context, values.Values) error {
			close(entered)
			<-release
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("callback never started")
	}
	if !f.Submitting() {
		t.Fatalf("expected submitting flag while callback runs")
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, form.ErrSubmitInProgress) {
		t.Fatalf("expected ErrSubmitInProgress, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if f.Submitting() {
		t.Fatalf("submitting flag must clear")
	}
}

func TestSubmit_CallbackFailureClearsFlagAndMergesFieldErrors(t *testing.T) {
	f, err := form.New(orgSchema(), values.Values{"orgName": "Acme", "email": "a@b.com"},
		form.WithSubmit(func(context.Context, values.Values) error {
			return &form.FieldErrors{Errors: validation.ErrorMap{"email": "Already registered", "form": "Try again"}}
		}),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := f.Submit(context.Background())
	if err == nil || res.Status != form.StatusFailed {
		t.Fatalf("expected failed submit, got %v %s", err, res.Status)
	}
	var fieldErrs *form.FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected wrapped FieldErrors, got %v", err)
	}
	if f.Submitting() {
		t.Fatalf("submitting flag must clear after failure")
	}

	view, err := f.View(context.Background())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	ctrl, _ := view.Control("email")
	if ctrl.Error != "Already registered" {
		t.Fatalf("expected server error on email, got %q", ctrl.Error)
	}
	if diff := cmp.Diff([]string{"Try again"}, view.FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestCancel(t *testing.T) {
	var cancelled int
	f, err := form.New(orgSchema(), values.Values{"orgName": "Acme", "email": ""},
		form.WithCancel(func() { cancelled++ }),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	before := f.Values()
	f.Cancel()
	if cancelled != 1 {
		t.Fatalf("expected cancel callback once, got %d", cancelled)
	}
	if diff := cmp.Diff(before, f.Values()); diff != "" {
		t.Fatalf("cancel changed state (-want +got):\n%s", diff)
	}

	bare, err := form.New(orgSchema(), values.Values{"orgName": "", "email": ""})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	bare.Cancel()
}

func TestReset_OnlyOnNewSnapshotReference(t *testing.T) {
	initial := values.Values{"orgName": "Acme", "email": ""}
	f, err := form.New(orgSchema(), initial)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	mustSet(t, f, "orgName", "Edited")

	reset, err := f.Reset(initial)
	if err != nil || reset {
		t.Fatalf("same snapshot must not reset: %v %v", reset, err)
	}
	if f.Values()["orgName"] != "Edited" {
		t.Fatalf("values changed without reset")
	}

	next := values.Values{"orgName": "Acme", "email": ""}
	reset, err = f.Reset(next)
	if err != nil || !reset {
		t.Fatalf("new snapshot must reset: %v %v", reset, err)
	}
	if f.Values()["orgName"] != "Acme" {
		t.Fatalf("expected reseeded values, got %v", f.Values())
	}
	if f.Touched("orgName") {
		t.Fatalf("reset must clear touched state")
	}

	if _, err := f.Reset(values.Values{"orgName": ""}); !errors.Is(err, schema.ErrMissingValue) {
		t.Fatalf("expected ErrMissingValue on incomplete snapshot, got %v", err)
	}
}

func TestArrayRows(t *testing.T) {
	s := schema.Schema{{Fields: []schema.Field{{ID: "contacts", Type: schema.TypeArray}, {ID: "name", Type: schema.TypeText}}}}
	f, err := form.New(s, values.Values{
		"contacts": []map[string]any{{"name": "Ann", "phone": "1"}},
		"name":     "",
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := f.AddRow("contacts"); err != nil {
		t.Fatalf("add row: %v", err)
	}
	want := []map[string]any{{"name": "Ann", "phone": "1"}, {"name": "", "phone": ""}}
	if diff := cmp.Diff(want, f.Values()["contacts"]); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	if err := f.RemoveRow("contacts", 0); err != nil {
		t.Fatalf("remove row 0: %v", err)
	}
	if diff := cmp.Diff(want, f.Values()["contacts"]); diff != "" {
		t.Fatalf("remove at 0 must be a no-op (-want +got):\n%s", diff)
	}

	if err := f.SetValue("contacts[1].phone", "2"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if got := f.Values()["contacts"].([]map[string]any)[1]["phone"]; got != "2" {
		t.Fatalf("expected cell write, got %v", got)
	}

	if err := f.RemoveRow("contacts", 1); err != nil {
		t.Fatalf("remove row 1: %v", err)
	}
	if rows := f.Values()["contacts"].([]map[string]any); len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}

	if err := f.AddRow("name"); !errors.Is(err, form.ErrNotArray) {
		t.Fatalf("expected ErrNotArray, got %v", err)
	}
	if err := f.AddRow("ghost"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := f.SetValue("contacts[5].name", "x"); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestAddRow_EmptyArrayIsNoop(t *testing.T) {
	s := schema.Schema{{Fields: []schema.Field{{ID: "contacts", Type: schema.TypeArray}}}}
	f, err := form.New(s, values.Values{"contacts": []map[string]any{}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := f.AddRow("contacts"); err != nil {
		t.Fatalf("add row: %v", err)
	}
	if rows := f.Values()["contacts"].([]map[string]any); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestBlur_SplitsAutoField(t *testing.T) {
	s := schema.Schema{{Fields: []schema.Field{{ID: "keywords", Type: schema.TypeAuto}}}}
	f, err := form.New(s, values.Values{"keywords": ""})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	mustSet(t, f, "keywords", " go, forms ,, html ")
	if err := f.Blur("keywords"); err != nil {
		t.Fatalf("blur: %v", err)
	}
	if diff := cmp.Diff([]string{"go", "forms", "html"}, f.Values()["keywords"]); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}
	if !f.Touched("keywords") {
		t.Fatalf("blur must mark touched")
	}
}

func TestSetValue_Errors(t *testing.T) {
	s := schema.Schema{{Fields: []schema.Field{{ID: "code", Type: schema.TypeText, ReadOnly: true}}}}
	f, err := form.New(s, values.Values{"code": "X"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := f.SetValue("code", "Y"); !errors.Is(err, form.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if err := f.SetValue("ghost", "Y"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSetValue_RowCells(t *testing.T) {
	s := schema.Schema{{Fields: []schema.Field{
		{ID: "contacts", Type: schema.TypeArray},
		{ID: "locked", Type: schema.TypeArray, ReadOnly: true},
	}}}
	f, err := form.New(s, values.Values{
		"contacts": []map[string]any{{"name": "Ann"}},
		"locked":   []map[string]any{{"name": "keep"}},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := f.SetValue("locked[0].name", "overwritten"); !errors.Is(err, form.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if err := f.SetValue("contacts[0].bogus", "x"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField for a column row 0 lacks, got %v", err)
	}

	want := values.Values{
		"contacts": []map[string]any{{"name": "Ann"}},
		"locked":   []map[string]any{{"name": "keep"}},
	}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Fatalf("rejected writes must leave values unchanged (-want +got):\n%s", diff)
	}
	if f.Touched("locked[0].name") || f.Touched("contacts[0].bogus") {
		t.Fatalf("rejected writes must not mark cells touched")
	}
}

func TestView_ShowsErrorsOnlyForTouchedFields(t *testing.T) {
	f, err := form.New(orgSchema(), values.Values{"orgName": "", "email": ""}, form.WithRules(orgRules()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	view, err := f.View(context.Background())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.HasErrors() {
		t.Fatalf("fresh form must not show errors: %v", view.Errors)
	}
	if errs := f.Errors(); len(errs) != 2 {
		t.Fatalf("expected errors to be tracked, got %v", errs)
	}

	mustSet(t, f, "email", "bad")
	view, _ = f.View(context.Background())
	email, _ := view.Control("email")
	if email.Error != "Invalid Email" || !email.Invalid {
		t.Fatalf("expected touched email error, got %+v", email)
	}
	name, _ := view.Control("orgName")
	if name.Error != "" {
		t.Fatalf("untouched field must hide its error, got %q", name.Error)
	}

	_, _ = f.Submit(context.Background())
	view, _ = f.View(context.Background())
	name, _ = view.Control("orgName")
	if name.Error != "Required" {
		t.Fatalf("submit must expose every error, got %q", name.Error)
	}
}

func TestApply_DecodedBody(t *testing.T) {
	s := schema.Schema{{Fields: []schema.Field{
		{ID: "orgName", Type: schema.TypeText},
		{ID: "contacts", Type: schema.TypeArray},
	}}}
	f, err := form.New(s, values.Values{"orgName": "", "contacts": []map[string]any{{"name": ""}}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	body := url.Values{"orgName": {"Acme"}, "contacts[0].name": {"Ann"}}
	if err := f.Apply(form.Decode(s, body)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := values.Values{"orgName": "Acme", "contacts": []map[string]any{{"name": "Ann"}}}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if !f.Touched("orgName") || !f.Touched("contacts") {
		t.Fatalf("changed fields must be touched")
	}
}

func TestApply_FitsPostedRowsToStoredRows(t *testing.T) {
	s := schema.Schema{{Fields: []schema.Field{{ID: "contacts", Type: schema.TypeArray}}}}
	f, err := form.New(s, values.Values{"contacts": []map[string]any{{"name": "", "email": ""}}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	body := url.Values{
		"contacts[0].name":  {"Ann"},
		"contacts[0].bogus": {"x"},
		"contacts[7].name":  {"Eve"},
	}
	if err := f.Apply(form.Decode(s, body)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := []map[string]any{{"name": "Ann", "email": ""}}
	if diff := cmp.Diff(want, f.Values()["contacts"]); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestHandle(t *testing.T) {
	var cancelled bool
	s := schema.Schema{{Fields: []schema.Field{{ID: "contacts", Type: schema.TypeArray}}}}
	f, err := form.New(s, values.Values{"contacts": []map[string]any{{"name": "Ann"}}},
		form.WithCancel(func() { cancelled = true }),
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	res, err := f.Handle(ctx, form.Action{Kind: form.ActionAddRow, Field: "contacts"})
	if err != nil || res.Status != form.StatusEditing {
		t.Fatalf("add row: %v %s", err, res.Status)
	}
	res, err = f.Handle(ctx, form.Action{Kind: form.ActionRemoveRow, Field: "contacts", Index: 1})
	if err != nil || res.Status != form.StatusEditing {
		t.Fatalf("remove row: %v %s", err, res.Status)
	}
	res, err = f.Handle(ctx, form.Action{Kind: form.ActionCancel})
	if err != nil || res.Status != form.StatusCancelled || !cancelled {
		t.Fatalf("cancel: %v %s %v", err, res.Status, cancelled)
	}
	res, err = f.Handle(ctx, form.Action{Kind: form.ActionSubmit})
	if err != nil || res.Status != form.StatusSubmitted {
		t.Fatalf("submit: %v %s", err, res.Status)
	}
}

func mustSet(t *testing.T, f *form.Form, id string, value any) {
	t.Helper()
	if err := f.SetValue(id, value); err != nil {
		t.Fatalf("set %s: %v", id, err)
	}
}
