package schema

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formschema/pkg/values"
)

func TestParse_NestedArrayForm(t *testing.T) {
	raw := []byte(`[
  [
    {"title": "Organisation", "id": "orgName", "label": "Name", "type": "text"},
    {"id": "email", "label": "Email", "type": "email"}
  ],
  [
    {"title": "Contacts", "id": "contacts", "label": "Contacts", "type": "array"}
  ]
]`)

	got, err := Parse(raw, "schema.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := Schema{
		{Title: "Organisation", Fields: []Field{
			{ID: "orgName", Label: "Name", Type: TypeText, Title: "Organisation"},
			{ID: "email", Label: "Email", Type: TypeEmail},
		}},
		{Title: "Contacts", Fields: []Field{
			{ID: "contacts", Label: "Contacts", Type: TypeArray, Title: "Contacts"},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ObjectFormYAML(t *testing.T) {
	raw := []byte(`
- title: Profile
  fields:
    - id: plan
      label: Plan
      type: radio
      options:
        - {label: Free, value: free}
        - {label: Pro, value: pro}
    - id: bio
      type: textarea
    - id: nickname
`)

	got, err := Parse(raw, "schema.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Profile" {
		t.Fatalf("unexpected sections: %+v", got)
	}
	fields := got[0].Fields
	if fields[0].Type != TypeRadio || len(fields[0].Options) != 2 {
		t.Fatalf("unexpected radio field: %+v", fields[0])
	}
	if fields[2].Type != TypeText {
		t.Fatalf("expected missing type to default to text, got %q", fields[2].Type)
	}
}

func TestParse_RejectsUnknownType(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
	}{
		{"json", `[{"title": "A", "fields": [{"id": "x", "type": "slider"}]}]`},
		{"yaml", "- fields:\n    - id: x\n      type: slider\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw), "schema."+tc.name)
			if !errors.Is(err, ErrUnknownFieldType) {
				t.Fatalf("expected ErrUnknownFieldType, got %v", err)
			}
		})
	}
}

func TestFieldTypeGroups(t *testing.T) {
	for _, typ := range []FieldType{TypeCheckbox, TypeRadio, TypeSwitch} {
		if !typ.IsChoice() {
			t.Fatalf("expected %q to be a choice type", typ)
		}
	}
	if TypeSelect.IsChoice() {
		t.Fatalf("select must not be a choice type")
	}
	if !TypeEmail.IsInput() || TypeArray.IsInput() {
		t.Fatalf("unexpected input grouping")
	}
	if _, err := ParseFieldType("  Switch "); err != nil {
		t.Fatalf("expected case-insensitive parse: %v", err)
	}
}

func TestCheck(t *testing.T) {
	s := Schema{{Fields: []Field{
		{ID: "name", Type: TypeText},
		{ID: "name", Type: TypeText},
		{ID: "tags", Type: TypeAsync},
		{ID: "plan", Type: TypeSelect},
		{ID: "ghost", Type: TypeText},
	}}}
	initial := values.Values{"name": "", "tags": nil, "plan": ""}

	err := Check(s, initial)
	if err == nil {
		t.Fatalf("expected check errors")
	}
	msg := err.Error()
	for _, fragment := range []string{
		`duplicate field id "name"`,
		`async field "tags" requires a url`,
		`select field "plan" requires options`,
		`"ghost"`,
	} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in %q", fragment, msg)
		}
	}
	if !errors.Is(err, ErrMissingValue) {
		t.Fatalf("expected ErrMissingValue in joined error")
	}

	ok := Schema{{Fields: []Field{{ID: "name", Type: TypeText}}}}
	if err := Check(ok, values.Values{"name": ""}); err != nil {
		t.Fatalf("expected valid schema, got %v", err)
	}
}

func TestSchemaLookup(t *testing.T) {
	s := Schema{
		{Fields: []Field{{ID: "a"}}},
		{Fields: []Field{{ID: "b", Label: "Bee"}}},
	}
	if got := len(s.Fields()); got != 2 {
		t.Fatalf("expected 2 fields, got %d", got)
	}
	field, ok := s.Field("b")
	if !ok || field.DisplayLabel() != "Bee" {
		t.Fatalf("unexpected lookup result %+v", field)
	}
	if _, ok := s.Field("missing"); ok {
		t.Fatalf("expected missing field lookup to fail")
	}
}

func TestLoader(t *testing.T) {
	fsys := fstest.MapFS{
		"forms/demo.yaml": {Data: []byte("- title: A\n  fields:\n    - id: x\n")},
	}
	loader := NewLoader(WithFS(fsys))
	got, err := loader.Load(context.Background(), SourceFromFS("forms/demo.yaml"))
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if got[0].Fields[0].ID != "x" {
		t.Fatalf("unexpected schema %+v", got)
	}

	if _, err := loader.Load(context.Background(), SourceFromURL("http://example.invalid")); err == nil {
		t.Fatalf("expected url source to fail without http client")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"title": "Remote", "fields": [{"id": "y", "type": "switch"}]}]`))
	}))
	defer srv.Close()

	remote := NewLoader(WithHTTPClient(srv.Client()))
	got, err = remote.Load(context.Background(), SourceFromURL(srv.URL+"/schema"))
	if err != nil {
		t.Fatalf("load url: %v", err)
	}
	if got[0].Fields[0].Type != TypeSwitch {
		t.Fatalf("unexpected remote schema %+v", got)
	}
}

func TestDocumentSchema(t *testing.T) {
	doc := DocumentSchema()
	if doc == nil {
		t.Fatalf("expected document schema")
	}
	if doc.Title != "Form schema" {
		t.Fatalf("unexpected title %q", doc.Title)
	}
}

func TestZeroValues(t *testing.T) {
	s := Schema{{Fields: []Field{
		{ID: "name", Type: TypeText},
		{ID: "active", Type: TypeSwitch},
		{ID: "agree", Type: TypeCheckbox},
		{ID: "days", Type: TypeCheckbox, Options: []Option{{Label: "Mon", Value: "mon"}}},
		{ID: "tags", Type: TypeAsync, URL: "/tags", Multi: true},
		{ID: "owner", Type: TypeAsync, URL: "/owners"},
		{ID: "keywords", Type: TypeAuto},
		{ID: "contacts", Type: TypeArray},
	}}}
	want := values.Values{
		"name":     "",
		"active":   false,
		"agree":    false,
		"days":     []string{},
		"tags":     []string{},
		"owner":    "",
		"keywords": []string{},
		"contacts": []map[string]any{},
	}
	if diff := cmp.Diff(want, s.ZeroValues()); diff != "" {
		t.Fatalf("zero values mismatch (-want +got):\n%s", diff)
	}
	if err := Check(s, s.ZeroValues()); err != nil {
		t.Fatalf("zero values must satisfy check: %v", err)
	}
}
