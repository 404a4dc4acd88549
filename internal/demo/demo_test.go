package demo

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-formschema/pkg/form"
	"github.com/goliatone/go-formschema/pkg/schema"
)

func TestDefinition_IsConsistent(t *testing.T) {
	def, err := Definition()
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	if err := def.Check(); err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, field := range def.Schema.Fields() {
		if field.Type != schema.TypeAsync || !strings.HasPrefix(field.URL, "/api/demo/") {
			continue
		}
		if _, ok := Items(field.ID); !ok {
			t.Fatalf("async field %q has no demo items", field.ID)
		}
	}
}

func TestDefinition_SubmitRequiresFields(t *testing.T) {
	def, err := Definition()
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	f, err := def.NewForm()
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	result, err := f.Submit(context.Background())
	if err == nil || result.Status != form.StatusInvalid {
		t.Fatalf("expected invalid submit, got %v %v", result.Status, err)
	}
	if result.Errors["orgName"] != "Org name is required" {
		t.Fatalf("unexpected orgName error %q", result.Errors["orgName"])
	}
	if _, ok := result.Errors["contacts[0].name"]; !ok {
		t.Fatalf("expected row error, got %v", result.Errors)
	}
}

func TestItemsAndTranslations(t *testing.T) {
	rows, ok := Items("countryCode")
	if !ok || len(rows) == 0 || rows[0]["id"] != "CA" {
		t.Fatalf("unexpected country items %v", rows)
	}
	if _, ok := Items("unknown"); ok {
		t.Fatalf("expected no items for unknown field")
	}
	tr, err := Translations()
	if err != nil {
		t.Fatalf("translations: %v", err)
	}
	if got, _ := tr.Translate("es", "actions.submit"); got != "Enviar" {
		t.Fatalf("unexpected translation %q", got)
	}
}
