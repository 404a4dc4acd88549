package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formschema/pkg/renderers/jsonview"
	"github.com/goliatone/go-formschema/pkg/renderers/tui"
	"github.com/goliatone/go-formschema/pkg/values"
)

const openAPIFixture = "../../pkg/orchestrator/testdata/openapi.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRootCommand_Commands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"render", "serve", "prompt", "check", "jsonschema", "import-openapi"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Fatalf("expected command %q, got %v (%v)", name, sub, err)
		}
	}
	for _, flag := range []string{"schema", "rules", "values", "openapi", "operation", "log-level", "log-format"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Fatalf("expected persistent flag %q", flag)
		}
	}
}

func TestRender_DemoHTML(t *testing.T) {
	out, err := execute(t, "render", "--action", "/submit")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{`action="/submit"`, `name="orgName"`, `<legend>Address</legend>`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output\n%s", want, out)
		}
	}
}

func TestRender_JSONSubsetFromFiles(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", `
- title: Account
  fields:
    - {id: name, label: Name, type: text}
    - {id: email, label: Email, type: email}
`)
	valuesPath := writeFile(t, dir, "values.json", `{"name": "Ann", "email": ""}`)

	out, err := execute(t, "render", "--schema", schemaPath, "--values", valuesPath, "-r", "json", "--fields", "name")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var payload jsonview.Payload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode payload: %v\n%s", err, out)
	}
	if _, ok := payload.View.Control("email"); ok {
		t.Fatalf("expected email to be filtered out")
	}
	ctrl, ok := payload.View.Control("name")
	if !ok || ctrl.Value != "Ann" {
		t.Fatalf("unexpected name control %+v", ctrl)
	}
}

func TestRender_OpenAPIRequiresOperation(t *testing.T) {
	_, err := execute(t, "render", "--openapi", openAPIFixture)
	if ExitCode(err) != ExitCommandError {
		t.Fatalf("expected command error, got %v", err)
	}
}

func TestCheck_Demo(t *testing.T) {
	out, err := execute(t, "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "ok:") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCheck_ReportsProblems(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", `
- fields:
    - {id: country, type: async}
`)
	rulesPath := writeFile(t, dir, "rules.yaml", "ghost:\n  required: true\n")

	out, err := execute(t, "check", "--schema", schemaPath, "--rules", rulesPath)
	if ExitCode(err) != ExitFailure {
		t.Fatalf("expected exit code %d, got %v", ExitFailure, err)
	}
	for _, want := range []string{"country", "ghost"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output\n%s", want, out)
		}
	}
}

func TestJSONSchemaCommand(t *testing.T) {
	out, err := execute(t, "jsonschema")
	if err != nil {
		t.Fatalf("jsonschema: %v", err)
	}
	if !strings.Contains(out, `"Form schema"`) {
		t.Fatalf("expected schema title\n%s", out)
	}
}

func TestImportOpenAPI_ListsOperations(t *testing.T) {
	out, err := execute(t, "import-openapi", openAPIFixture)
	if err != nil {
		t.Fatalf("import-openapi: %v", err)
	}
	if !strings.Contains(out, "createSignup") || !strings.Contains(out, "/signups") {
		t.Fatalf("expected operation listing\n%s", out)
	}
}

func TestImportOpenAPI_WritesDocuments(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "signup")
	if _, err := execute(t, "import-openapi", openAPIFixture, "--operation", "createSignup", "--out-dir", dir); err != nil {
		t.Fatalf("import-openapi: %v", err)
	}
	for _, name := range []string{"schema.yaml", "rules.yaml", "values.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	out, err := execute(t, "check",
		"--schema", filepath.Join(dir, "schema.yaml"),
		"--rules", filepath.Join(dir, "rules.yaml"),
		"--values", filepath.Join(dir, "values.json"))
	if err != nil {
		t.Fatalf("imported documents should pass check: %v\n%s", err, out)
	}
}

type answerDriver struct {
	input   string
	confirm bool
}

func (d answerDriver) Input(context.Context, tui.InputConfig) (string, error)    { return d.input, nil }
func (d answerDriver) Password(context.Context, tui.InputConfig) (string, error) { return d.input, nil }
func (d answerDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error)  { return d.confirm, nil }
func (d answerDriver) Select(context.Context, tui.SelectConfig) (int, error)     { return 0, nil }
func (d answerDriver) MultiSelect(context.Context, tui.SelectConfig) ([]int, error) {
	return nil, nil
}
func (d answerDriver) TextArea(context.Context, tui.TextAreaConfig) (string, error) {
	return d.input, nil
}
func (d answerDriver) Info(context.Context, string) error { return nil }

func TestPrompt_EncodesSubmittedValues(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "schema.yaml", `
- fields:
    - {id: name, label: Name, type: text}
    - {id: newsletter, label: Newsletter, type: switch}
`)
	valuesPath := writeFile(t, dir, "values.json", `{"name": "", "newsletter": false}`)

	root := newRootCommand(&RootOptions{driver: answerDriver{input: "Ann", confirm: true}})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"prompt", "--schema", schemaPath, "--values", valuesPath, "--log-level", "error"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("prompt: %v", err)
	}
	var got values.Values
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	want := values.Values{"name": "Ann", "newsletter": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != ExitSuccess {
		t.Fatalf("nil error must map to success")
	}
	if ExitCode(NewExitError(ExitFailure, "x")) != ExitFailure {
		t.Fatalf("expected failure code")
	}
	if ExitCode(os.ErrNotExist) != ExitCommandError {
		t.Fatalf("plain errors must map to command errors")
	}
	wrapped := WrapExitError(ExitFailure, "outer", os.ErrNotExist)
	if wrapped.Error() != "outer: "+os.ErrNotExist.Error() {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}
