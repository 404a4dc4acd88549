package pongo_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formschema/pkg/render/template/pongo"
	"github.com/goliatone/go-formschema/pkg/testsupport"
)

//go:embed testdata/templates/*.tmpl
var embeddedTemplates embed.FS

func TestEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})
	assertGolden(t, "hello.golden", result, written)
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-global", nil, w)
	})
	assertGolden(t, "use-global.golden", result, written)
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter registration to fail")
	}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"}, w)
	})
	assertGolden(t, "use-filter.golden", result, written)
}

func TestEngine_StructDataUsesJSONNamesAndEscapes(t *testing.T) {
	type control struct {
		Label    string `json:"label"`
		Required bool   `json:"required,omitempty"`
	}
	data := struct {
		Controls []control `json:"controls"`
	}{
		Controls: []control{{Label: "Name", Required: true}, {Label: "<b>Bio</b>"}},
	}

	engine := newEngine(t)
	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.Render("controls", data, w)
	})
	assertGolden(t, "controls.golden", result, written)
}

func TestEngine_RenderString(t *testing.T) {
	engine := newEngine(t)
	got, err := engine.Render("{{ a }}-{{ b }}", map[string]any{"a": "1", "b": "two"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "1-two" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := pongo.New(); err == nil {
		t.Fatalf("expected error without template source")
	}
}

func assertGolden(t *testing.T, name, result, written string) {
	t.Helper()
	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", name))
	if result != want {
		t.Fatalf("render mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func newEngine(t *testing.T) *pongo.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	engine, err := pongo.New(pongo.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
