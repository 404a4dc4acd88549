package jsonview_test

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formschema/pkg/render"
	"github.com/goliatone/go-formschema/pkg/renderers/jsonview"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

func TestRender_EncodesViewAndMeta(t *testing.T) {
	s := schema.Schema{{Title: "Main", Fields: []schema.Field{
		{ID: "email", Label: "Email", Type: schema.TypeEmail},
		{ID: "tags", Label: "Tags", Type: schema.TypeAsync, URL: "/api/tags"},
	}}}
	view, err := render.Build(context.Background(), s, render.State{
		Values: values.Values{"email": "x", "tags": ""},
		Errors: validation.ErrorMap{"email": "Invalid Email", "form": "Server unavailable"},
	}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	r := jsonview.New(jsonview.WithIndent("  "))
	if r.Name() != "json" || r.ContentType() != "application/json" {
		t.Fatalf("unexpected identity %q %q", r.Name(), r.ContentType())
	}
	out, err := r.Render(context.Background(), view, render.RenderOptions{
		Action:     "/forms/1",
		Hidden:     []render.HiddenField{render.CSRFToken("_csrf", "tok")},
		Theme:      &theme.RendererConfig{Theme: "acme", CSSVars: map[string]string{"--brand": "#fff"}},
		OptionsURL: func(id string) string { return "/forms/1/options/" + id },
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var decoded struct {
		Form struct {
			Action  string            `json:"action"`
			Method  string            `json:"method"`
			Hidden  []map[string]any  `json:"hidden"`
			Options map[string]string `json:"optionsUrls"`
		} `json:"form"`
		Theme struct {
			Name    string            `json:"name"`
			CSSVars map[string]string `json:"cssVars"`
		} `json:"theme"`
		Labels map[string]string `json:"labels"`
		View   struct {
			Sections []struct {
				Title    string `json:"title"`
				Controls []struct {
					ID    string `json:"id"`
					Kind  string `json:"kind"`
					Error string `json:"error"`
				} `json:"controls"`
			} `json:"sections"`
			FormErrors []string `json:"formErrors"`
		} `json:"view"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}

	if decoded.Form.Action != "/forms/1" || decoded.Form.Method != "POST" {
		t.Fatalf("unexpected form meta %+v", decoded.Form)
	}
	if diff := cmp.Diff(map[string]string{"tags": "/forms/1/options/tags"}, decoded.Form.Options); diff != "" {
		t.Fatalf("options urls mismatch (-want +got):\n%s", diff)
	}
	if len(decoded.Form.Hidden) != 1 || decoded.Form.Hidden[0]["name"] != "_csrf" {
		t.Fatalf("unexpected hidden fields %+v", decoded.Form.Hidden)
	}
	if decoded.Theme.Name != "acme" || decoded.Theme.CSSVars["--brand"] != "#fff" {
		t.Fatalf("unexpected theme %+v", decoded.Theme)
	}
	if decoded.Labels["submit"] != "Submit" {
		t.Fatalf("expected default submit label, got %q", decoded.Labels["submit"])
	}
	if len(decoded.View.Sections) != 1 || len(decoded.View.Sections[0].Controls) != 2 {
		t.Fatalf("unexpected sections %+v", decoded.View.Sections)
	}
	email := decoded.View.Sections[0].Controls[0]
	if email.Kind != "input" || email.Error != "Invalid Email" {
		t.Fatalf("unexpected email control %+v", email)
	}
	if diff := cmp.Diff([]string{"Server unavailable"}, decoded.View.FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_WithoutThemeOmitsIt(t *testing.T) {
	payload := jsonview.Build(render.View{}, render.RenderOptions{Method: "PUT"})
	if payload.Theme != nil {
		t.Fatalf("expected nil theme, got %+v", payload.Theme)
	}
	if payload.Form.Method != "PUT" {
		t.Fatalf("expected PUT, got %q", payload.Form.Method)
	}
	if payload.Form.Options != nil {
		t.Fatalf("expected no option urls, got %+v", payload.Form.Options)
	}
}
