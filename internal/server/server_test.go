package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formschema/internal/demo"
	"github.com/goliatone/go-formschema/pkg/options"
	"github.com/goliatone/go-formschema/pkg/orchestrator"
	"github.com/goliatone/go-formschema/pkg/renderers/jsonview"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

func newDemoServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	def, err := demo.Definition()
	if err != nil {
		t.Fatalf("demo definition: %v", err)
	}
	return newTestServer(t, def, opts...)
}

func newTestServer(t *testing.T, def orchestrator.Definition, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	var handler http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	base := []Option{
		WithItems(demo.Items),
		WithOptionSource(options.New(options.WithBaseURL(ts.URL), options.WithHTTPClient(ts.Client()))),
	}
	srv, err := New(def, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	handler = srv.Handler()
	return srv, ts
}

func noRedirect(ts *httptest.Server) *http.Client {
	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return client
}

func startSession(t *testing.T, srv *Server, ts *httptest.Server) *session {
	t.Helper()
	resp, err := noRedirect(ts).Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get /: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	id := strings.TrimPrefix(location, "/forms/")
	entry, ok := srv.sessions.get(id)
	if !ok {
		t.Fatalf("session %q not stored", id)
	}
	return entry
}

func post(t *testing.T, ts *httptest.Server, entry *session, form url.Values, accept string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/forms/"+entry.id, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := noRedirect(ts).Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func get(t *testing.T, ts *httptest.Server, path, accept string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := noRedirect(ts).Do(req)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestShow_RendersFormWithToken(t *testing.T) {
	srv, ts := newDemoServer(t)
	entry := startSession(t, srv, ts)

	resp, body := get(t, ts, "/forms/"+entry.id, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	for _, want := range []string{
		`action="/forms/` + entry.id + `"`,
		`name="_csrf" value="` + entry.token + `"`,
		`data-options-url="/forms/` + entry.id + `/options/countryCode"`,
		`href="/assets/formschema.css"`,
		`src="/assets/formschema.js"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page\n%s", want, body)
		}
	}
	if strings.Contains(body, "Org name is required") {
		t.Fatalf("untouched form must not show errors")
	}
}

func TestShow_UnknownSessionRedirects(t *testing.T) {
	_, ts := newDemoServer(t)
	resp, _ := get(t, ts, "/forms/missing", "")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	resp, _ = get(t, ts, "/forms/missing", "application/json")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for json clients, got %d", resp.StatusCode)
	}
}

func TestPost_RejectsBadToken(t *testing.T) {
	srv, ts := newDemoServer(t)
	entry := startSession(t, srv, ts)

	resp, _ := post(t, ts, entry, url.Values{"_action": {"submit"}, "_csrf": {"nope"}}, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestPost_UnknownActionLeavesValuesUntouched(t *testing.T) {
	srv, ts := newDemoServer(t)
	entry := startSession(t, srv, ts)
	before := entry.form.Values()

	resp, _ := post(t, ts, entry, url.Values{
		"_action": {"explode"},
		"_csrf":   {entry.token},
		"orgName": {"Acme"},
	}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if diff := cmp.Diff(before, entry.form.Values()); diff != "" {
		t.Fatalf("rejected action must not apply edits (-want +got):\n%s", diff)
	}
	if entry.form.Touched("orgName") {
		t.Fatalf("rejected action must not mark fields touched")
	}
}

func TestPost_InvalidSubmitShowsErrors(t *testing.T) {
	srv, ts := newDemoServer(t)
	entry := startSession(t, srv, ts)

	resp, body := post(t, ts, entry, url.Values{
		"_action": {"submit"},
		"_csrf":   {entry.token},
		"email":   {"not-an-email"},
	}, "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	for _, want := range []string{"Org name is required", "Invalid Email", `value="not-an-email"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page\n%s", want, body)
		}
	}
	if _, ok := srv.sessions.get(entry.id); !ok {
		t.Fatalf("invalid submit must keep the session")
	}
}

func TestPost_AddRowAsJSON(t *testing.T) {
	srv, ts := newDemoServer(t)
	entry := startSession(t, srv, ts)

	resp, body := post(t, ts, entry, url.Values{
		"_action":          {"add-row:contacts"},
		"_csrf":            {entry.token},
		"contacts[0].name": {"Ann"},
	}, "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	var payload jsonview.Payload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	ctrl, ok := payload.View.Control("contacts")
	if !ok {
		t.Fatalf("expected contacts control")
	}
	if len(ctrl.Rows) != 2 {
		t.Fatalf("expected two rows after add-row, got %d", len(ctrl.Rows))
	}
}

func TestPost_CancelEndsSession(t *testing.T) {
	srv, ts := newDemoServer(t)
	entry := startSession(t, srv, ts)

	resp, body := post(t, ts, entry, url.Values{"_action": {"cancel"}, "_csrf": {entry.token}}, "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Cancelled") {
		t.Fatalf("expected cancelled result page, got %d\n%s", resp.StatusCode, body)
	}
	if _, ok := srv.sessions.get(entry.id); ok {
		t.Fatalf("cancel must end the session")
	}
}

func TestPost_SubmitDeliversValues(t *testing.T) {
	def := orchestrator.Definition{
		Schema: schema.Schema{{Title: "Signup", Fields: []schema.Field{
			{ID: "name", Label: "Name", Type: schema.TypeText},
			{ID: "newsletter", Label: "Newsletter", Type: schema.TypeSwitch},
		}}},
		Rules:  validation.RulesetSpec{"name": {Required: true}},
		Values: values.Values{"name": "", "newsletter": false},
	}
	var (
		mu  sync.Mutex
		got values.Values
	)
	srv, ts := newTestServer(t, def, WithSubmit(func(_ context.Context, vals values.Values) error {
		mu.Lock()
		defer mu.Unlock()
		got = vals
		return nil
	}))
	entry := startSession(t, srv, ts)

	resp, body := post(t, ts, entry, url.Values{
		"_action":    {"submit"},
		"_csrf":      {entry.token},
		"name":       {"Ann"},
		"newsletter": {"false", "true"},
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d\n%s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Submitted") || !strings.Contains(body, "Ann") {
		t.Fatalf("expected result page with values\n%s", body)
	}

	mu.Lock()
	defer mu.Unlock()
	want := values.Values{"name": "Ann", "newsletter": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("submitted values mismatch (-want +got):\n%s", diff)
	}
}

func TestOptions_ProxiesAndFilters(t *testing.T) {
	srv, ts := newDemoServer(t)
	entry := startSession(t, srv, ts)

	resp, body := get(t, ts, "/forms/"+entry.id+"/options/countryCode?q=united", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	var payload optionsResponse
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []schema.Option{
		{Label: "United Kingdom", Value: "GB"},
		{Label: "United States", Value: "US"},
	}
	if diff := cmp.Diff(want, payload.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	resp, _ = get(t, ts, "/forms/"+entry.id+"/options/orgName", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for non-async field, got %d", resp.StatusCode)
	}
}

func TestStaticRoutes(t *testing.T) {
	_, ts := newDemoServer(t)

	resp, body := get(t, ts, "/healthz", "")
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("unexpected healthz %d %q", resp.StatusCode, body)
	}
	resp, body = get(t, ts, "/schema.json", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"fields"`) {
		t.Fatalf("unexpected schema document %d\n%s", resp.StatusCode, body)
	}
	resp, _ = get(t, ts, "/assets/formschema.css", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected stylesheet, got %d", resp.StatusCode)
	}
	resp, body = get(t, ts, "/api/demo/defaultCurrency", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"Items"`) {
		t.Fatalf("unexpected demo items %d\n%s", resp.StatusCode, body)
	}
	resp, body = get(t, ts, "/api/timezones?q=tokyo", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"Asia/Tokyo"`) {
		t.Fatalf("unexpected timezone items %d\n%s", resp.StatusCode, body)
	}
	resp, _ = get(t, ts, "/api/demo/unknown", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown demo field, got %d", resp.StatusCode)
	}
}

func TestSetDefinition_AppliesToNewSessions(t *testing.T) {
	srv, ts := newDemoServer(t)
	before := startSession(t, srv, ts)

	next := orchestrator.Definition{
		Schema: schema.Schema{{Fields: []schema.Field{{ID: "only", Type: schema.TypeText}}}},
		Values: values.Values{"only": ""},
	}
	if err := srv.SetDefinition(next); err != nil {
		t.Fatalf("set definition: %v", err)
	}
	after := startSession(t, srv, ts)

	if _, ok := before.form.Schema().Field("orgName"); !ok {
		t.Fatalf("running session must keep its schema")
	}
	if _, ok := after.form.Schema().Field("only"); !ok {
		t.Fatalf("new session must use the new schema")
	}

	bad := orchestrator.Definition{Schema: next.Schema, Values: values.Values{}}
	if err := srv.SetDefinition(bad); err == nil {
		t.Fatalf("expected invalid definition to be rejected")
	}
}

func TestSessionStore_Expires(t *testing.T) {
	store := newSessionStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	entry := store.create(nil)
	if _, ok := store.get(entry.id); !ok {
		t.Fatalf("expected fresh session")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := store.get(entry.id); ok {
		t.Fatalf("expected session to expire")
	}

	store.create(nil)
	now = now.Add(2 * time.Minute)
	store.create(nil)
	if got := store.len(); got != 1 {
		t.Fatalf("expected sweep to drop expired sessions, got %d", got)
	}
}

func TestSession_CheckToken(t *testing.T) {
	entry := &session{token: "abc"}
	if !entry.checkToken("abc") || entry.checkToken("abd") || entry.checkToken("") {
		t.Fatalf("unexpected token comparison")
	}
}
