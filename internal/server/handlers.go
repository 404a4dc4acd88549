package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formschema/pkg/form"
	"github.com/goliatone/go-formschema/pkg/render"
	"github.com/goliatone/go-formschema/pkg/renderers/html"
	"github.com/goliatone/go-formschema/pkg/renderers/jsonview"
	"github.com/goliatone/go-formschema/pkg/schema"
)

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	entry, err := s.startSession()
	if err != nil {
		s.logger.Error("server: start session", slog.String("err", err.Error()))
		http.Error(w, "could not start form", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/forms/"+entry.id, http.StatusSeeOther)
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.sessions.get(r.PathValue("session"))
	if !ok {
		s.sessionMissing(w, r)
		return
	}
	s.writeForm(w, r, entry, http.StatusOK)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.sessions.get(r.PathValue("session"))
	if !ok {
		s.sessionMissing(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	if !entry.checkToken(r.PostForm.Get(csrfField)) {
		http.Error(w, "invalid form token", http.StatusForbidden)
		return
	}

	action, err := form.ParseAction(r.PostForm.Get(form.ActionField))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f := entry.form
	if err := f.Apply(form.Decode(f.Schema(), r.PostForm)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := f.Handle(r.Context(), action)
	if result.Done() {
		s.sessions.delete(entry.id)
		s.writeResult(w, r, entry, result)
		return
	}

	status := http.StatusOK
	switch {
	case errors.Is(err, form.ErrValidation), result.Status == form.StatusFailed:
		status = http.StatusUnprocessableEntity
	case errors.Is(err, form.ErrSubmitInProgress):
		status = http.StatusConflict
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeForm(w, r, entry, status)
}

type optionsResponse struct {
	Options []schema.Option `json:"options"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.sessions.get(r.PathValue("session"))
	if !ok {
		http.Error(w, "form session not found", http.StatusNotFound)
		return
	}
	field, ok := entry.form.Schema().Field(r.PathValue("field"))
	if !ok || field.Type != schema.TypeAsync {
		http.Error(w, "unknown async field", http.StatusNotFound)
		return
	}

	opts, err := s.options.Fetch(r.Context(), field)
	if err != nil {
		s.logger.Warn("server: fetch options", slog.String("field", field.ID), slog.String("err", err.Error()))
		http.Error(w, "options unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, optionsResponse{Options: filterOptions(opts, r.URL.Query().Get("q"))})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	if s.items == nil {
		http.NotFound(w, r)
		return
	}
	items, ok := s.items(r.PathValue("field"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Items": items})
}

func (s *Server) handleDocumentSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, schema.DocumentSchema())
}

func (s *Server) sessionMissing(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		http.Error(w, "form session not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) writeForm(w http.ResponseWriter, r *http.Request, entry *session, status int) {
	name := html.Name
	contentType := "text/html; charset=utf-8"
	if wantsJSON(r) {
		name = jsonview.Name
		contentType = "application/json"
	}
	out, err := s.orchestrator.Render(r.Context(), entry.form, s.request(entry, name))
	if err != nil {
		s.logger.Error("server: render form", slog.String("session", entry.id), slog.String("err", err.Error()))
		http.Error(w, "could not render form", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

type resultResponse struct {
	Status form.Status    `json:"status"`
	Values map[string]any `json:"values,omitempty"`
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, entry *session, result form.Result) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, resultResponse{Status: result.Status, Values: result.Values})
		return
	}

	opts := s.request(entry, html.Name).RenderOptions
	view := html.ResultView{Back: "/"}
	if result.Status == form.StatusSubmitted {
		view.Title = render.Translate(opts, "result.submitted.title", "Submitted")
		view.Message = render.Translate(opts, "result.submitted.message", "Thanks, your answers were received.")
		view.Entries = html.ResultEntries(result.Values, fieldLabels(entry.form.Schema(), opts))
	} else {
		view.Title = render.Translate(opts, "result.cancelled.title", "Cancelled")
		view.Message = render.Translate(opts, "result.cancelled.message", "Nothing was submitted.")
	}

	out, err := s.html.RenderResult(r.Context(), view, opts)
	if err != nil {
		s.logger.Error("server: render result", slog.String("err", err.Error()))
		http.Error(w, "could not render result", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(out)
}

func fieldLabels(s schema.Schema, opts render.RenderOptions) map[string]string {
	if opts.Translator != nil {
		s = render.LocalizeSchema(s, opts)
	}
	fields := s.Fields()
	labels := make(map[string]string, len(fields))
	for _, field := range fields {
		labels[field.ID] = field.DisplayLabel()
	}
	return labels
}

func filterOptions(opts []schema.Option, query string) []schema.Option {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return opts
	}
	out := make([]schema.Option, 0, len(opts))
	for _, opt := range opts {
		if strings.Contains(strings.ToLower(opt.Label), query) {
			out = append(out, opt)
		}
	}
	return out
}

func wantsJSON(r *http.Request) bool {
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("format")), "json") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Debug("server: encode json", slog.String("err", err.Error()))
	}
}
