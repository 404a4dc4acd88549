// Package server serves form sessions over HTTP: one in-memory form per
// browser session, posted back on every action and re-rendered until it is
// submitted or cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-formschema"
	"github.com/goliatone/go-formschema/components/timezones"
	"github.com/goliatone/go-formschema/pkg/form"
	"github.com/goliatone/go-formschema/pkg/options"
	"github.com/goliatone/go-formschema/pkg/orchestrator"
	"github.com/goliatone/go-formschema/pkg/render"
	"github.com/goliatone/go-formschema/pkg/renderers/html"
	"github.com/goliatone/go-formschema/pkg/renderers/jsonview"
)

const (
	csrfField    = "_csrf"
	assetsPrefix = "/assets/"
)

// ItemsFunc serves the rows behind /api/demo/{field}.
type ItemsFunc func(field string) ([]map[string]any, bool)

// Option configures a Server.
type Option func(*Server)

// WithOptionSource sets the source used for async options.
func WithOptionSource(source *options.Source) Option {
	return func(s *Server) {
		if source != nil {
			s.options = source
		}
	}
}

// WithTemplatesDir layers template overrides from disk.
func WithTemplatesDir(dir string) Option {
	return func(s *Server) {
		s.templatesDir = dir
	}
}

// WithSessionTTL expires idle sessions. Zero keeps them until submitted.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.sessionTTL = ttl
	}
}

// WithItems serves demo option rows.
func WithItems(items ItemsFunc) Option {
	return func(s *Server) {
		s.items = items
	}
}

// WithLocale localises labels and renderer chrome.
func WithLocale(locale string, translator render.Translator) Option {
	return func(s *Server) {
		s.locale = locale
		s.translator = translator
	}
}

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(s *Server) {
		s.title = title
	}
}

// WithSubmit sets the callback that receives submitted values.
func WithSubmit(fn form.SubmitFunc) Option {
	return func(s *Server) {
		s.submit = fn
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server owns the current definition and the live sessions built from it.
type Server struct {
	definition atomic.Pointer[orchestrator.Definition]

	orchestrator *orchestrator.Orchestrator
	html         *html.Renderer
	options      *options.Source
	sessions     *sessionStore
	items        ItemsFunc
	submit       form.SubmitFunc

	templatesDir string
	sessionTTL   time.Duration
	locale       string
	translator   render.Translator
	title        string
	logger       *slog.Logger
}

// New builds a server for def.
func New(def orchestrator.Definition, opts ...Option) (*Server, error) {
	s := &Server{
		sessionTTL: 30 * time.Minute,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.options == nil {
		s.options = options.New(options.WithLogger(s.logger))
	}
	if err := s.SetDefinition(def); err != nil {
		return nil, err
	}

	renderer, err := html.New(
		html.WithDocument(assetsPrefix+"formschema.css"),
		html.WithScript(assetsPrefix+"formschema.js"),
		html.WithTemplatesDir(s.templatesDir),
	)
	if err != nil {
		return nil, fmt.Errorf("server: html renderer: %w", err)
	}
	s.html = renderer

	registry := render.NewRegistry()
	if err := registry.Register(renderer); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if err := registry.Register(jsonview.New()); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	s.orchestrator = orchestrator.New(
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(html.Name),
		orchestrator.WithOptionSource(s.options),
		orchestrator.WithLogger(s.logger),
	)
	s.sessions = newSessionStore(s.sessionTTL)
	return s, nil
}

// SetDefinition swaps the definition used for new sessions. Running
// sessions keep the definition they started with.
func (s *Server) SetDefinition(def orchestrator.Definition) error {
	if err := def.Check(); err != nil {
		return fmt.Errorf("server: invalid definition: %w", err)
	}
	s.definition.Store(&def)
	return nil
}

// Definition returns the definition new sessions start from.
func (s *Server) Definition() orchestrator.Definition {
	return *s.definition.Load()
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleNew)
	mux.HandleFunc("GET /forms/{session}", s.handleShow)
	mux.HandleFunc("POST /forms/{session}", s.handlePost)
	mux.HandleFunc("GET /forms/{session}/options/{field}", s.handleOptions)
	mux.HandleFunc("GET /api/demo/{field}", s.handleItems)
	mux.Handle("GET "+timezones.MountPath(""), timezones.Handler())
	mux.HandleFunc("GET /schema.json", s.handleDocumentSchema)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET "+assetsPrefix, http.StripPrefix(assetsPrefix, http.FileServerFS(formschema.AssetsFS())))
	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// within grace.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()
	s.logger.Info("server: listening", slog.String("addr", addr))

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) startSession() (*session, error) {
	def := s.Definition()
	f, err := def.NewForm(
		form.WithOptionSource(s.options),
		form.WithSubmit(s.submit),
		form.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	return s.sessions.create(f), nil
}

func (s *Server) request(entry *session, renderer string) orchestrator.Request {
	opts := render.RenderOptions{
		Action:     "/forms/" + entry.id,
		Title:      s.title,
		Hidden:     []render.HiddenField{render.CSRFToken(csrfField, entry.token)},
		Locale:     s.locale,
		Translator: s.translator,
		OptionsURL: func(fieldID string) string {
			return "/forms/" + entry.id + "/options/" + fieldID
		},
	}
	return orchestrator.Request{Renderer: renderer, RenderOptions: opts}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("server: request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
