// Package options loads the selectable entries of async fields from a remote
// endpoint. The endpoint answers with a JSON body carrying a top-level Items
// array; each item exposes an "id" (the option value) and a property named
// after the field id (the option label).
package options

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/values"
)

// ItemsKey is the payload property holding the option items.
const ItemsKey = "Items"

var (
	// ErrNoURL is returned when an async field has no endpoint configured.
	ErrNoURL = errors.New("options: field has no url")
	// ErrNoClient is returned when the source was built without an HTTP client.
	ErrNoClient = errors.New("options: http client not configured")
)

// Source fetches and caches option lists. It is safe for concurrent use;
// simultaneous loads of the same field share a single request.
type Source struct {
	client  *http.Client
	cache   Cache
	base    *url.URL
	timeout time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithHTTPClient sets the client used for fetches. Passing nil disables
// remote fetches.
func WithHTTPClient(client *http.Client) SourceOption {
	return func(s *Source) {
		s.client = client
	}
}

// WithCache replaces the default in-memory cache.
func WithCache(cache Cache) SourceOption {
	return func(s *Source) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithBaseURL resolves relative field URLs such as "/api/demo/tags".
func WithBaseURL(base string) SourceOption {
	return func(s *Source) {
		if parsed, err := url.Parse(base); err == nil && base != "" {
			s.base = parsed
		}
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(timeout time.Duration) SourceOption {
	return func(s *Source) {
		s.timeout = timeout
	}
}

// WithLogger sets the logger failures are reported to.
func WithLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a Source backed by http.DefaultClient and a MemoryCache unless
// overridden.
func New(opts ...SourceOption) *Source {
	s := &Source{
		client:  http.DefaultClient,
		cache:   NewMemoryCache(0),
		timeout: 10 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load returns the cached options for field, fetching them on first use.
// Failures are logged at debug level and produce an empty list.
func (s *Source) Load(ctx context.Context, field schema.Field) []schema.Option {
	opts, err := s.Fetch(ctx, field)
	if err != nil {
		s.logger.DebugContext(ctx, "option fetch failed", "field", field.ID, "url", field.URL, "error", err)
		return nil
	}
	return opts
}

// Fetch is Load with the error surfaced. Only successful results are cached.
// Concurrent callers share one request; a caller whose ctx ends stops
// waiting without failing the others.
func (s *Source) Fetch(ctx context.Context, field schema.Field) ([]schema.Option, error) {
	target, err := s.resolve(field)
	if err != nil {
		return nil, err
	}
	key := cacheKey(field.ID, target)

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.DebugContext(ctx, "option cache read failed", "field", field.ID, "error", err)
	} else if ok {
		return cached, nil
	}

	// The shared request outlives any single caller; it is bounded by the
	// source timeout instead.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		opts, err := s.request(shared, field.ID, target)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(shared, key, opts); err != nil {
			s.logger.DebugContext(shared, "option cache write failed", "field", field.ID, "error", err)
		}
		return opts, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("options: fetch %q: %w", field.ID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneOptions(res.Val.([]schema.Option)), nil
	}
}

// Invalidate drops the cached options for field so the next Load refetches.
func (s *Source) Invalidate(ctx context.Context, field schema.Field) error {
	target, err := s.resolve(field)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey(field.ID, target))
}

// Mount loads options asynchronously and hands them to apply. apply runs at
// most once and never after the returned cancel func has returned or ctx is
// done. The cancel func waits for an apply already in progress, so apply must
// not call it.
func (s *Source) Mount(ctx context.Context, field schema.Field, apply func([]schema.Option)) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	var (
		mu      sync.Mutex
		stopped bool
	)
	go func() {
		opts := s.Load(ctx, field)
		mu.Lock()
		defer mu.Unlock()
		if stopped || ctx.Err() != nil || apply == nil {
			return
		}
		apply(opts)
	}()
	return func() {
		mu.Lock()
		stopped = true
		mu.Unlock()
		cancel()
	}
}

func (s *Source) resolve(field schema.Field) (string, error) {
	raw := strings.TrimSpace(field.URL)
	if raw == "" {
		return "", fmt.Errorf("%w: %q", ErrNoURL, field.ID)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("options: parse url for %q: %w", field.ID, err)
	}
	if !parsed.IsAbs() && s.base != nil {
		parsed = s.base.ResolveReference(parsed)
	}
	return parsed.String(), nil
}

func (s *Source) request(ctx context.Context, fieldID, target string) ([]schema.Option, error) {
	if s.client == nil {
		return nil, ErrNoClient
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("options: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("options: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("options: unexpected status %d from %s", resp.StatusCode, target)
	}
	return Decode(resp.Body, fieldID)
}

// Decode reads an Items payload and maps each item to an option labelled by
// item[fieldID] with value item.id. Items without an id are skipped; items
// without a label fall back to the id.
func Decode(r io.Reader, fieldID string) ([]schema.Option, error) {
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("options: decode: %w", err)
	}
	raw, ok := payload[ItemsKey]
	if !ok {
		return nil, fmt.Errorf("options: payload has no %s", ItemsKey)
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("options: decode %s: %w", ItemsKey, err)
	}

	opts := make([]schema.Option, 0, len(items))
	for _, item := range items {
		value := values.String(item["id"])
		if value == "" {
			continue
		}
		label := values.String(item[fieldID])
		if label == "" {
			label = value
		}
		opts = append(opts, schema.Option{Label: label, Value: value})
	}
	return opts, nil
}

func cacheKey(fieldID, target string) string {
	return fieldID + " " + target
}
