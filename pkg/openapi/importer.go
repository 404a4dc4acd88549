// Package openapi imports form definitions from OpenAPI 3 documents. The
// request body of one operation becomes a schema, a ruleset and an initial
// value snapshot that can be handed straight to form.New.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
	"github.com/goliatone/go-formschema/pkg/values"
)

var (
	// ErrOperationNotFound is returned when no operation matches the id.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody is returned for operations without a request body.
	ErrNoRequestBody = errors.New("openapi: operation has no request body")
	// ErrUnsupportedBody is returned when the body schema is not an object.
	ErrUnsupportedBody = errors.New("openapi: request body must be an object schema")
)

const (
	extensionKey             = "x-formschema"
	defaultTextareaThreshold = 256
	defaultMaxDepth          = 3
	mediaTypeJSON            = "application/json"
	mediaTypeFormURLEncoded  = "application/x-www-form-urlencoded"
	mediaTypeMultipartForm   = "multipart/form-data"
)

// Operation summarises one operation of a document.
type Operation struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Path    string `json:"path"`
	Summary string `json:"summary,omitempty"`
	HasBody bool   `json:"hasBody"`
}

// Result is an imported form definition.
type Result struct {
	Operation Operation
	Schema    schema.Schema
	Rules     validation.RulesetSpec
	Values    values.Values
}

// Option configures an Importer.
type Option func(*Importer)

// WithLabeler replaces DefaultLabeler.
func WithLabeler(labeler Labeler) Option {
	return func(i *Importer) {
		if labeler != nil {
			i.labeler = labeler
		}
	}
}

// WithExternalRefs allows $ref values pointing outside the document.
func WithExternalRefs(allow bool) Option {
	return func(i *Importer) {
		i.externalRefs = allow
	}
}

// WithTextareaThreshold sets the maxLength above which strings render as a
// textarea. Zero or less keeps the default.
func WithTextareaThreshold(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.textareaAt = n
		}
	}
}

// WithLogger injects the logger used for skipped properties.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// Importer converts operations into form definitions.
type Importer struct {
	labeler      Labeler
	externalRefs bool
	textareaAt   int
	maxDepth     int
	logger       *slog.Logger
}

// New constructs an Importer.
func New(options ...Option) *Importer {
	i := &Importer{
		labeler:    DefaultLabeler,
		textareaAt: defaultTextareaThreshold,
		maxDepth:   defaultMaxDepth,
		logger:     slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

func (i *Importer) load(ctx context.Context, data []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = i.externalRefs

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, nil
}

// Operations lists every operation ordered by path then method. Operations
// without an operationId are keyed "method:path".
func (i *Importer) Operations(ctx context.Context, data []byte) ([]Operation, error) {
	doc, err := i.load(ctx, data)
	if err != nil {
		return nil, err
	}
	var out []Operation
	walkOperations(doc, func(op Operation, _ *openapi3.Operation) bool {
		out = append(out, op)
		return true
	})
	return out, nil
}

// Import builds the form definition for operationID.
func (i *Importer) Import(ctx context.Context, data []byte, operationID string) (Result, error) {
	doc, err := i.load(ctx, data)
	if err != nil {
		return Result{}, err
	}

	var (
		found  Operation
		target *openapi3.Operation
	)
	walkOperations(doc, func(op Operation, raw *openapi3.Operation) bool {
		if op.ID == operationID {
			found, target = op, raw
			return false
		}
		return true
	})
	if target == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	body := requestSchema(target.RequestBody)
	if body == nil || body.Value == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrNoRequestBody, operationID)
	}
	if !isObject(body.Value) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedBody, operationID)
	}

	b := &builder{importer: i, rules: validation.RulesetSpec{}, values: values.Values{}}
	title := strings.TrimSpace(body.Value.Title)
	if title == "" {
		title = found.Summary
	}
	sections := b.object(title, "", body.Value, 0)

	result := Result{
		Operation: found,
		Schema:    sections,
		Rules:     b.rules,
		Values:    b.values,
	}
	if err := schema.Check(result.Schema, result.Values); err != nil {
		return Result{}, fmt.Errorf("openapi: imported schema: %w", err)
	}
	return result, nil
}

func walkOperations(doc *openapi3.T, fn func(Operation, *openapi3.Operation) bool) {
	if doc.Paths == nil {
		return
	}
	paths := doc.Paths.InMatchingOrder()
	sort.Strings(paths)
	for _, path := range paths {
		item := doc.Paths.Value(path)
		if item == nil {
			continue
		}
		ops := item.Operations()
		methods := make([]string, 0, len(ops))
		for method := range ops {
			methods = append(methods, method)
		}
		sort.Strings(methods)
		for _, method := range methods {
			raw := ops[method]
			if raw == nil {
				continue
			}
			id := raw.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			op := Operation{
				ID:      id,
				Method:  strings.ToUpper(method),
				Path:    path,
				Summary: raw.Summary,
				HasBody: requestSchema(raw.RequestBody) != nil,
			}
			if !fn(op, raw) {
				return
			}
		}
	}
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.SchemaRef {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{mediaTypeJSON, mediaTypeFormURLEncoded, mediaTypeMultipartForm} {
		if mt, ok := content[mediaType]; ok && mt != nil && mt.Schema != nil {
			return mt.Schema
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt != nil && mt.Schema != nil {
			return mt.Schema
		}
	}
	return nil
}

func isObject(s *openapi3.Schema) bool {
	if s.Type != nil && s.Type.Is(openapi3.TypeObject) {
		return true
	}
	return s.Type == nil && len(s.Properties) > 0
}

func hasType(s *openapi3.Schema, typ string) bool {
	return s.Type != nil && s.Type.Is(typ)
}
