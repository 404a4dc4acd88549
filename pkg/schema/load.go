package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"
)

// Source identifies where a document lives so the same loader can read files,
// fs.FS entries, or HTTP URLs.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

type source struct {
	kind     SourceKind
	location string
}

func (s source) Kind() SourceKind { return s.kind }
func (s source) Location() string { return s.location }

// SourceFromFile points at a path on disk.
func SourceFromFile(path string) Source { return source{kind: SourceKindFile, location: path} }

// SourceFromFS points at a name inside the loader's fs.FS.
func SourceFromFS(name string) Source { return source{kind: SourceKindFS, location: name} }

// SourceFromURL points at an HTTP(S) document.
func SourceFromURL(raw string) Source { return source{kind: SourceKindURL, location: raw} }

// Loader reads raw documents from a Source.
type Loader struct {
	fs      fs.FS
	client  *http.Client
	timeout time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFS sets the filesystem used by SourceKindFS sources.
func WithFS(fsys fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithHTTPClient enables URL sources using client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		l.client = client
	}
}

// WithTimeout caps remote fetches.
func WithTimeout(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// NewLoader constructs a Loader. URL sources stay disabled until an HTTP
// client is supplied.
func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Read returns the raw bytes behind src.
func (l *Loader) Read(ctx context.Context, src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("schema loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch src.Kind() {
	case SourceKindFile:
		data, err := os.ReadFile(src.Location())
		if err != nil {
			return nil, fmt.Errorf("schema loader: read file: %w", err)
		}
		return data, nil
	case SourceKindFS:
		if l.fs == nil {
			return nil, errors.New("schema loader: fs source requires a filesystem")
		}
		data, err := fs.ReadFile(l.fs, src.Location())
		if err != nil {
			return nil, fmt.Errorf("schema loader: read fs: %w", err)
		}
		return data, nil
	case SourceKindURL:
		return l.readURL(ctx, src.Location())
	default:
		return nil, fmt.Errorf("schema loader: unsupported source kind %q", src.Kind())
	}
}

// Load reads and parses a schema document.
func (l *Loader) Load(ctx context.Context, src Source) (Schema, error) {
	data, err := l.Read(ctx, src)
	if err != nil {
		return nil, err
	}
	return Parse(data, src.Location())
}

func (l *Loader) readURL(ctx context.Context, location string) ([]byte, error) {
	if l.client == nil {
		return nil, errors.New("schema loader: http support disabled")
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("schema loader: build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schema loader: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("schema loader: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("schema loader: read body: %w", err)
	}
	return data, nil
}
