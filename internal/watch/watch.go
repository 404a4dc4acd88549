// Package watch reloads form documents when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 150 * time.Millisecond

// ReloadFunc is called after a burst of changes settles.
type ReloadFunc func(ctx context.Context) error

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long to wait for further events before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger reload outcomes are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher observes a fixed set of files. Parent directories are watched so
// editors that replace files by rename are still noticed.
type Watcher struct {
	files    map[string]struct{}
	reload   ReloadFunc
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	reloads int
}

// New builds a watcher for paths. Empty paths are ignored.
func New(paths []string, reload ReloadFunc, opts ...Option) (*Watcher, error) {
	if reload == nil {
		return nil, errors.New("watch: reload func is required")
	}
	w := &Watcher{
		files:    make(map[string]struct{}),
		reload:   reload,
		debounce: defaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
	}
	if len(w.files) == 0 {
		return nil, errors.New("watch: no files to watch")
	}
	return w, nil
}

// Reloads reports how many reloads have run.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Run blocks until ctx is done, reloading after relevant changes.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer func() {
		_ = fw.Close()
	}()

	dirs := make(map[string]struct{})
	for file := range w.files {
		dirs[filepath.Dir(file)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			w.runReload(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Debug("watch: fsnotify error", slog.String("err", err.Error()))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}

func (w *Watcher) runReload(ctx context.Context) {
	err := w.reload(ctx)
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	if err != nil {
		w.logger.Warn("watch: reload failed, keeping previous definition", slog.String("err", err.Error()))
		return
	}
	w.logger.Info("watch: definition reloaded")
}
