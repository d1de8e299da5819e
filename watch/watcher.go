// Package watch keeps the index in sync with a directory of documents.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/docchat/core"
)

const DefaultDebounce = 500 * time.Millisecond

// DefaultExtensions are the file types ingested when none are configured.
var DefaultExtensions = []string{".pdf", ".txt", ".md", ".html", ".htm"}

var ErrIngesterRequired = errors.New("watch: ingester is required")

// Ingester indexes and removes file sources.
type Ingester interface {
	Ingest(ctx context.Context, source core.Source) (*core.IngestResult, error)
	Remove(ctx context.Context, source core.Source) (int, error)
}

type operation int

const (
	opIngest operation = iota
	opRemove
)

type pendingEvent struct {
	op       operation
	deadline time.Time
}

// Watcher ingests files as they appear or change in a directory and
// removes their chunks when they are deleted.
type Watcher struct {
	ingester    Ingester
	extensions  []string
	debounce    time.Duration
	initialScan bool
	logger      *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher) error

// WithExtensions sets the file extensions to watch, e.g. ".pdf".
func WithExtensions(extensions ...string) Option {
	return func(w *Watcher) error {
		if len(extensions) == 0 {
			extensions = DefaultExtensions
		}
		w.extensions = make([]string, len(extensions))
		for i, ext := range extensions {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			w.extensions[i] = strings.ToLower(ext)
		}
		return nil
	}
}

// WithDebounce sets how long a path must be quiet before it is handled.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) error {
		if d <= 0 {
			d = DefaultDebounce
		}
		w.debounce = d
		return nil
	}
}

// WithInitialScan ingests matching files already in the directory when
// Run starts.
func WithInitialScan(enabled bool) Option {
	return func(w *Watcher) error {
		w.initialScan = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger.With("component", "watch")
		return nil
	}
}

func New(ingester Ingester, opts ...Option) (*Watcher, error) {
	if ingester == nil {
		return nil, ErrIngesterRequired
	}
	w := &Watcher{
		ingester:   ingester,
		extensions: DefaultExtensions,
		debounce:   DefaultDebounce,
		logger:     slog.Default().With("component", "watch"),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Run watches dir until ctx is done. Subdirectories are not watched.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return err
	}
	w.logger.Info("watching directory", "dir", dir, "extensions", w.extensions)

	if w.initialScan {
		if err := w.scan(ctx, dir); err != nil {
			return err
		}
	}

	pending := make(map[string]pendingEvent)
	ticker := time.NewTicker(max(w.debounce/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.watched(event.Name) {
				continue
			}
			var op operation
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				op = opIngest
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				op = opRemove
			default:
				continue
			}
			pending[event.Name] = pendingEvent{op: op, deadline: time.Now().Add(w.debounce)}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case now := <-ticker.C:
			w.flush(ctx, pending, now)
		}
	}
}

func (w *Watcher) scan(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() || !w.watched(path) {
			continue
		}
		w.handle(ctx, path, opIngest)
	}
	return nil
}

// flush handles every pending path whose deadline has passed, in path order.
func (w *Watcher) flush(ctx context.Context, pending map[string]pendingEvent, now time.Time) {
	var ready []string
	for path, event := range pending {
		if !now.Before(event.deadline) {
			ready = append(ready, path)
		}
	}
	slices.Sort(ready)
	for _, path := range ready {
		op := pending[path].op
		delete(pending, path)
		w.handle(ctx, path, op)
	}
}

func (w *Watcher) handle(ctx context.Context, path string, op operation) {
	source := sourceFor(path)

	if op == opIngest {
		// A create followed by a quick delete leaves nothing to read
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			op = opRemove
		}
	}

	switch op {
	case opIngest:
		result, err := w.ingester.Ingest(ctx, source)
		if err != nil {
			w.logger.Error("failed to ingest file", "path", path, "err", err)
			return
		}
		w.logger.Info("ingested file", "path", path, "chunks", result.Chunks, "replaced", result.Replaced)
	case opRemove:
		removed, err := w.ingester.Remove(ctx, source)
		if err != nil {
			w.logger.Error("failed to remove file", "path", path, "err", err)
			return
		}
		w.logger.Info("removed file", "path", path, "chunks", removed)
	}
}

func (w *Watcher) watched(path string) bool {
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(path)))
}

// sourceFor names a file by its base name so chunk provenance stays
// readable and the document ID survives moving the watched directory.
func sourceFor(path string) core.Source {
	return core.Source{
		Type:   core.SourceTypeUpload,
		Source: path,
		Name:   filepath.Base(path),
	}
}
