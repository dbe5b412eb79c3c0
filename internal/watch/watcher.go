// Package watch reloads a serialized document into the editor when the
// backing file changes on disk.
package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/blockpress/blockpress/internal/engine/history"
)

// DefaultDebounce coalesces the event bursts editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// ErrAlreadyStarted indicates Start was called twice.
var ErrAlreadyStarted = errors.New("watcher already started")

// Importer consumes a serialized document. *editor.Engine satisfies it.
type Importer interface {
	Import(data []byte) error
}

// Watcher reloads one document file into an Importer on change. Writes are
// debounced; the reload reads whatever content is on disk when the quiet
// period ends.
type Watcher struct {
	target   Importer
	path     string
	debounce time.Duration
	timer    history.Timer
	logger   zerolog.Logger

	mu      sync.Mutex
	fw      *fsnotify.Watcher
	done    chan struct{}
	started bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// New creates a watcher for the document file at path.
func New(target Importer, path string, opts ...Option) *Watcher {
	w := &Watcher{
		target:   target,
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		timer:    history.NewTimer(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The parent directory is watched rather than the
// file itself so atomic save-by-rename keeps working.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	w.fw = fw
	w.done = make(chan struct{})
	w.started = true

	go w.loop(fw, w.done)

	w.logger.Debug().Str("path", w.path).Msg("watching document file")
	return nil
}

// Close stops watching and drops any pending reload.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return nil
	}
	w.started = false
	w.timer.Cancel()
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) loop(fw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.timer.Schedule(w.debounce, w.reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}

// reload reads the file and imports it. A half-written or invalid file
// logs and waits for the next change; the in-memory document stays intact.
func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn().Str("path", w.path).Err(err).Msg("reload read failed")
		return
	}
	if err := w.target.Import(data); err != nil {
		w.logger.Warn().Str("path", w.path).Err(err).Msg("reload import failed")
		return
	}
	w.logger.Info().Str("path", w.path).Msg("document reloaded from disk")
}
