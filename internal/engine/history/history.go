package history

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/blockpress/blockpress/internal/engine/document"
	"github.com/blockpress/blockpress/internal/event"
)

// Common errors for history operations.
var (
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrNothingToRedo    = errors.New("nothing to redo")
	ErrReplayInProgress = errors.New("replay already in progress")
)

// Defaults for the capture machinery.
const (
	DefaultMaxEntries = 50
	DefaultDebounce   = 300 * time.Millisecond
)

// SnapshotFunc produces a deep copy of the live document.
type SnapshotFunc func() document.Document

// RenderFunc applies a snapshot to the live document. It is the same entry
// point external loaders use.
type RenderFunc func(document.Document) error

// entry is an immutable captured snapshot.
type entry struct {
	doc   document.Document
	taken time.Time
}

// History manages debounced snapshot capture and undo/redo replay.
type History struct {
	mu      sync.Mutex
	entries []entry
	cursor  int

	replaying bool

	maxEntries int
	debounce   time.Duration
	timer      Timer

	snapshot SnapshotFunc
	render   RenderFunc
	bus      *event.Bus
	logger   zerolog.Logger
}

// Option is a functional option for configuring a History.
type Option func(*History)

// WithMaxEntries bounds the history list.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxEntries = n
		}
	}
}

// WithDebounce sets the capture coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(h *History) {
		if d > 0 {
			h.debounce = d
		}
	}
}

// WithTimer injects the debounce timer. Tests use a manual timer.
func WithTimer(t Timer) Option {
	return func(h *History) {
		if t != nil {
			h.timer = t
		}
	}
}

// WithLogger sets the history logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *History) {
		h.logger = logger
	}
}

// New creates a history manager. snapshot and render connect it to the
// block store; bus carries the undoRedo:* events.
func New(snapshot SnapshotFunc, render RenderFunc, bus *event.Bus, opts ...Option) *History {
	h := &History{
		cursor:     -1,
		maxEntries: DefaultMaxEntries,
		debounce:   DefaultDebounce,
		timer:      NewTimer(),
		snapshot:   snapshot,
		render:     render,
		bus:        bus,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RecordChange notes a qualifying document change and (re)starts the
// debounce timer. Changes observed during replay are ignored; that check is
// what keeps replay-induced mutations out of the stack.
func (h *History) RecordChange() {
	h.mu.Lock()
	if h.replaying {
		h.mu.Unlock()
		return
	}
	d := h.debounce
	h.mu.Unlock()

	h.timer.Schedule(d, h.Capture)
}

// Capture takes a snapshot immediately, bypassing the debounce window.
// A snapshot deep-equal to the entry at the cursor is discarded. A capture
// that races a just-finished replay is harmless for the same reason: the
// replayed state equals the entry at the cursor.
func (h *History) Capture() {
	h.mu.Lock()
	if h.replaying {
		h.mu.Unlock()
		return
	}

	doc := h.snapshot()
	if h.cursor >= 0 && doc.Equal(h.entries[h.cursor].doc) {
		h.mu.Unlock()
		return
	}

	h.entries = append(h.entries[:h.cursor+1], entry{doc: doc, taken: time.Now()})
	h.cursor++

	if excess := len(h.entries) - h.maxEntries; excess > 0 {
		kept := make([]entry, len(h.entries)-excess)
		copy(kept, h.entries[excess:])
		h.entries = kept
		h.cursor -= excess
		if h.cursor < 0 {
			h.cursor = 0
		}
	}

	state := h.stateLocked()
	h.mu.Unlock()

	h.logger.Debug().Int("length", state.Length).Int("cursor", state.Cursor).Msg("snapshot captured")
	h.bus.Emit(event.HistoryStateChanged, state)
}

// Flush cancels any pending debounced capture and captures immediately.
func (h *History) Flush() {
	h.timer.Cancel()
	h.Capture()
}

// Undo replays the snapshot before the cursor. On replay failure the cursor
// is restored and the document is left to the renderer's failure contract.
func (h *History) Undo() error {
	return h.replay(-1, event.HistoryUndo, ErrNothingToUndo)
}

// Redo replays the snapshot after the cursor.
func (h *History) Redo() error {
	return h.replay(1, event.HistoryRedo, ErrNothingToRedo)
}

func (h *History) replay(step int, eventName string, emptyErr error) error {
	h.mu.Lock()
	if h.replaying {
		h.mu.Unlock()
		return ErrReplayInProgress
	}
	next := h.cursor + step
	if next < 0 || next >= len(h.entries) || h.cursor < 0 {
		h.mu.Unlock()
		return emptyErr
	}
	h.replaying = true
	prev := h.cursor
	h.cursor = next
	target := h.entries[next].doc.Clone()
	h.mu.Unlock()

	// A capture scheduled before the replay must not fire after it with the
	// pre-replay state.
	h.timer.Cancel()

	err := h.render(target)

	h.mu.Lock()
	h.replaying = false
	if err != nil {
		h.cursor = prev
		h.mu.Unlock()
		return fmt.Errorf("replaying snapshot %d: %w", next, err)
	}
	state := h.stateLocked()
	h.mu.Unlock()

	h.bus.Emit(eventName, state)
	return nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor >= 0 && h.cursor < len(h.entries)-1
}

// Len returns the number of captured entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Cursor returns the current position, or -1 when history is empty.
func (h *History) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

// IsReplaying returns true while a replay is applying a snapshot.
func (h *History) IsReplaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replaying
}

// EntryAt returns a copy of the snapshot at index i.
func (h *History) EntryAt(i int) (document.Document, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if i < 0 || i >= len(h.entries) {
		return document.Document{}, false
	}
	return h.entries[i].doc.Clone(), true
}

// Clear drops all entries and any pending capture.
func (h *History) Clear() {
	h.timer.Cancel()

	h.mu.Lock()
	h.entries = nil
	h.cursor = -1
	state := h.stateLocked()
	h.mu.Unlock()

	h.bus.Emit(event.HistoryCleared, state)
}

// Close cancels the debounce timer. The history is unusable afterwards only
// in the sense that no further captures are scheduled.
func (h *History) Close() {
	h.timer.Cancel()
}

func (h *History) stateLocked() event.HistoryStatePayload {
	return event.HistoryStatePayload{
		Length:  len(h.entries),
		Cursor:  h.cursor,
		CanUndo: h.cursor > 0,
		CanRedo: h.cursor >= 0 && h.cursor < len(h.entries)-1,
	}
}
