package editor

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/blockpress/blockpress/internal/config"
	"github.com/blockpress/blockpress/internal/engine/blocks"
	"github.com/blockpress/blockpress/internal/engine/document"
	"github.com/blockpress/blockpress/internal/engine/history"
	"github.com/blockpress/blockpress/internal/engine/kind"
	"github.com/blockpress/blockpress/internal/event"
	"github.com/blockpress/blockpress/internal/paste"
	"github.com/blockpress/blockpress/internal/plugin"
)

// changeEvents are the mutation events that schedule a history capture.
var changeEvents = []string{
	event.BlockInserted,
	event.BlockDeleted,
	event.BlocksCleared,
	event.BlockConverted,
	event.BlockMoved,
	event.BlocksSwapped,
	event.BlocksRendered,
}

// Engine is the assembled block editor.
type Engine struct {
	cfg    config.Config
	logger zerolog.Logger

	bus        *event.Bus
	kinds      *kind.Registry
	blocks     *blocks.Manager
	history    *history.History
	patterns   *paste.Registry
	classifier *paste.Classifier
	loader     *plugin.Loader

	ready  atomic.Bool
	closed atomic.Bool
	subs   []event.Subscription
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	logger  zerolog.Logger
	timer   history.Timer
	fetcher *paste.TitleFetcher
}

// WithLogger sets the engine logger, shared by all components.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// WithHistoryTimer replaces the wall-clock debounce timer.
func WithHistoryTimer(t history.Timer) Option {
	return func(o *engineOptions) {
		o.timer = t
	}
}

// WithTitleFetcher replaces the URL title fetcher. Ignored when the
// configuration disables title fetching.
func WithTitleFetcher(f *paste.TitleFetcher) Option {
	return func(o *engineOptions) {
		o.fetcher = f
	}
}

// New assembles an engine from the configuration. The returned engine is
// not ready until Start is called; the bus is usable immediately so hosts
// can subscribe before the first events fire.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := engineOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	bus := event.NewBus(event.WithLogger(o.logger))
	kinds := kind.NewRegistry(cfg.Document.Kinds...)
	mgr := blocks.NewManager(kinds, bus,
		blocks.WithLogger(o.logger),
		blocks.WithFormatVersion(cfg.Document.FormatVersion),
	)

	patterns := paste.NewRegistry()
	var fetcher *paste.TitleFetcher
	if cfg.Paste.FetchTitles {
		fetcher = o.fetcher
		if fetcher == nil {
			fetcher = paste.NewTitleFetcher(paste.WithFetcherLogger(o.logger))
		}
	}
	for _, p := range paste.Builtins(fetcher) {
		if err := patterns.Register(p); err != nil {
			return nil, fmt.Errorf("registering built-in pattern: %w", err)
		}
	}

	var loader *plugin.Loader
	if len(cfg.Paste.PatternFiles) > 0 {
		loader = plugin.NewLoader(plugin.WithLogger(o.logger))
		for _, path := range cfg.Paste.PatternFiles {
			p, err := loader.LoadFile(path)
			if err != nil {
				loader.Close()
				return nil, err
			}
			if err := patterns.Register(p); err != nil {
				loader.Close()
				return nil, fmt.Errorf("registering pattern from %s: %w", path, err)
			}
		}
	}

	classifier := paste.NewClassifier(patterns, kinds,
		paste.WithProduceTimeout(cfg.Paste.ProduceTimeout()),
		paste.WithLogger(o.logger),
	)

	histOpts := []history.Option{
		history.WithMaxEntries(cfg.History.MaxEntries),
		history.WithDebounce(cfg.History.Debounce()),
		history.WithLogger(o.logger),
	}
	if o.timer != nil {
		histOpts = append(histOpts, history.WithTimer(o.timer))
	}
	hist := history.New(mgr.Snapshot, mgr.Render, bus, histOpts...)

	return &Engine{
		cfg:        cfg,
		logger:     o.logger,
		bus:        bus,
		kinds:      kinds,
		blocks:     mgr,
		history:    hist,
		patterns:   patterns,
		classifier: classifier,
		loader:     loader,
	}, nil
}

// Start wires history capture to mutation events, records the initial
// state, and opens the engine for mutations. Start is idempotent.
func (e *Engine) Start() error {
	if e.closed.Load() {
		return ErrClosed
	}
	if e.ready.Load() {
		return nil
	}

	for _, name := range changeEvents {
		sub, err := e.bus.On(name, func(event.Event) error {
			e.history.RecordChange()
			return nil
		})
		if err != nil {
			return err
		}
		e.subs = append(e.subs, sub)
	}

	// The empty starting document anchors the undo stack.
	e.history.Capture()

	e.ready.Store(true)
	e.logger.Debug().Msg("editor started")
	return nil
}

// Close stops the engine. Further mutations fail with ErrClosed.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.ready.Store(false)

	for _, sub := range e.subs {
		_ = e.bus.Off(sub)
	}
	e.subs = nil

	e.history.Close()
	if e.loader != nil {
		e.loader.Close()
	}
	e.logger.Debug().Msg("editor closed")
}

// Bus exposes the event bus for host subscriptions.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// Kinds exposes the block kind registry.
func (e *Engine) Kinds() *kind.Registry {
	return e.kinds
}

// gate rejects mutations while the engine is not accepting them. The
// rejection is emitted as an error event, like any other failed operation.
func (e *Engine) gate(op string) error {
	var err error
	switch {
	case e.closed.Load():
		err = ErrClosed
	case !e.ready.Load():
		err = ErrNotReady
	default:
		return nil
	}

	e.logger.Debug().Str("op", op).Err(err).Msg("operation rejected")
	e.bus.Emit(event.Error, event.ErrorPayload{Op: op, Err: err})
	return err
}

// Insert adds a block. See blocks.Manager.Insert.
func (e *Engine) Insert(kindName string, payload map[string]any, pos int, focus, replace bool) (document.Block, error) {
	if err := e.gate("insert"); err != nil {
		return document.Block{}, err
	}
	return e.blocks.Insert(kindName, payload, pos, focus, replace)
}

// InsertMany adds consecutive blocks. See blocks.Manager.InsertMany.
func (e *Engine) InsertMany(specs []blocks.Spec, start int) ([]document.Block, error) {
	if err := e.gate("insertMany"); err != nil {
		return nil, err
	}
	return e.blocks.InsertMany(specs, start)
}

// Delete removes the block at index i.
func (e *Engine) Delete(i int) (document.Block, error) {
	if err := e.gate("delete"); err != nil {
		return document.Block{}, err
	}
	return e.blocks.Delete(i)
}

// Clear removes every block.
func (e *Engine) Clear() (int, error) {
	if err := e.gate("clear"); err != nil {
		return 0, err
	}
	return e.blocks.Clear(), nil
}

// Move relocates the block at from to index to.
func (e *Engine) Move(from, to int) error {
	if err := e.gate("move"); err != nil {
		return err
	}
	return e.blocks.Move(from, to)
}

// Swap exchanges the blocks at a and b.
func (e *Engine) Swap(a, b int) error {
	if err := e.gate("swap"); err != nil {
		return err
	}
	return e.blocks.Swap(a, b)
}

// Convert replaces the block at i with a new block of newKind. A nil
// payload carries the old payload over.
func (e *Engine) Convert(i int, newKind string, payload map[string]any) (document.Block, error) {
	if err := e.gate("convert"); err != nil {
		return document.Block{}, err
	}
	return e.blocks.Convert(i, newKind, payload)
}

// Focus marks the block at i as current.
func (e *Engine) Focus(i int) error {
	if err := e.gate("focus"); err != nil {
		return err
	}
	return e.blocks.Focus(i)
}

// Render replaces the whole document.
func (e *Engine) Render(doc document.Document) error {
	if err := e.gate("render"); err != nil {
		return err
	}
	return e.blocks.Render(doc)
}

// Import replaces the document from its serialized form.
func (e *Engine) Import(data []byte) error {
	if err := e.gate("import"); err != nil {
		return err
	}
	return e.blocks.RenderSerialized(data)
}

// Export serializes the current document.
func (e *Engine) Export() ([]byte, error) {
	doc := e.blocks.Snapshot()
	return doc.Marshal()
}

// Document returns a deep copy of the current document.
func (e *Engine) Document() document.Document {
	return e.blocks.Snapshot()
}

// Len returns the number of blocks.
func (e *Engine) Len() int {
	return e.blocks.Len()
}

// BlockAt returns a copy of the block at index i.
func (e *Engine) BlockAt(i int) (document.Block, error) {
	return e.blocks.BlockAt(i)
}

// Paste inserts pasted text, classifying it against the registered
// patterns when auto-convert is enabled. Blank text is ignored and
// returns a zero block. The insert position resolves when the insert
// executes, not at match time, so concurrent mutations during enrichment
// cannot leave the block at a stale index.
func (e *Engine) Paste(ctx context.Context, text string, pos int) (document.Block, error) {
	if err := e.gate("paste"); err != nil {
		return document.Block{}, err
	}

	if strings.TrimSpace(text) == "" {
		return document.Block{}, nil
	}

	if !e.cfg.Paste.AutoConvert {
		return e.blocks.Insert(document.DefaultKind, map[string]any{"text": text}, pos, true, false)
	}

	out, err := e.classifier.Classify(ctx, text)
	if err != nil {
		e.bus.Emit(event.Error, event.ErrorPayload{Op: "paste", Err: err})
		return document.Block{}, err
	}
	if out == nil {
		return e.blocks.Insert(document.DefaultKind, map[string]any{"text": text}, pos, true, false)
	}

	blk, err := e.blocks.Insert(out.Kind, out.Payload, pos, true, false)
	if err != nil {
		return document.Block{}, err
	}
	e.bus.Emit(event.PasteSubstitution, event.PasteSubstitutionPayload{
		Pattern:  out.Pattern,
		Kind:     out.Kind,
		Block:    blk,
		Fallback: out.Fallback,
	})
	return blk, nil
}

// RegisterPattern adds a paste pattern at runtime.
func (e *Engine) RegisterPattern(p paste.Pattern) error {
	return e.patterns.Register(p)
}

// ReplacePattern swaps a paste pattern by name.
func (e *Engine) ReplacePattern(p paste.Pattern) error {
	return e.patterns.Replace(p)
}

// RemovePattern removes a paste pattern by name.
func (e *Engine) RemovePattern(name string) error {
	return e.patterns.Remove(name)
}

// Undo restores the previous captured state.
func (e *Engine) Undo() error {
	if err := e.gate("undo"); err != nil {
		return err
	}
	return e.history.Undo()
}

// Redo restores the next captured state.
func (e *Engine) Redo() error {
	if err := e.gate("redo"); err != nil {
		return err
	}
	return e.history.Redo()
}

// CanUndo reports whether an undo step exists.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo reports whether a redo step exists.
func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// FlushHistory captures any pending debounced change immediately.
func (e *Engine) FlushHistory() {
	e.history.Flush()
}

// ClearHistory drops all captured states.
func (e *Engine) ClearHistory() {
	e.history.Clear()
}
