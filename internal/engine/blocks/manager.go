package blocks

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/blockpress/blockpress/internal/engine/document"
	"github.com/blockpress/blockpress/internal/engine/kind"
	"github.com/blockpress/blockpress/internal/event"
)

// End is the position sentinel meaning "append after the last block".
const End = -1

// Spec describes a block to insert without a preassigned identity.
type Spec struct {
	Kind    string
	Payload map[string]any
}

// Manager owns the ordered block sequence and is the sole mutation surface.
// All methods are safe for concurrent use; events are emitted outside the
// manager's lock.
type Manager struct {
	mu            sync.Mutex
	blocks        []document.Block
	current       int
	createdAt     int64
	formatVersion string

	kinds  *kind.Registry
	bus    *event.Bus
	logger zerolog.Logger
}

// Option is a functional option for configuring a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithFormatVersion sets the format version stamped on snapshots.
func WithFormatVersion(v string) Option {
	return func(m *Manager) {
		if v != "" {
			m.formatVersion = v
		}
	}
}

// NewManager creates a manager over an empty document.
func NewManager(kinds *kind.Registry, bus *event.Bus, opts ...Option) *Manager {
	m := &Manager{
		current:       -1,
		createdAt:     time.Now().UnixMilli(),
		formatVersion: document.DefaultFormatVersion,
		kinds:         kinds,
		bus:           bus,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Read operations

// Len returns the number of blocks.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blocks)
}

// BlockAt returns a copy of the block at index i.
func (m *Manager) BlockAt(i int) (document.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.blocks) {
		return document.Block{}, fmt.Errorf("block at %d: %w", i, ErrOutOfRange)
	}
	return m.blocks[i].Clone(), nil
}

// BlockByID returns a copy of the block with the given identity.
func (m *Manager) BlockByID(id string) (document.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.blocks {
		if b.ID == id {
			return b.Clone(), nil
		}
	}
	return document.Block{}, fmt.Errorf("block %q: %w", id, ErrBlockNotFound)
}

// IndexOfID returns the position of the block with the given identity,
// or -1 if absent.
func (m *Manager) IndexOfID(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, b := range m.blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Blocks returns a deep copy of the block sequence.
func (m *Manager) Blocks() []document.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cloneBlocksLocked()
}

// Snapshot returns a deep copy of the full document.
func (m *Manager) Snapshot() document.Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	return document.Document{
		CreatedAt:     m.createdAt,
		FormatVersion: m.formatVersion,
		Blocks:        m.cloneBlocksLocked(),
	}
}

// CurrentIndex returns the caret block index, or -1 when unset.
func (m *Manager) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Focus moves the caret block index.
func (m *Manager) Focus(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.blocks) {
		return fmt.Errorf("focus %d: %w", i, ErrOutOfRange)
	}
	m.current = i
	return nil
}

// Mutations

// Insert creates a block of the given kind and splices it into the sequence.
// pos may be End to append. When replace is true the block previously at pos
// is removed first. When focus is true the caret moves to the new block.
func (m *Manager) Insert(kindName string, payload map[string]any, pos int, focus, replace bool) (document.Block, error) {
	m.mu.Lock()

	if err := m.validateKindLocked(kindName); err != nil {
		m.mu.Unlock()
		return document.Block{}, m.fail("insert", err, map[string]any{"kind": kindName, "position": pos})
	}
	if payload == nil {
		m.mu.Unlock()
		return document.Block{}, m.fail("insert", fmt.Errorf("kind %q: nil payload: %w", kindName, ErrInvalidPayload),
			map[string]any{"kind": kindName, "position": pos})
	}

	idx, err := m.resolveInsertPosLocked(pos, replace)
	if err != nil {
		m.mu.Unlock()
		return document.Block{}, m.fail("insert", err, map[string]any{"kind": kindName, "position": pos})
	}

	block := document.NewBlock(kindName, payload)

	var replaced document.Block
	if replace {
		replaced = m.blocks[idx]
		m.blocks[idx] = block
	} else {
		m.blocks = append(m.blocks, document.Block{})
		copy(m.blocks[idx+1:], m.blocks[idx:])
		m.blocks[idx] = block
	}
	if focus {
		m.current = idx
	}
	m.mu.Unlock()

	if replace {
		m.bus.Emit(event.BlockDeleted, event.BlockDeletedPayload{Block: replaced.Clone(), Index: idx})
	}
	m.bus.Emit(event.BlockInserted, event.BlockInsertedPayload{
		Block:    block.Clone(),
		Index:    idx,
		Focus:    focus,
		Replaced: replace,
	})
	return block.Clone(), nil
}

// InsertMany inserts each spec sequentially starting at start, positions
// incrementing. A failing element stops the run; blocks inserted before the
// failure stay in place and are returned alongside the error.
func (m *Manager) InsertMany(specs []Spec, start int) ([]document.Block, error) {
	inserted := make([]document.Block, 0, len(specs))

	for i, spec := range specs {
		pos := start
		if start != End {
			pos = start + i
		}
		b, err := m.Insert(spec.Kind, spec.Payload, pos, false, false)
		if err != nil {
			return inserted, fmt.Errorf("insert %d of %d: %w", i+1, len(specs), err)
		}
		inserted = append(inserted, b)
	}
	return inserted, nil
}

// Delete removes the block at index i.
func (m *Manager) Delete(i int) (document.Block, error) {
	m.mu.Lock()

	if i < 0 || i >= len(m.blocks) {
		m.mu.Unlock()
		return document.Block{}, m.fail("delete", fmt.Errorf("delete %d: %w", i, ErrOutOfRange),
			map[string]any{"index": i})
	}

	removed := m.blocks[i]
	m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
	if m.current >= len(m.blocks) {
		m.current = len(m.blocks) - 1
	}
	m.mu.Unlock()

	m.bus.Emit(event.BlockDeleted, event.BlockDeletedPayload{Block: removed.Clone(), Index: i})
	return removed, nil
}

// Clear removes every block and returns the number removed.
func (m *Manager) Clear() int {
	m.mu.Lock()
	count := len(m.blocks)
	m.blocks = nil
	m.current = -1
	m.mu.Unlock()

	m.bus.Emit(event.BlocksCleared, event.BlocksClearedPayload{Count: count})
	return count
}

// Move repositions the block at from to index to. Moving a block onto its
// own position is a benign no-op: no mutation, no event.
func (m *Manager) Move(from, to int) error {
	m.mu.Lock()

	if from == to {
		m.mu.Unlock()
		return nil
	}
	n := len(m.blocks)
	// Unlike swap, the destination may be n: "after the last block".
	if from < 0 || from >= n || to < 0 || to > n {
		m.mu.Unlock()
		return m.fail("move", fmt.Errorf("move %d to %d: %w", from, to, ErrOutOfRange),
			map[string]any{"from": from, "to": to})
	}

	dest := to
	if dest == n {
		dest = n - 1
	}
	if dest == from {
		m.mu.Unlock()
		return nil
	}

	moved := m.blocks[from]
	m.blocks = append(m.blocks[:from], m.blocks[from+1:]...)
	m.blocks = append(m.blocks, document.Block{})
	copy(m.blocks[dest+1:], m.blocks[dest:])
	m.blocks[dest] = moved
	if m.current == from {
		m.current = dest
	}
	m.mu.Unlock()

	m.bus.Emit(event.BlockMoved, event.BlockMovedPayload{Block: moved.Clone(), From: from, To: dest})
	return nil
}

// Swap exchanges the blocks at a and b. Swapping an index with itself is a
// benign no-op.
func (m *Manager) Swap(a, b int) error {
	m.mu.Lock()

	if a == b {
		m.mu.Unlock()
		return nil
	}
	if a < 0 || a >= len(m.blocks) || b < 0 || b >= len(m.blocks) {
		m.mu.Unlock()
		return m.fail("swap", fmt.Errorf("swap %d and %d: %w", a, b, ErrOutOfRange),
			map[string]any{"a": a, "b": b})
	}

	m.blocks[a], m.blocks[b] = m.blocks[b], m.blocks[a]
	switch m.current {
	case a:
		m.current = b
	case b:
		m.current = a
	}
	m.mu.Unlock()

	m.bus.Emit(event.BlocksSwapped, event.BlocksSwappedPayload{A: a, B: b})
	return nil
}

// Convert replaces the block at index i with a fresh block of newKind.
// When payload is nil the old block's payload is carried over. The old block
// is deleted and a new one inserted so renderer mount/unmount lifecycles
// stay correct; this means the converted block gets a new identity.
func (m *Manager) Convert(i int, newKind string, payload map[string]any) (document.Block, error) {
	m.mu.Lock()

	if i < 0 || i >= len(m.blocks) {
		m.mu.Unlock()
		return document.Block{}, m.fail("convert", fmt.Errorf("convert %d: %w", i, ErrOutOfRange),
			map[string]any{"index": i, "kind": newKind})
	}
	if err := m.validateKindLocked(newKind); err != nil {
		m.mu.Unlock()
		return document.Block{}, m.fail("convert", err, map[string]any{"index": i, "kind": newKind})
	}

	old := m.blocks[i]
	if payload == nil {
		payload = old.Clone().Payload
	}
	block := document.NewBlock(newKind, payload)
	m.blocks[i] = block
	m.mu.Unlock()

	m.bus.Emit(event.BlockDeleted, event.BlockDeletedPayload{Block: old.Clone(), Index: i})
	m.bus.Emit(event.BlockInserted, event.BlockInsertedPayload{Block: block.Clone(), Index: i})
	m.bus.Emit(event.BlockConverted, event.BlockConvertedPayload{
		Block:   block.Clone(),
		Index:   i,
		OldKind: old.Kind,
		NewKind: newKind,
	})
	return block.Clone(), nil
}

// Render replaces the entire block sequence with the given document.
// Used by history replay and external load operations. The operation is
// transactional: every block kind is validated before anything changes.
func (m *Manager) Render(doc document.Document) error {
	m.mu.Lock()

	for i, b := range doc.Blocks {
		if err := m.validateKindLocked(b.Kind); err != nil {
			m.mu.Unlock()
			return m.fail("render", fmt.Errorf("block %d: %w", i, err), map[string]any{"index": i, "kind": b.Kind})
		}
	}

	clone := doc.Clone()
	m.blocks = clone.Blocks
	if clone.CreatedAt != 0 {
		m.createdAt = clone.CreatedAt
	}
	if clone.FormatVersion != "" {
		m.formatVersion = clone.FormatVersion
	}
	if m.current >= len(m.blocks) {
		m.current = len(m.blocks) - 1
	}
	count := len(m.blocks)
	m.mu.Unlock()

	m.bus.Emit(event.BlocksRendered, event.BlocksRenderedPayload{Count: count})
	return nil
}

// RenderBlocks replaces the block sequence, keeping the document's
// creation time and format version.
func (m *Manager) RenderBlocks(blks []document.Block) error {
	return m.Render(document.Document{Blocks: blks})
}

// RenderSerialized parses serialized document markup and renders it.
func (m *Manager) RenderSerialized(data []byte) error {
	doc, err := document.Unmarshal(data)
	if err != nil {
		return m.fail("render", err, map[string]any{"bytes": len(data)})
	}
	return m.Render(doc)
}

// helpers

func (m *Manager) validateKindLocked(name string) error {
	if name == "" || !m.kinds.Has(name) {
		return fmt.Errorf("kind %q: %w", name, ErrUnknownKind)
	}
	return nil
}

// resolveInsertPosLocked maps a caller position to a concrete index.
// Plain inserts accept [0, len] plus the End sentinel; replacing requires an
// existing block, so End and len are out of range.
func (m *Manager) resolveInsertPosLocked(pos int, replace bool) (int, error) {
	n := len(m.blocks)
	if pos == End {
		if replace {
			return 0, fmt.Errorf("replace at end: %w", ErrOutOfRange)
		}
		return n, nil
	}
	if pos < 0 || pos > n || (replace && pos == n) {
		return 0, fmt.Errorf("position %d: %w", pos, ErrOutOfRange)
	}
	return pos, nil
}

func (m *Manager) cloneBlocksLocked() []document.Block {
	if m.blocks == nil {
		return nil
	}
	out := make([]document.Block, len(m.blocks))
	for i, b := range m.blocks {
		out[i] = b.Clone()
	}
	return out
}

// fail logs the violation, reports it on the error event and returns err
// unchanged so callers can test it with errors.Is.
func (m *Manager) fail(op string, err error, args map[string]any) error {
	m.logger.Debug().Str("op", op).Err(err).Msg("mutation rejected")
	m.bus.Emit(event.Error, event.ErrorPayload{Op: op, Err: err, Args: args})
	return err
}
