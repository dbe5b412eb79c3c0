package event

import "github.com/blockpress/blockpress/internal/engine/document"

// BlockInsertedPayload accompanies BlockInserted.
type BlockInsertedPayload struct {
	Block document.Block
	Index int

	// Focus asks the UI to move the caret into the new block.
	Focus bool

	// Replaced is set when the insert replaced the block previously at Index.
	Replaced bool
}

// BlockDeletedPayload accompanies BlockDeleted.
type BlockDeletedPayload struct {
	Block document.Block
	Index int
}

// BlocksClearedPayload accompanies BlocksCleared.
type BlocksClearedPayload struct {
	// Count is the number of blocks removed.
	Count int
}

// BlockConvertedPayload accompanies BlockConverted.
type BlockConvertedPayload struct {
	Block   document.Block
	Index   int
	OldKind string
	NewKind string
}

// BlockMovedPayload accompanies BlockMoved.
type BlockMovedPayload struct {
	Block document.Block
	From  int
	To    int
}

// BlocksSwappedPayload accompanies BlocksSwapped.
type BlocksSwappedPayload struct {
	A int
	B int
}

// BlocksRenderedPayload accompanies BlocksRendered.
type BlocksRenderedPayload struct {
	Count int
}

// PasteSubstitutionPayload accompanies PasteSubstitution.
type PasteSubstitutionPayload struct {
	Pattern string
	Kind    string
	Block   document.Block

	// Fallback is set when the winning pattern's kind was not registered and
	// a default-kind block carrying the matched text was inserted instead.
	Fallback bool
}

// HistoryStatePayload accompanies the undoRedo:* events.
type HistoryStatePayload struct {
	Length  int
	Cursor  int
	CanUndo bool
	CanRedo bool
}

// ErrorPayload accompanies Error. It carries enough context for a subscriber
// to decide whether to retry or surface the failure to the user.
type ErrorPayload struct {
	// Op names the failed operation, e.g. "insert" or "move".
	Op string

	// Err is the sentinel-wrapped failure.
	Err error

	// Args echoes the offending arguments.
	Args map[string]any
}
