package event

// Event names emitted by the engine. Subscribers key on these.
const (
	BlockInserted  = "blockInserted"
	BlockDeleted   = "blockDeleted"
	BlocksCleared  = "blocksCleared"
	BlockConverted = "blockConverted"
	BlockMoved     = "blockMoved"
	BlocksSwapped  = "blocksSwapped"
	BlocksRendered = "blocksRendered"

	PasteSubstitution = "pasteSubstitution"

	HistoryStateChanged = "undoRedo:stateChanged"
	HistoryUndo         = "undoRedo:undo"
	HistoryRedo         = "undoRedo:redo"
	HistoryCleared      = "undoRedo:historyCleared"

	Error = "error"
)
