// Package editor assembles the block engine behind a single façade.
//
// An Engine owns the block manager, the undo/redo history, the paste
// classifier and the event bus, wired together from one Config. Hosts
// construct an Engine, subscribe to the bus, call Start, and then drive
// the document through the Engine's methods.
//
// The Engine fails closed: every mutation called before Start, or after
// Close, returns an error and emits an error event instead of touching
// the document.
package editor
