// Package blocks implements the block mutation API: the single trusted
// gateway for changing a document's block sequence.
//
// Every operation validates its preconditions and fails closed. On a
// violation the operation returns a sentinel error, emits an "error" event
// with the operation name and arguments, and leaves the sequence untouched.
// Nothing throws past the API boundary, so callers that are not prepared to
// recover still observe a consistent store.
//
// Successful mutations emit domain events (blockInserted, blockDeleted,
// blockMoved, ...) after the store has been updated and the manager's lock
// released, so subscribers may read the store or trigger further mutations
// from inside a handler.
//
// The manager is the only writer of the block sequence. History replay and
// external document loads go through the same Render entry point as any
// other caller.
package blocks
