// Package history provides debounced, bounded undo/redo over whole-document
// snapshots.
//
// The manager holds an ordered list of immutable Document snapshots with a
// current-position cursor. Qualifying document changes arm a single shared
// debounce timer; only the last change in a burst triggers a capture, and the
// timer is reset rather than dropped, so the final state of any burst is
// always captured.
//
// # Capture rules
//
//   - A snapshot deep-equal to the entry at the cursor is skipped, so no-op
//     edits never grow the history.
//   - Appending truncates any redo entries after the cursor.
//   - The list never exceeds its configured maximum; eviction is FIFO from
//     the oldest end, with the cursor decremented by the eviction count so it
//     keeps referencing the same logical entry.
//
// # Replay
//
// Undo and redo replay a stored snapshot through the same render entry point
// used by external document loads. While a replay is in progress the
// replaying flag suppresses capture scheduling; that flag is the sole
// mechanism preventing replay-induced mutations from appending synthetic
// entries. A failed replay rolls the cursor back to its pre-call value.
//
// # Timing
//
// The debounce timer is an explicit single-slot cancellable abstraction
// (Timer) rather than ambient timer calls, so the state machine is testable
// with a manual timer and no wall-clock delays.
package history
