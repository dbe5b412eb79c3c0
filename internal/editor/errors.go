package editor

import "errors"

// Errors returned by Engine lifecycle gating.
var (
	// ErrNotReady indicates a mutation was attempted before Start.
	ErrNotReady = errors.New("editor is not ready")

	// ErrClosed indicates the engine has been closed.
	ErrClosed = errors.New("editor is closed")
)
