package plugin

import "errors"

// Errors returned by the pattern loader.
var (
	// ErrBadReturn indicates a script or one of its functions returned a
	// value of the wrong shape.
	ErrBadReturn = errors.New("unexpected lua return value")

	// ErrMissingField indicates a pattern table lacks a required field.
	ErrMissingField = errors.New("missing pattern field")

	// ErrClosed indicates the loader's Lua state has been closed.
	ErrClosed = errors.New("loader is closed")
)
