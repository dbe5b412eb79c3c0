package blocks

import "errors"

// Errors returned by mutation operations.
var (
	// ErrOutOfRange is returned for index preconditions.
	ErrOutOfRange = errors.New("index out of range")

	// ErrUnknownKind is returned when a kind is not in the registry and is
	// not the reserved default kind.
	ErrUnknownKind = errors.New("unknown block kind")

	// ErrInvalidPayload is returned when a payload has the wrong shape.
	ErrInvalidPayload = errors.New("invalid block payload")

	// ErrBlockNotFound is returned by identity lookups.
	ErrBlockNotFound = errors.New("block not found")
)
