package event

import "errors"

// Sentinel errors for the event bus.
var (
	// ErrEmptyName is returned when an event or subscription name is empty.
	ErrEmptyName = errors.New("event name cannot be empty")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrSubscriptionNotFound is returned when cancelling an unknown subscription.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrHandlerPanic marks results produced by a panicking handler.
	ErrHandlerPanic = errors.New("handler panicked")
)

// PanicError wraps a recovered panic value as an error.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace captured at the point of panic.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "handler panicked"
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
