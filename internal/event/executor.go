package event

import (
	"runtime/debug"
	"time"
)

// Result captures the outcome of a single handler execution.
type Result struct {
	// Err is the error returned by the handler, or a *PanicError.
	Err error

	// Panicked is true if the handler panicked.
	Panicked bool

	// Duration is how long the handler took to execute.
	Duration time.Duration
}

// IsSuccess returns true if the handler completed without error or panic.
func (r Result) IsSuccess() bool {
	return r.Err == nil && !r.Panicked
}

// executor runs a handler with panic recovery and timing.
type executor struct{}

// execute runs the handler for the event and never lets a panic escape.
func (executor) execute(h Handler, e Event) (result Result) {
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			result.Panicked = true
			result.Err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	result.Err = h(e)
	return result
}
