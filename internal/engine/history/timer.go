package history

import (
	"sync"
	"time"
)

// Timer is a single-slot cancellable timer. Scheduling replaces any pending
// callback; at most one callback is outstanding at a time.
type Timer interface {
	// Schedule arms the timer to run fn after d, cancelling any pending callback.
	Schedule(d time.Duration, fn func())

	// Cancel drops any pending callback.
	Cancel()
}

// wallTimer is the wall-clock Timer backed by time.AfterFunc.
type wallTimer struct {
	mu sync.Mutex
	t  *time.Timer
}

// NewTimer returns a wall-clock Timer.
func NewTimer() Timer {
	return &wallTimer{}
}

func (w *wallTimer) Schedule(d time.Duration, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.t != nil {
		w.t.Stop()
	}
	w.t = time.AfterFunc(d, fn)
}

func (w *wallTimer) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.t != nil {
		w.t.Stop()
		w.t = nil
	}
}
