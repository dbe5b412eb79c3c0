package event

import "sync/atomic"

// Subscription is a handle for a registered handler.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() uint64

	// Name returns the subscribed event name.
	Name() string

	// IsActive returns true if the subscription can still receive events.
	IsActive() bool
}

// subscription is the internal implementation of Subscription.
type subscription struct {
	id      uint64
	name    string
	handler Handler

	// once subscriptions auto-cancel after the first delivery.
	once bool

	cancelled atomic.Bool
	fired     atomic.Bool
}

func (s *subscription) ID() uint64 {
	return s.id
}

func (s *subscription) Name() string {
	return s.name
}

func (s *subscription) IsActive() bool {
	return !s.cancelled.Load()
}

func (s *subscription) cancel() {
	s.cancelled.Store(true)
}

// claim marks a once subscription as fired. It returns false if the
// subscription already fired, guaranteeing at-most-once delivery even under
// re-entrant emission.
func (s *subscription) claim() bool {
	if !s.once {
		return true
	}
	return s.fired.CompareAndSwap(false, true)
}
