package event

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler processes a delivered event. A non-nil error is logged and
// isolated; it never reaches the emitter.
type Handler func(e Event) error

// Event is a single delivered notification.
type Event struct {
	Name    string
	Payload any
	Time    time.Time
}

// FailureHandler observes isolated handler failures. Intended for tests and
// host applications that surface subscriber errors out of band.
type FailureHandler func(sub Subscription, e Event, res Result)

// Bus is a synchronous, ordered publish/subscribe bus keyed by event name.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]*subscription

	exec      executor
	logger    zerolog.Logger
	onFailure FailureHandler
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for isolated handler failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// WithFailureHandler sets a callback invoked for every failed handler.
func WithFailureHandler(fn FailureHandler) Option {
	return func(b *Bus) {
		b.onFailure = fn
	}
}

// NewBus creates an event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[string][]*subscription),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On registers a handler for an event name. Handlers for the same name run
// in registration order.
func (b *Bus) On(name string, h Handler) (Subscription, error) {
	return b.subscribe(name, h, false)
}

// Once registers a handler that is delivered at most one event and then
// auto-cancelled.
func (b *Bus) Once(name string, h Handler) (Subscription, error) {
	return b.subscribe(name, h, true)
}

func (b *Bus) subscribe(name string, h Handler, once bool) (Subscription, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if h == nil {
		return nil, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{
		id:      b.nextID,
		name:    name,
		handler: h,
		once:    once,
	}
	b.subs[name] = append(b.subs[name], sub)
	return sub, nil
}

// Off cancels a subscription.
func (b *Bus) Off(sub Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[sub.Name()]
	for i, s := range subs {
		if s.id == sub.ID() {
			s.cancel()
			b.subs[sub.Name()] = append(subs[:i], subs[i+1:]...)
			if len(b.subs[sub.Name()]) == 0 {
				delete(b.subs, sub.Name())
			}
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// RemoveAllListeners cancels every subscription for the given names, or all
// subscriptions when no name is given.
func (b *Bus) RemoveAllListeners(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(names) == 0 {
		for _, subs := range b.subs {
			for _, s := range subs {
				s.cancel()
			}
		}
		b.subs = make(map[string][]*subscription)
		return
	}

	for _, name := range names {
		for _, s := range b.subs[name] {
			s.cancel()
		}
		delete(b.subs, name)
	}
}

// ListenerCount returns the number of active subscriptions for a name.
func (b *Bus) ListenerCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[name])
}

// Emit delivers the payload to every active subscriber of name, in
// subscription order, synchronously in the caller's goroutine. Handler
// errors and panics are logged and isolated per subscriber.
func (b *Bus) Emit(name string, payload any) {
	e := Event{Name: name, Payload: payload, Time: time.Now()}

	// Snapshot outside the delivery loop so handlers can subscribe,
	// unsubscribe and re-emit without deadlocking.
	b.mu.Lock()
	subs := make([]*subscription, len(b.subs[name]))
	copy(subs, b.subs[name])
	b.mu.Unlock()

	for _, sub := range subs {
		if !sub.IsActive() || !sub.claim() {
			continue
		}

		res := b.exec.execute(sub.handler, e)

		if sub.once {
			_ = b.Off(sub)
		}

		if !res.IsSuccess() {
			b.reportFailure(sub, e, res)
		}
	}
}

func (b *Bus) reportFailure(sub *subscription, e Event, res Result) {
	evt := b.logger.Error().
		Str("event", e.Name).
		Uint64("subscription", sub.id).
		Bool("panicked", res.Panicked)
	if pe, ok := res.Err.(*PanicError); ok {
		evt = evt.Interface("panic", pe.Value).Bytes("stack", pe.Stack)
	} else {
		evt = evt.Err(res.Err)
	}
	evt.Msg("event handler failed")

	if b.onFailure != nil {
		b.onFailure(sub, e, res)
	}
}
