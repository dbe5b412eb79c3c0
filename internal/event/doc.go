// Package event provides the in-process publish/subscribe bus that decouples
// the editing engine from block renderers and UI chrome.
//
// The bus is synchronous and ordered: for a given Emit call, handlers run in
// subscription order in the caller's goroutine, and Emit returns only after
// every handler has run. An Emit invoked from inside a handler is processed
// before the outer Emit returns (re-entrant dispatch), so handlers must avoid
// unbounded re-entrant emission chains.
//
// # Isolation
//
// Handler failures are isolated per subscriber. A handler that returns an
// error or panics is logged and skipped; the remaining handlers for the same
// Emit still run, and nothing propagates back into the mutation that emitted
// the event.
//
// # Usage
//
//	bus := event.NewBus(event.WithLogger(logger))
//
//	sub := bus.On(event.BlockInserted, func(e event.Event) error {
//	    p := e.Payload.(event.BlockInsertedPayload)
//	    // ...
//	    return nil
//	})
//	defer bus.Off(sub)
//
//	bus.Emit(event.BlockInserted, payload)
package event
