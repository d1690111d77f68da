package client

import (
	"log/slog"
	"sync"
)

// Handler consumes one event. Handlers run synchronously on the goroutine
// that triggered the event, in registration order, so they must return
// quickly and must not call back into Send or Disconnect; move slow work
// onto a Subscribe channel consumer instead.
type Handler func(Event)

// Bus is the ordered fan-out point for everything the client core observes.
// Registered handlers run first, one at a time, isolated from each other's
// panics. Buffered subscriber channels are served afterwards and are lossy
// by construction: when a consumer lags, events are dropped for that
// subscriber instead of stalling frame processing.
type Bus struct {
	log *slog.Logger

	mu       sync.Mutex
	handlers map[Kind][]Handler
	subs     []chan Event
	closed   bool
}

// NewBus returns an empty bus logging through log.
func NewBus(log *slog.Logger) *Bus {
	return &Bus{
		log:      log,
		handlers: make(map[Kind][]Handler),
	}
}

// On registers a handler for one event kind. Registration order is delivery
// order.
func (b *Bus) On(kind Kind, fn Handler) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], fn)
}

// Subscribe returns a channel receiving every event published after the
// call. buffer <= 0 falls back to DefaultEventBuffer. The channel closes
// with the bus.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Trigger publishes one event: handlers for its kind run synchronously in
// registration order, then every subscriber channel gets a non-blocking
// send. Triggering a closed bus is a no-op.
func (b *Bus) Trigger(evt Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	handlers := make([]Handler, len(b.handlers[evt.Kind()]))
	copy(handlers, b.handlers[evt.Kind()])
	b.mu.Unlock()

	for _, fn := range handlers {
		b.invoke(fn, evt)
	}

	// The sends stay under the lock so Close cannot pull a channel out from
	// underneath them; they never block, so holding it is cheap.
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.log.Debug("subscriber lagging, dropping event", "kind", evt.Kind())
		}
	}
}

// invoke shields the bus from a panicking handler so one consumer cannot
// take down frame processing for the rest.
func (b *Bus) invoke(fn Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "kind", evt.Kind(), "panic", r)
		}
	}()
	fn(evt)
}

// Close closes every subscriber channel and turns further Trigger calls
// into no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
