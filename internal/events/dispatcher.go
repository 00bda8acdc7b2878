package events

import (
	"sync"
)

// Listener receives events synchronously on the publisher's goroutine.
// Listeners must not block; long-running work belongs behind a channel or
// goroutine owned by the listener.
type Listener func(Event)

// Dispatcher is a typed callback registry. Listeners register per event type
// or for all types, and are invoked synchronously in registration order
// (type-specific listeners first, then catch-all listeners).
type Dispatcher struct {
	mu     sync.RWMutex
	byType map[string][]Listener
	all    []Listener
	feeds  []chan Event
	closed bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		byType: make(map[string][]Listener),
	}
}

// On registers a listener for a single event type.
func (d *Dispatcher) On(eventType string, fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.byType[eventType] = append(d.byType[eventType], fn)
}

// OnAll registers a listener for every event type.
func (d *Dispatcher) OnAll(fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.all = append(d.all, fn)
}

// Feed returns a buffered channel that receives every event. Sends are
// non-blocking: when the buffer is full the event is dropped for that feed.
// Intended for display consumers; programmatic consumers that must not miss
// events should register listeners instead.
// bufSize defaults to 256 if <= 0.
func (d *Dispatcher) Feed(bufSize int) <-chan Event {
	if bufSize <= 0 {
		bufSize = 256
	}

	ch := make(chan Event, bufSize)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		close(ch)
		return ch
	}

	d.feeds = append(d.feeds, ch)
	return ch
}

// Dispatch delivers an event to type-specific listeners, then catch-all
// listeners, then feeds. Listener callbacks run outside the dispatcher's
// lock, so a listener may register further listeners without deadlocking.
func (d *Dispatcher) Dispatch(e Event) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		return
	}
	typed := append([]Listener(nil), d.byType[e.EventType()]...)
	all := append([]Listener(nil), d.all...)

	// Feed sends stay under the read lock so Close cannot close a channel
	// mid-send.
	for _, ch := range d.feeds {
		select {
		case ch <- e:
		default:
			// Feed full, drop event
		}
	}
	d.mu.RUnlock()

	for _, fn := range typed {
		fn(e)
	}
	for _, fn := range all {
		fn(e)
	}
}

// Close closes all feed channels and stops further dispatch.
// Safe to call multiple times (idempotent).
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true

	for _, ch := range d.feeds {
		close(ch)
	}
	d.feeds = nil
}
