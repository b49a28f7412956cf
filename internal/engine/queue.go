package engine

import (
	"sync"

	"github.com/roach88/mvr/internal/event"
)

// InboxSource is the source name of events submitted with Engine.Inject.
const InboxSource = "engine"

// inbox is a thread-safe FIFO of injected events, drained once per frame.
//
// The inbox is unbounded so producers (network handlers, test drivers,
// other goroutines) never block the frame loop or each other. It satisfies
// input.Device and is polled after every device and window, so injected
// events win last-write-wins reconciliation.
type inbox struct {
	mu     sync.Mutex
	events []event.Event
	closed bool
}

func newInbox() *inbox {
	return &inbox{events: make([]event.Event, 0, 16)}
}

// Enqueue adds e to the back of the inbox.
// Thread-safe: may be called from any goroutine.
// Returns false if the engine has stopped.
func (q *inbox) Enqueue(e event.Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)
	return true
}

// PollForInput moves every queued event into events, in enqueue order.
func (q *inbox) PollForInput(events []event.Event) []event.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	events = append(events, q.events...)

	// Clear slots so drained events don't keep payloads alive.
	clear(q.events)
	q.events = q.events[:0]
	return events
}

// Len returns the number of queued events.
func (q *inbox) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close rejects further events and drops anything still queued.
func (q *inbox) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.events = nil
}
