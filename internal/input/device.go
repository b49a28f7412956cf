// Package input provides the input device abstraction and the per-frame
// event aggregation performed on the control thread.
//
// Every device satisfies Device: PollForInput appends the events that
// became available since the previous call and returns immediately. A
// device that is unsupported or unconfigured is represented by Null, which
// never appends anything, so a broken device never stops the frame loop.
package input

import (
	"log/slog"

	"github.com/roach88/mvr/internal/event"
)

// Device is a source of events polled once per frame. Windows satisfy it
// too, which lets the aggregator treat devices and windows uniformly.
type Device interface {
	// PollForInput appends zero or more events to events and returns the
	// extended slice. It must not block.
	PollForInput(events []event.Event) []event.Event
}

// Closer is implemented by devices holding connections or files.
type Closer interface {
	Close() error
}

// Null is the inert device.
type Null struct{}

// PollForInput returns events unchanged.
func (Null) PollForInput(events []event.Event) []event.Event { return events }

// Aggregator builds the ordered per-frame event stream.
type Aggregator struct {
	warned map[string]bool
}

// NewAggregator creates an aggregator with an empty hazard memory.
func NewAggregator() *Aggregator {
	return &Aggregator{warned: make(map[string]bool)}
}

// Collect polls sources in order and stamps every event with frame.
// Callers pass devices in registration order followed by windows in window
// order. Names emitted by more than one source are logged once per name.
func (a *Aggregator) Collect(frame int64, sources []Device) []event.Event {
	var events []event.Event
	for _, src := range sources {
		events = src.PollForInput(events)
	}
	for i := range events {
		events[i] = events[i].WithFrame(frame)
	}

	for _, name := range event.Hazards(events) {
		if a.warned[name] {
			continue
		}
		a.warned[name] = true
		slog.Warn("event emitted by more than one source, last one wins",
			"event", name,
			"frame", frame,
		)
	}
	return events
}
