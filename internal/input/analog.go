package input

import (
	"log/slog"

	"github.com/roach88/mvr/internal/event"
)

// UnknownAnalogEvent names channels beyond the configured event list.
const UnknownAnalogEvent = "VRPNAnalogDevice_Unknown_Event"

// AnalogSource delivers raw channel samples. Mainloop hands every sample
// received since the previous call to handler and returns without waiting
// for new data.
type AnalogSource interface {
	Mainloop(handler func(channels []float64)) error
}

// Analog turns an analog remote into one scalar event per changed channel.
// Channel values start at 0, so a first sample of 0 produces no event.
type Analog struct {
	name       string
	eventNames []string
	values     []float64
	source     AnalogSource
	pending    []event.Event
	lastErr    error
}

// NewAnalog creates an analog device named name that generates
// eventNames[i] for channel i.
func NewAnalog(name string, eventNames []string, source AnalogSource) *Analog {
	return &Analog{
		name:       name,
		eventNames: append([]string(nil), eventNames...),
		values:     make([]float64, len(eventNames)),
		source:     source,
	}
}

// Name returns the device name used as event source.
func (a *Analog) Name() string { return a.name }

// NumChannels returns the number of configured channels.
func (a *Analog) NumChannels() int { return len(a.eventNames) }

// EventName returns the event generated for channel ch.
func (a *Analog) EventName(ch int) string {
	if ch < 0 || ch >= len(a.eventNames) {
		return UnknownAnalogEvent
	}
	return a.eventNames[ch]
}

// PollForInput drains the source and appends the pending events.
func (a *Analog) PollForInput(events []event.Event) []event.Event {
	if err := a.source.Mainloop(a.handleSample); err != nil {
		if a.lastErr == nil || a.lastErr.Error() != err.Error() {
			slog.Warn("analog device source failed", "device", a.name, "error", err)
		}
		a.lastErr = err
	}
	if len(a.pending) == 0 {
		return events
	}
	events = append(events, a.pending...)
	a.pending = a.pending[:0]
	return events
}

// handleSample ignores channels beyond the configured names.
func (a *Analog) handleSample(channels []float64) {
	n := min(len(channels), len(a.eventNames))
	for ch := 0; ch < n; ch++ {
		a.sendEventIfChanged(ch, channels[ch])
	}
}

func (a *Analog) sendEventIfChanged(ch int, v float64) {
	if a.values[ch] == v {
		return
	}
	a.values[ch] = v
	a.pending = append(a.pending, event.NewScalar(a.EventName(ch), v, a.name, ch))
}

// Close closes the source when it supports closing.
func (a *Analog) Close() error {
	if c, ok := a.source.(Closer); ok {
		return c.Close()
	}
	return nil
}
