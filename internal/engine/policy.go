package engine

import (
	"github.com/roach88/mvr/internal/event"
	"github.com/roach88/mvr/internal/window"
)

// FrameState is what a ShutdownPolicy sees at the start of a cycle.
type FrameState struct {
	// Frame is the number of frames completed so far.
	Frame int64
	// Events are the events collected for the upcoming frame.
	Events []event.Event
	// Windows are the engine's windows in registration order.
	Windows []window.Window
}

// ShutdownPolicy decides when the frame loop stops. It is evaluated on the
// control goroutine after input is collected and before the clock advances.
type ShutdownPolicy interface {
	ShouldStop(s FrameState) bool
}

// PolicyFunc adapts a function to ShutdownPolicy.
type PolicyFunc func(s FrameState) bool

func (f PolicyFunc) ShouldStop(s FrameState) bool { return f(s) }

// AnyWindowClosed stops as soon as one window reports ShouldClose.
func AnyWindowClosed() ShutdownPolicy {
	return PolicyFunc(func(s FrameState) bool {
		for _, w := range s.Windows {
			if w.ShouldClose() {
				return true
			}
		}
		return false
	})
}

// AllWindowsClosed stops once every window reports ShouldClose. This is the
// default policy.
func AllWindowsClosed() ShutdownPolicy {
	return PolicyFunc(func(s FrameState) bool {
		if len(s.Windows) == 0 {
			return true
		}
		for _, w := range s.Windows {
			if !w.ShouldClose() {
				return false
			}
		}
		return true
	})
}

// OnEvent stops when an event named name is collected.
func OnEvent(name string) ShutdownPolicy {
	return PolicyFunc(func(s FrameState) bool {
		_, ok := event.Latest(s.Events, name)
		return ok
	})
}

// FrameLimit stops after n frames. n <= 0 never stops.
func FrameLimit(n int64) ShutdownPolicy {
	return PolicyFunc(func(s FrameState) bool {
		return n > 0 && s.Frame >= n
	})
}

// AnyOf stops when any of policies does. Nil policies are skipped.
func AnyOf(policies ...ShutdownPolicy) ShutdownPolicy {
	return PolicyFunc(func(s FrameState) bool {
		for _, p := range policies {
			if p != nil && p.ShouldStop(s) {
				return true
			}
		}
		return false
	})
}
