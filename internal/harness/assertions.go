package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/mvr/internal/trace"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Trace    []trace.Record // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, r := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", r)
		}
	}

	return buf.String()
}

// assertOrdering runs one of the trace ordering checks. The checks compare
// sequence numbers, so they need the trace in observation order.
func assertOrdering(records []trace.Record, assertion Assertion, check func([]trace.Record) error) error {
	err := check(records)
	if err == nil {
		return nil
	}
	actual := err.Error()
	var v *trace.Violation
	if errors.As(err, &v) {
		actual = v.Message + fmt.Sprintf(" (frame %d)", v.Frame)
	}
	return &AssertionError{
		Type:     assertion.Type,
		Expected: "no violation",
		Actual:   actual,
		Trace:    records,
	}
}

// assertDrawCount checks the number of draw calls in one frame.
func assertDrawCount(records []trace.Record, assertion Assertion) error {
	if n := trace.DrawCount(records, assertion.Frame); n != assertion.Count {
		return &AssertionError{
			Type:     AssertDrawCount,
			Expected: fmt.Sprintf("%d draws in frame %d", assertion.Count, assertion.Frame),
			Actual:   fmt.Sprintf("%d draws", n),
			Trace:    trace.Filter(records, trace.StageDraw),
		}
	}
	return nil
}

// assertEventDelivered checks that an event reached pre-draw, in the given
// frame when one is set.
func assertEventDelivered(records []trace.Record, assertion Assertion) error {
	frame, ok := trace.EventDelivered(records, assertion.Event)
	switch {
	case !ok:
		return &AssertionError{
			Type:     AssertEventDelivered,
			Expected: fmt.Sprintf("event %s delivered", assertion.Event),
			Actual:   "not delivered",
			Trace:    trace.Filter(records, trace.StagePreDraw),
		}
	case assertion.Frame > 0 && frame != assertion.Frame:
		return &AssertionError{
			Type:     AssertEventDelivered,
			Expected: fmt.Sprintf("event %s delivered in frame %d", assertion.Event, assertion.Frame),
			Actual:   fmt.Sprintf("delivered in frame %d", frame),
			Trace:    trace.Filter(records, trace.StagePreDraw),
		}
	}
	return nil
}

// assertFrameCount checks the number of frames that ran pre-draw.
func assertFrameCount(records []trace.Record, assertion Assertion) error {
	if n := len(trace.Frames(records)); n != assertion.Count {
		return &AssertionError{
			Type:     AssertFrameCount,
			Expected: fmt.Sprintf("%d frames", assertion.Count),
			Actual:   fmt.Sprintf("%d frames", n),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	observed := result.observed
	if observed == nil {
		observed = result.Trace
	}

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertPreDrawOnce:
			err = assertOrdering(observed, assertion, trace.CheckPreDrawOnce)
		case AssertSwapAfterDraws:
			err = assertOrdering(observed, assertion, trace.CheckSwapAfterDraws)
		case AssertFrameBarrier:
			err = assertOrdering(observed, assertion, trace.CheckFrameBarrier)
		case AssertContextInitOnce:
			err = assertOrdering(observed, assertion, trace.CheckContextInitOnce)
		case AssertDrawCount:
			err = assertDrawCount(result.Trace, assertion)
		case AssertEventDelivered:
			err = assertEventDelivered(result.Trace, assertion)
		case AssertFrameCount:
			err = assertFrameCount(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
