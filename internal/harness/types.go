package harness

import "github.com/roach88/mvr/internal/trace"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the engine ran without error and every assertion held.
	Pass bool `json:"pass"`

	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Frames is the number of frames the engine completed.
	Frames int64 `json:"frames"`

	// Digest is the digest of the normalized trace.
	Digest string `json:"digest"`

	// Trace is the normalized trace as read back from the store.
	Trace []trace.Record `json:"-"`

	// Errors contains engine and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// observed is the trace in the order the observer received it. The
	// ordering assertions run against it.
	observed []trace.Record
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Pass:     true,
		Scenario: scenario,
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Observed returns the trace in observation order.
func (r *Result) Observed() []trace.Record {
	return r.observed
}
