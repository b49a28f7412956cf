// Package trace records what the engine did, in the order it did it.
//
// Each frame produces a pre_draw record on the control thread, one draw
// record per (thread, viewport) pair and one swap record per thread. Records
// carry a sequence number assigned by the observer when the record is
// received, so the sequence is a total order consistent with the
// happens-before edges of the frame barrier.
//
// Traces serialize to canonical JSON (sorted keys, NFC strings, no floats)
// so identical runs produce byte-identical output and the same digest.
package trace

import (
	"fmt"
	"strings"
)

// Stage is the kind of engine step a record describes.
type Stage string

const (
	StageContextInit Stage = "context_init"
	StagePostInit    Stage = "post_init"
	StagePreDraw     Stage = "pre_draw"
	StageDraw        Stage = "draw"
	StageSwap        Stage = "swap"
	StageRelease     Stage = "release"
	StageShutdown    Stage = "shutdown"
)

// ControlThread is the thread id of records produced by the control
// goroutine.
const ControlThread = -1

// NoViewport marks records not tied to a viewport.
const NoViewport = -1

// Record is one observed engine step.
type Record struct {
	Seq      int64
	Frame    int64
	Stage    Stage
	Thread   int
	Viewport int
	// Events holds the event names delivered to pre_draw.
	Events []string
	// TimeNanos is the synchronized time of the frame.
	TimeNanos int64
}

func (r Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d frame=%d %s", r.Seq, r.Frame, r.Stage)
	if r.Thread != ControlThread {
		fmt.Fprintf(&b, " thread=%d", r.Thread)
	}
	if r.Viewport != NoViewport {
		fmt.Fprintf(&b, " viewport=%d", r.Viewport)
	}
	if len(r.Events) > 0 {
		fmt.Fprintf(&b, " events=%s", strings.Join(r.Events, ","))
	}
	return b.String()
}

// Observer receives records. Observe is called concurrently from the
// control goroutine and every render thread.
type Observer interface {
	Observe(r Record)
}

// Discard drops every record.
var Discard Observer = discard{}

type discard struct{}

func (discard) Observe(Record) {}
