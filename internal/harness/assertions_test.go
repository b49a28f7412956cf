package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mvr/internal/trace"
)

// frameTrace builds a well-ordered trace of one window with one viewport.
func frameTrace(frames int64, eventsAt map[int64][]string) []trace.Record {
	var out []trace.Record
	seq := int64(0)
	add := func(r trace.Record) {
		seq++
		r.Seq = seq
		out = append(out, r)
	}
	add(trace.Record{Stage: trace.StageContextInit, Thread: 0, Viewport: trace.NoViewport})
	add(trace.Record{Stage: trace.StagePostInit, Thread: trace.ControlThread, Viewport: trace.NoViewport})
	for f := int64(1); f <= frames; f++ {
		add(trace.Record{Frame: f, Stage: trace.StagePreDraw, Thread: trace.ControlThread, Viewport: trace.NoViewport, Events: eventsAt[f]})
		add(trace.Record{Frame: f, Stage: trace.StageDraw, Thread: 0, Viewport: 0})
		add(trace.Record{Frame: f, Stage: trace.StageSwap, Thread: 0, Viewport: trace.NoViewport})
	}
	return out
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	result := NewResult("ok")
	result.Trace = frameTrace(3, map[int64][]string{2: {"kbd_A_down"}})

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertPreDrawOnce},
		{Type: AssertSwapAfterDraws},
		{Type: AssertFrameBarrier},
		{Type: AssertContextInitOnce},
		{Type: AssertDrawCount, Frame: 2, Count: 1},
		{Type: AssertEventDelivered, Event: "kbd_A_down"},
		{Type: AssertEventDelivered, Event: "kbd_A_down", Frame: 2},
		{Type: AssertFrameCount, Count: 3},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_UsesObservedOrderForOrdering(t *testing.T) {
	observed := frameTrace(2, nil)
	// Swap of frame 1 observed after pre-draw of frame 2.
	observed[4].Seq, observed[5].Seq = observed[5].Seq, observed[4].Seq

	result := NewResult("late swap")
	result.observed = observed
	result.Trace = trace.Normalize(observed)

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertFrameBarrier},
		{Type: AssertDrawCount, Frame: 1, Count: 1},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Assertion failed: frame_barrier")
	assert.Contains(t, errs[0], "after next pre-draw")
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	records := frameTrace(2, map[int64][]string{2: {"kbd_A_down"}})

	tests := []struct {
		name      string
		records   []trace.Record
		assertion Assertion
		want      []string
	}{
		{
			name:      "draw count",
			records:   records,
			assertion: Assertion{Type: AssertDrawCount, Frame: 1, Count: 3},
			want:      []string{"Expected: 3 draws in frame 1", "Actual: 1 draws"},
		},
		{
			name:      "event never delivered",
			records:   records,
			assertion: Assertion{Type: AssertEventDelivered, Event: "quit"},
			want:      []string{"event quit delivered", "not delivered"},
		},
		{
			name:      "event in wrong frame",
			records:   records,
			assertion: Assertion{Type: AssertEventDelivered, Event: "kbd_A_down", Frame: 1},
			want:      []string{"delivered in frame 1", "Actual: delivered in frame 2"},
		},
		{
			name:      "frame count",
			records:   records,
			assertion: Assertion{Type: AssertFrameCount, Count: 5},
			want:      []string{"Expected: 5 frames", "Actual: 2 frames"},
		},
		{
			name: "double pre-draw",
			records: append(append([]trace.Record(nil), records...), trace.Record{
				Seq: 100, Frame: 2, Stage: trace.StagePreDraw, Thread: trace.ControlThread, Viewport: trace.NoViewport,
			}),
			assertion: Assertion{Type: AssertPreDrawOnce},
			want:      []string{"pre_draw_once", "pre-draw called more than once"},
		},
		{
			name:      "draw without swap",
			records:   records[:len(records)-1],
			assertion: Assertion{Type: AssertSwapAfterDraws},
			want:      []string{"swap_after_draws", "drew but never swapped"},
		},
		{
			name:      "draw before init",
			records:   records[1:],
			assertion: Assertion{Type: AssertContextInitOnce},
			want:      []string{"context_init_once", "draw before context initialization"},
		},
		{
			name:      "unknown type",
			records:   records,
			assertion: Assertion{Type: "teapot"},
			want:      []string{`assertion[0]: unknown assertion type "teapot"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewResult(tt.name)
			result.Trace = tt.records

			errs := EvaluateAssertions(result, []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			for _, w := range tt.want {
				assert.Contains(t, errs[0], w)
			}
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertDrawCount,
		Expected: "3 draws in frame 1",
		Actual:   "1 draws",
		Trace: []trace.Record{
			{Seq: 4, Frame: 1, Stage: trace.StageDraw, Thread: 0, Viewport: 0},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: draw_count\n")
	assert.Contains(t, msg, "  Expected: 3 draws in frame 1\n")
	assert.Contains(t, msg, "  Actual: 1 draws\n")
	assert.Contains(t, msg, "Full trace:\n  #4 frame=1 draw thread=0 viewport=0\n")
}

func TestResult_AddError(t *testing.T) {
	result := NewResult("r")
	assert.True(t, result.Pass)

	result.AddError("boom")
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"boom"}, result.Errors)
}
