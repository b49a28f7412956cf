package trace

import (
	"fmt"
	"slices"
)

// Violation describes a broken ordering property.
type Violation struct {
	Property string
	Frame    int64
	Thread   int
	Message  string
}

func (v *Violation) Error() string {
	if v.Thread != ControlThread {
		return fmt.Sprintf("%s: frame %d thread %d: %s", v.Property, v.Frame, v.Thread, v.Message)
	}
	return fmt.Sprintf("%s: frame %d: %s", v.Property, v.Frame, v.Message)
}

// Frames returns the distinct frame numbers that have a pre_draw record,
// ascending.
func Frames(records []Record) []int64 {
	var frames []int64
	for _, r := range records {
		if r.Stage == StagePreDraw && !slices.Contains(frames, r.Frame) {
			frames = append(frames, r.Frame)
		}
	}
	slices.Sort(frames)
	return frames
}

// Filter returns the records matching stage in sequence order.
func Filter(records []Record, stage Stage) []Record {
	var out []Record
	for _, r := range records {
		if r.Stage == stage {
			out = append(out, r)
		}
	}
	return out
}

// CheckPreDrawOnce verifies exactly one pre_draw per frame, preceding every
// draw of that frame.
func CheckPreDrawOnce(records []Record) error {
	pre := make(map[int64]Record)
	for _, r := range records {
		if r.Stage != StagePreDraw {
			continue
		}
		if _, dup := pre[r.Frame]; dup {
			return &Violation{Property: "pre_draw_once", Frame: r.Frame, Thread: ControlThread,
				Message: "pre-draw called more than once"}
		}
		pre[r.Frame] = r
	}
	for _, r := range records {
		if r.Stage != StageDraw {
			continue
		}
		p, ok := pre[r.Frame]
		if !ok {
			return &Violation{Property: "pre_draw_once", Frame: r.Frame, Thread: r.Thread,
				Message: "draw without pre-draw"}
		}
		if r.Seq < p.Seq {
			return &Violation{Property: "pre_draw_once", Frame: r.Frame, Thread: r.Thread,
				Message: fmt.Sprintf("draw #%d before pre-draw #%d", r.Seq, p.Seq)}
		}
	}
	return nil
}

type frameThread struct {
	frame  int64
	thread int
}

// CheckSwapAfterDraws verifies that every thread swaps exactly once per
// frame it drew in, after its last draw of that frame.
func CheckSwapAfterDraws(records []Record) error {
	lastDraw := make(map[frameThread]int64)
	swaps := make(map[frameThread]int64)
	for _, r := range records {
		key := frameThread{r.Frame, r.Thread}
		switch r.Stage {
		case StageDraw:
			if _, swapped := swaps[key]; swapped {
				return &Violation{Property: "swap_after_draws", Frame: r.Frame, Thread: r.Thread,
					Message: fmt.Sprintf("draw #%d after swap #%d", r.Seq, swaps[key])}
			}
			lastDraw[key] = r.Seq
		case StageSwap:
			if _, dup := swaps[key]; dup {
				return &Violation{Property: "swap_after_draws", Frame: r.Frame, Thread: r.Thread,
					Message: "swapped more than once"}
			}
			if _, drew := lastDraw[key]; !drew {
				return &Violation{Property: "swap_after_draws", Frame: r.Frame, Thread: r.Thread,
					Message: "swap without draws"}
			}
			swaps[key] = r.Seq
		}
	}
	for key := range lastDraw {
		if _, ok := swaps[key]; !ok {
			return &Violation{Property: "swap_after_draws", Frame: key.frame, Thread: key.thread,
				Message: "drew but never swapped"}
		}
	}
	return nil
}

// CheckFrameBarrier verifies that all swaps of a frame complete before the
// pre_draw of the next frame.
func CheckFrameBarrier(records []Record) error {
	preSeq := make(map[int64]int64)
	for _, r := range Filter(records, StagePreDraw) {
		preSeq[r.Frame] = r.Seq
	}
	for _, r := range Filter(records, StageSwap) {
		next, ok := preSeq[r.Frame+1]
		if ok && r.Seq > next {
			return &Violation{Property: "frame_barrier", Frame: r.Frame, Thread: r.Thread,
				Message: fmt.Sprintf("swap #%d after next pre-draw #%d", r.Seq, next)}
		}
	}
	return nil
}

// CheckContextInitOnce verifies that each thread initializes its context
// exactly once and before its first draw.
func CheckContextInitOnce(records []Record) error {
	inits := make(map[int]int64)
	for _, r := range records {
		switch r.Stage {
		case StageContextInit:
			if _, dup := inits[r.Thread]; dup {
				return &Violation{Property: "context_init_once", Frame: r.Frame, Thread: r.Thread,
					Message: "context initialized more than once"}
			}
			inits[r.Thread] = r.Seq
		case StageDraw:
			if _, ok := inits[r.Thread]; !ok {
				return &Violation{Property: "context_init_once", Frame: r.Frame, Thread: r.Thread,
					Message: "draw before context initialization"}
			}
		}
	}
	return nil
}

// CheckAll runs every ordering check.
func CheckAll(records []Record) error {
	for _, check := range []func([]Record) error{
		CheckPreDrawOnce,
		CheckSwapAfterDraws,
		CheckFrameBarrier,
		CheckContextInitOnce,
	} {
		if err := check(records); err != nil {
			return err
		}
	}
	return nil
}

// DrawCount returns the number of draw records in frame.
func DrawCount(records []Record, frame int64) int {
	n := 0
	for _, r := range records {
		if r.Stage == StageDraw && r.Frame == frame {
			n++
		}
	}
	return n
}

// EventDelivered reports the first frame whose pre_draw received name.
func EventDelivered(records []Record, name string) (int64, bool) {
	for _, r := range records {
		if r.Stage == StagePreDraw && slices.Contains(r.Events, name) {
			return r.Frame, true
		}
	}
	return 0, false
}
