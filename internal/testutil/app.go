package testutil

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/roach88/mvr/internal/camera"
	"github.com/roach88/mvr/internal/engine"
	"github.com/roach88/mvr/internal/event"
	"github.com/roach88/mvr/internal/window"
)

// PreDrawCall is one DoUserInputAndPreDrawComputation call.
type PreDrawCall struct {
	Frame  int64
	Events []event.Event
	Time   float64
}

// DrawCall is one DrawGraphics call. Frame is the number of pre-draw calls
// seen when the draw ran, which is the frame being drawn.
type DrawCall struct {
	Frame    int64
	Thread   int
	Eye      camera.Eye
	Window   string
	Viewport int
}

// RecordingApp is an engine.App that records every callback.
//
// Optional hooks run after the call is recorded, so tests can inject
// panics or inspect resources.
//
// Thread-safety: all methods are safe for concurrent use.
type RecordingApp struct {
	OnPreDraw func(events []event.Event, t float64)
	OnInit    func(threadID int, win window.Window, res *engine.Resources)
	OnDraw    func(threadID int, cam camera.Camera, win window.Window, res *engine.Resources)

	mu        sync.Mutex
	preDraws  []PreDrawCall
	draws     []DrawCall
	inits     []int
	postInits int
}

// NewRecordingApp creates an empty RecordingApp.
func NewRecordingApp() *RecordingApp {
	return &RecordingApp{}
}

func (a *RecordingApp) DoUserInputAndPreDrawComputation(events []event.Event, t float64) {
	a.mu.Lock()
	frame := int64(len(a.preDraws)) + 1
	a.preDraws = append(a.preDraws, PreDrawCall{
		Frame:  frame,
		Events: append([]event.Event(nil), events...),
		Time:   t,
	})
	a.mu.Unlock()

	if a.OnPreDraw != nil {
		a.OnPreDraw(events, t)
	}
}

func (a *RecordingApp) InitializeContextSpecificVars(threadID int, win window.Window, res *engine.Resources) {
	a.mu.Lock()
	a.inits = append(a.inits, threadID)
	a.mu.Unlock()

	if a.OnInit != nil {
		a.OnInit(threadID, win, res)
	}
}

func (a *RecordingApp) PostInitialization() {
	a.mu.Lock()
	a.postInits++
	a.mu.Unlock()
}

func (a *RecordingApp) DrawGraphics(threadID int, cam camera.Camera, win window.Window, res *engine.Resources) {
	a.mu.Lock()
	frame := int64(len(a.preDraws))
	a.draws = append(a.draws, DrawCall{
		Frame:    frame,
		Thread:   threadID,
		Eye:      cam.Eye(),
		Window:   win.Settings().Title,
		Viewport: viewportOf(cam, win),
	})
	a.mu.Unlock()

	if a.OnDraw != nil {
		a.OnDraw(threadID, cam, win, res)
	}
}

// viewportOf returns the index of cam in win, or -1.
func viewportOf(cam camera.Camera, win window.Window) int {
	for n := 0; n < win.NumViewports(); n++ {
		if win.Camera(n) == cam {
			return n
		}
	}
	return -1
}

// PreDraws returns a copy of the pre-draw calls.
func (a *RecordingApp) PreDraws() []PreDrawCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]PreDrawCall(nil), a.preDraws...)
}

// Draws returns a copy of the draw calls in call order.
func (a *RecordingApp) Draws() []DrawCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]DrawCall(nil), a.draws...)
}

// DrawsInFrame returns the draw calls of frame.
func (a *RecordingApp) DrawsInFrame(frame int64) []DrawCall {
	var out []DrawCall
	for _, d := range a.Draws() {
		if d.Frame == frame {
			out = append(out, d)
		}
	}
	return out
}

// Inits returns the thread ids passed to InitializeContextSpecificVars.
func (a *RecordingApp) Inits() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.inits...)
}

// PostInits returns how many times PostInitialization ran.
func (a *RecordingApp) PostInits() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.postInits
}

// QuietLogs discards slog output for the duration of the test.
func QuietLogs(t testing.TB) {
	t.Helper()
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
}
