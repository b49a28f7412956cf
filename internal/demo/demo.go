// Package demo is a small application that exercises every engine
// callback: it logs input, keeps per-thread state in Resources and clears
// each viewport with a color that changes over synchronized time.
//
// It draws nothing else; "mvr run" uses it to check that windows, contexts
// and stereo viewports are wired up correctly.
package demo

import (
	"log/slog"
	"math"

	"github.com/roach88/mvr/internal/camera"
	"github.com/roach88/mvr/internal/engine"
	"github.com/roach88/mvr/internal/event"
	"github.com/roach88/mvr/internal/window"
)

// Resource keys stored per render thread.
const (
	KeyPhase = "demo.phase"
	KeyDraws = "demo.draws"
)

// App is the demo application.
type App struct {
	// written by pre-draw on the control thread, read by draws after the
	// frame barrier
	seconds float64
	frames  int64
	events  int64
}

// New creates the demo app.
func New() *App {
	return &App{}
}

func (a *App) DoUserInputAndPreDrawComputation(events []event.Event, synchronizedTime float64) {
	a.seconds = synchronizedTime
	a.frames++
	for _, e := range events {
		a.events++
		slog.Debug("input event",
			"event", e.Name(),
			"kind", e.Kind().String(),
			"source", e.Source(),
			"frame", e.Frame(),
		)
	}
}

func (a *App) InitializeContextSpecificVars(threadID int, win window.Window, res *engine.Resources) {
	res.Set(KeyPhase, float64(threadID)*math.Pi/3)
	res.Set(KeyDraws, new(int64))
	res.OnRelease(func() {
		draws, _ := engine.Lookup[*int64](res, KeyDraws)
		slog.Debug("demo context released", "thread", threadID, "draws", *draws)
	})
	slog.Info("context initialized",
		"thread", threadID,
		"window", win.Settings().Title,
		"stereo", win.StereoType().String(),
		"viewports", win.NumViewports(),
	)
}

func (a *App) PostInitialization() {
	slog.Info("demo ready")
}

func (a *App) DrawGraphics(threadID int, cam camera.Camera, win window.Window, res *engine.Resources) {
	if draws, ok := engine.Lookup[*int64](res, KeyDraws); ok {
		*draws++
	}
	clearer, ok := win.(window.Clearer)
	if !ok {
		return
	}
	phase, _ := engine.Lookup[float64](res, KeyPhase)
	r, g, b := ClearColor(a.seconds, phase, cam.Eye())
	clearer.Clear(r, g, b, 1)
}

// Frames returns how many pre-draw calls the app has seen.
func (a *App) Frames() int64 { return a.frames }

// Events returns how many events the app has seen.
func (a *App) Events() int64 { return a.events }

// ClearColor returns the background color for a viewport. The eye tints
// the blue channel so left and right images are distinguishable.
func ClearColor(seconds, phase float64, eye camera.Eye) (r, g, b float32) {
	r = float32(0.5 + 0.5*math.Sin(seconds+phase))
	g = float32(0.5 + 0.5*math.Cos(seconds*0.7+phase))
	switch eye {
	case camera.Left:
		b = 0.25
	case camera.Right:
		b = 0.75
	default:
		b = 0.5
	}
	return r, g, b
}
