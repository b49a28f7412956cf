package engine

import (
	"github.com/roach88/mvr/internal/camera"
	"github.com/roach88/mvr/internal/event"
	"github.com/roach88/mvr/internal/window"
)

// App is the set of callbacks an application hands to Run.
//
// Callbacks run on specific threads:
//   - PostInitialization and DoUserInputAndPreDrawComputation on the
//     control goroutine (the caller of Run)
//   - InitializeContextSpecificVars and DrawGraphics on the window's render
//     thread, with that window's context current
//
// DrawGraphics is called concurrently for different windows. It must only
// touch the Resources passed in and state it only reads.
type App interface {
	// DoUserInputAndPreDrawComputation runs exactly once per frame, before
	// any DrawGraphics of that frame. events holds everything collected this
	// frame in aggregation order. synchronizedTime is in seconds.
	DoUserInputAndPreDrawComputation(events []event.Event, synchronizedTime float64)

	// InitializeContextSpecificVars runs once per render thread before its
	// first DrawGraphics. Allocate GPU objects here and store them in res.
	InitializeContextSpecificVars(threadID int, win window.Window, res *Resources)

	// PostInitialization runs once on the control goroutine after every
	// render thread has initialized its context.
	PostInitialization()

	// DrawGraphics runs once per (viewport, camera) pair per frame.
	DrawGraphics(threadID int, cam camera.Camera, win window.Window, res *Resources)
}

// BaseApp provides no-op callbacks. Embed it to implement only what you need.
type BaseApp struct{}

func (BaseApp) DoUserInputAndPreDrawComputation([]event.Event, float64)      {}
func (BaseApp) InitializeContextSpecificVars(int, window.Window, *Resources) {}
func (BaseApp) PostInitialization()                                          {}
func (BaseApp) DrawGraphics(int, camera.Camera, window.Window, *Resources)   {}
