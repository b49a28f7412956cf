// Package window defines the backend-neutral window abstraction driven by
// the render coordination engine.
//
// A Window owns one GPU context. Only the engine decides which thread holds
// that context; windows never arbitrate ownership themselves. Backends live
// in subpackages (headless, glfwwin) and are selected through a Factory.
package window

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/mvr/internal/camera"
	"github.com/roach88/mvr/internal/event"
)

// Window is one physical window with its GPU context, viewports and
// index-aligned cameras.
type Window interface {
	// PollForInput appends window-system events (keyboard, mouse, close
	// requests) gathered since the last poll. Called on the control thread.
	PollForInput(events []event.Event) []event.Event

	// SwapBuffers presents the back buffer. The context must be current on
	// the calling thread.
	SwapBuffers()

	// MakeContextCurrent binds the context to the calling OS thread.
	MakeContextCurrent()

	// ReleaseContext unbinds the context from the calling OS thread.
	ReleaseContext()

	// UpdateHeadTrackingForAllViewports pushes frame to every camera.
	UpdateHeadTrackingForAllViewports(frame mgl64.Mat4)

	StereoType() StereoType
	NumViewports() int
	Viewport(n int) Rect2D
	Camera(n int) camera.Camera
	Settings() Settings

	Width() int
	Height() int
	XPos() int
	YPos() int

	// ShouldClose reports whether the user asked to close the window.
	ShouldClose() bool

	// Destroy releases backend resources. Called on the control thread
	// after the window's rendering thread has exited.
	Destroy()
}

// ViewportBinder is implemented by backends that must configure GPU state
// (viewport, scissor, draw buffer) before each viewport is drawn. Called on
// the rendering thread with the context current.
type ViewportBinder interface {
	BindViewport(n int)
}

// Clearer is implemented by backends that can clear the bound viewport.
type Clearer interface {
	Clear(r, g, b, a float32)
}

// Factory creates windows for a backend. The returned window's context must
// not be current on any thread.
type Factory interface {
	CreateWindow(settings Settings, cameras []camera.Camera) (Window, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(settings Settings, cameras []camera.Camera) (Window, error)

func (f FactoryFunc) CreateWindow(settings Settings, cameras []camera.Camera) (Window, error) {
	return f(settings, cameras)
}
