// Package glfwwin is the GLFW + OpenGL window backend.
//
// GLFW requires that windows are created, polled and destroyed on the main
// OS thread. The engine's control goroutine does all three, so the process
// must lock its main goroutine to the main thread (see cmd/mvr) and call
// Engine.Run from it. Contexts are created detached and made current on
// the render threads.
package glfwwin

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/mvr/internal/camera"
	"github.com/roach88/mvr/internal/engine"
	"github.com/roach88/mvr/internal/event"
	"github.com/roach88/mvr/internal/window"
)

// QuitEvent is the key event that stops the GLFW policy.
const QuitEvent = "kbd_ESC_down"

// Policy stops when any window is closed or Escape is pressed.
func Policy() engine.ShutdownPolicy {
	return engine.AnyOf(engine.AnyWindowClosed(), engine.OnEvent(QuitEvent))
}

// Init initializes GLFW. Must be called on the main thread; pair with
// Terminate.
func Init() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	return nil
}

// Terminate destroys remaining windows and releases GLFW.
func Terminate() {
	glfw.Terminate()
}

// Factory creates GLFW windows. CreateWindow must be called on the main
// thread.
type Factory struct {
	glInit sync.Once
	glErr  error
}

// NewFactory returns a Factory. Init must have been called.
func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) CreateWindow(settings window.Settings, cameras []camera.Camera) (window.Window, error) {
	base, err := window.NewBase(settings, cameras)
	if err != nil {
		return nil, err
	}

	applyHints(settings)
	var monitor *glfw.Monitor
	if settings.FullScreen {
		monitor = glfw.GetPrimaryMonitor()
	}
	glw, err := glfw.CreateWindow(settings.Width, settings.Height, settings.Title, monitor, nil)
	if err != nil {
		return nil, fmt.Errorf("glfw create window %q: %w", settings.Title, err)
	}
	if monitor == nil {
		glw.SetPos(settings.XPos, settings.YPos)
	}

	// Function pointers are loaded once, with the first context current.
	glw.MakeContextCurrent()
	f.glInit.Do(func() { f.glErr = gl.Init() })
	glfw.DetachCurrentContext()
	if f.glErr != nil {
		glw.Destroy()
		return nil, fmt.Errorf("gl init: %w", f.glErr)
	}

	w := &Window{Base: base, glw: glw, name: settings.Title}
	w.width.Store(int64(settings.Width))
	w.height.Store(int64(settings.Height))
	w.x.Store(int64(settings.XPos))
	w.y.Store(int64(settings.YPos))

	glw.SetKeyCallback(w.keyEvent)
	glw.SetMouseButtonCallback(w.mouseButtonEvent)
	glw.SetCursorPosCallback(w.cursorPosEvent)
	glw.SetSizeCallback(w.resized)
	glw.SetPosCallback(w.moved)

	slog.Debug("glfw window created", "title", settings.Title, "stereo", settings.StereoType, "viewports", base.NumViewports())
	return w, nil
}

func applyHints(s window.Settings) {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	glfw.WindowHint(glfw.Resizable, boolHint(s.Resizable))
	glfw.WindowHint(glfw.Decorated, boolHint(s.Framed))
	glfw.WindowHint(glfw.Visible, boolHint(s.Visible))
	glfw.WindowHint(glfw.OpenGLDebugContext, boolHint(s.UseDebugContext))
	glfw.WindowHint(glfw.Stereo, boolHint(s.StereoType == window.StereoQuadBuffered))

	glfw.WindowHint(glfw.RedBits, s.RGBBits)
	glfw.WindowHint(glfw.GreenBits, s.RGBBits)
	glfw.WindowHint(glfw.BlueBits, s.RGBBits)
	glfw.WindowHint(glfw.AlphaBits, s.AlphaBits)
	glfw.WindowHint(glfw.DepthBits, s.DepthBits)
	glfw.WindowHint(glfw.StencilBits, s.StencilBits)
	glfw.WindowHint(glfw.Samples, s.MSAASamples)
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

// Window is a GLFW window with an OpenGL 4.1 core context.
type Window struct {
	*window.Base
	glw  *glfw.Window
	name string

	// callbacks run on the main thread during PollEvents
	mu      sync.Mutex
	pending []event.Event

	width, height atomic.Int64
	x, y          atomic.Int64
}

// PollForInput processes window-system events and appends the ones queued
// for this window. Main thread only.
func (w *Window) PollForInput(events []event.Event) []event.Event {
	glfw.PollEvents()

	w.mu.Lock()
	defer w.mu.Unlock()
	events = append(events, w.pending...)
	w.pending = w.pending[:0]
	return events
}

func (w *Window) push(e event.Event) {
	w.mu.Lock()
	w.pending = append(w.pending, e)
	w.mu.Unlock()
}

func (w *Window) keyEvent(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, _ glfw.ModifierKey) {
	name := KeyEventName(key, glfw.GetKeyName(key, scancode), action)
	if name == "" {
		return
	}
	w.push(event.New(name, w.name))
}

func (w *Window) mouseButtonEvent(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	name := MouseButtonEventName(button, action)
	if name == "" {
		return
	}
	w.push(event.NewScalar(name, 1, w.name, int(button)))
}

func (w *Window) cursorPosEvent(_ *glfw.Window, x, y float64) {
	w.push(event.NewVec3(MousePointerEvent, mgl64.Vec3{x, y, 0}, w.name))
}

func (w *Window) resized(_ *glfw.Window, width, height int) {
	w.width.Store(int64(width))
	w.height.Store(int64(height))
}

func (w *Window) moved(_ *glfw.Window, x, y int) {
	w.x.Store(int64(x))
	w.y.Store(int64(y))
}

func (w *Window) SwapBuffers() {
	w.glw.SwapBuffers()
}

func (w *Window) MakeContextCurrent() {
	w.glw.MakeContextCurrent()
}

func (w *Window) ReleaseContext() {
	glfw.DetachCurrentContext()
}

// BindViewport sets the viewport, scissor and, for quad-buffered stereo,
// the back buffer of the viewport's eye.
func (w *Window) BindViewport(n int) {
	vp := w.Viewport(n)
	x, y := int32(vp.X), int32(vp.Y)
	width, height := int32(vp.Width), int32(vp.Height)

	gl.Viewport(x, y, width, height)
	gl.Scissor(x, y, width, height)
	gl.Enable(gl.SCISSOR_TEST)

	if w.StereoType() == window.StereoQuadBuffered {
		gl.DrawBuffer(DrawBuffer(w.Camera(n).Eye()))
	}
}

func (w *Window) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (w *Window) Width() int  { return int(w.width.Load()) }
func (w *Window) Height() int { return int(w.height.Load()) }
func (w *Window) XPos() int   { return int(w.x.Load()) }
func (w *Window) YPos() int   { return int(w.y.Load()) }

func (w *Window) ShouldClose() bool {
	return w.glw.ShouldClose()
}

// Destroy destroys the GLFW window. Main thread only.
func (w *Window) Destroy() {
	w.glw.Destroy()
}

// DrawBuffer returns the quad-buffered back buffer for eye.
func DrawBuffer(eye camera.Eye) uint32 {
	switch eye {
	case camera.Left:
		return gl.BACK_LEFT
	case camera.Right:
		return gl.BACK_RIGHT
	default:
		return gl.BACK
	}
}
