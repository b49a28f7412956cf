// Package headless is an offscreen window backend. It has no GPU context;
// it tracks which goroutine holds the logical context so that misuse of the
// one-context-one-thread rule panics instead of silently passing.
//
// Used by tests, the conformance harness, and "mvr run --backend headless".
package headless

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/roach88/mvr/internal/camera"
	"github.com/roach88/mvr/internal/event"
	"github.com/roach88/mvr/internal/window"
)

// Window is an offscreen window.
type Window struct {
	*window.Base
	name string

	current atomic.Bool

	// pending window-system events and the close flag are touched by the
	// control thread and by tests injecting input.
	mu      sync.Mutex
	pending []event.Event
	closed  bool

	swaps     atomic.Int64
	clears    atomic.Int64
	bound     atomic.Int64
	destroyed atomic.Bool

	closeAfter int64
}

// Option configures a headless window.
type Option func(*Window)

// CloseAfterSwaps makes the window report ShouldClose once it has been
// swapped n times.
func CloseAfterSwaps(n int64) Option {
	return func(w *Window) { w.closeAfter = n }
}

// New creates a headless window.
func New(settings window.Settings, cameras []camera.Camera, opts ...Option) (*Window, error) {
	base, err := window.NewBase(settings, cameras)
	if err != nil {
		return nil, err
	}
	w := &Window{Base: base, name: settings.Title}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Factory creates headless windows. Created windows are kept so tests can
// inspect them after the engine has run.
type Factory struct {
	Options []Option

	mu      sync.Mutex
	created []*Window
}

// NewFactory creates a Factory applying opts to every window.
func NewFactory(opts ...Option) *Factory {
	return &Factory{Options: opts}
}

func (f *Factory) CreateWindow(settings window.Settings, cameras []camera.Camera) (window.Window, error) {
	w, err := New(settings, cameras, f.Options...)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.created = append(f.created, w)
	f.mu.Unlock()
	return w, nil
}

// Windows returns the windows created so far, in creation order.
func (f *Factory) Windows() []*Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Window(nil), f.created...)
}

// Inject queues a window-system event for the next PollForInput.
func (w *Window) Inject(e event.Event) {
	w.mu.Lock()
	w.pending = append(w.pending, e)
	w.mu.Unlock()
}

// RequestClose marks the window as closed, as if the user clicked close.
func (w *Window) RequestClose() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

func (w *Window) PollForInput(events []event.Event) []event.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events = append(events, w.pending...)
	w.pending = w.pending[:0]
	return events
}

func (w *Window) SwapBuffers() {
	if !w.current.Load() {
		panic(fmt.Sprintf("headless window %q: SwapBuffers without a current context", w.name))
	}
	w.swaps.Add(1)
}

func (w *Window) MakeContextCurrent() {
	if !w.current.CompareAndSwap(false, true) {
		panic(fmt.Sprintf("headless window %q: context already current on another thread", w.name))
	}
}

func (w *Window) ReleaseContext() {
	w.current.Store(false)
}

// BindViewport records the binding; viewport index is validated by Base.
func (w *Window) BindViewport(n int) {
	_ = w.Viewport(n)
	w.bound.Add(1)
}

func (w *Window) Clear(r, g, b, a float32) {
	w.clears.Add(1)
}

func (w *Window) Width() int  { return w.Settings().Width }
func (w *Window) Height() int { return w.Settings().Height }
func (w *Window) XPos() int   { return w.Settings().XPos }
func (w *Window) YPos() int   { return w.Settings().YPos }

func (w *Window) ShouldClose() bool {
	if w.closeAfter > 0 && w.swaps.Load() >= w.closeAfter {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Window) Destroy() {
	w.destroyed.Store(true)
}

// Swaps returns how many times SwapBuffers was called.
func (w *Window) Swaps() int64 { return w.swaps.Load() }

// Clears returns how many times Clear was called.
func (w *Window) Clears() int64 { return w.clears.Load() }

// Binds returns how many times BindViewport was called.
func (w *Window) Binds() int64 { return w.bound.Load() }

// IsCurrent reports whether some thread holds the context.
func (w *Window) IsCurrent() bool { return w.current.Load() }

// Destroyed reports whether Destroy was called.
func (w *Window) Destroyed() bool { return w.destroyed.Load() }
