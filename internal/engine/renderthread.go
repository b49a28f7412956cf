package engine

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/roach88/mvr/internal/trace"
	"github.com/roach88/mvr/internal/window"
)

type frameCommand struct {
	frame     int64
	timeNanos int64
}

type threadReply struct {
	thread int
	frame  int64
	err    error
}

// contextGuard tracks which render thread holds a window's context. There
// is one guard per distinct window value, so a factory handing out the same
// window twice is caught. Acquiring a held context is a contract violation.
type contextGuard struct {
	owner atomic.Int64 // thread id + 1, 0 when free
}

func (g *contextGuard) acquire(thread int) {
	if !g.owner.CompareAndSwap(0, int64(thread)+1) {
		panic(&RuntimeError{
			Code:     ErrCodeContextViolation,
			Message:  fmt.Sprintf("context already current on thread %d", g.owner.Load()-1),
			ThreadID: thread,
		})
	}
}

func (g *contextGuard) release(thread int) {
	g.owner.CompareAndSwap(int64(thread)+1, 0)
}

// renderThread drives one window on a dedicated OS thread.
//
// The thread sends exactly one reply after context initialization and one
// per frame command. It exits when frames is closed.
type renderThread struct {
	id      int
	win     window.Window
	eng     *Engine
	app     App
	frames  chan frameCommand
	replies chan<- threadReply

	guard   *contextGuard
	held    bool
	current bool
}

func newRenderThread(id int, win window.Window, guard *contextGuard, e *Engine, app App, replies chan<- threadReply) *renderThread {
	return &renderThread{
		id:      id,
		win:     win,
		eng:     e,
		app:     app,
		frames:  make(chan frameCommand),
		replies: replies,
		guard:   guard,
	}
}

// run is the thread body. Its error is the first failure on this thread.
func (t *renderThread) run() (err error) {
	// GPU contexts are bound to OS threads, not goroutines.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	res := t.eng.resources.ForThread(t.id)
	defer t.cleanup()

	slog.Debug("render thread started", "thread", t.id, "viewports", t.win.NumViewports())

	err = t.initialize(res)
	t.replies <- threadReply{thread: t.id, err: err}
	if err != nil {
		return err
	}

	for cmd := range t.frames {
		ferr := t.drawFrame(cmd, res)
		if ferr != nil && err == nil {
			err = ferr
		}
		t.replies <- threadReply{thread: t.id, frame: cmd.frame, err: ferr}
	}
	return err
}

func (t *renderThread) initialize(res *Resources) (err error) {
	defer t.recoverInto(&err, 0, "InitializeContextSpecificVars")

	t.guard.acquire(t.id)
	t.held = true
	t.win.MakeContextCurrent()
	t.current = true

	t.app.InitializeContextSpecificVars(t.id, t.win, res)
	t.eng.observe(trace.Record{
		Frame:    0,
		Stage:    trace.StageContextInit,
		Thread:   t.id,
		Viewport: trace.NoViewport,
	})
	return nil
}

// drawFrame draws every (viewport, camera) pair, then swaps.
func (t *renderThread) drawFrame(cmd frameCommand, res *Resources) (err error) {
	defer t.recoverInto(&err, cmd.frame, "DrawGraphics")

	binder, _ := t.win.(window.ViewportBinder)
	for n := 0; n < t.win.NumViewports(); n++ {
		if binder != nil {
			binder.BindViewport(n)
		}
		t.app.DrawGraphics(t.id, t.win.Camera(n), t.win, res)
		t.eng.observe(trace.Record{
			Frame:     cmd.frame,
			Stage:     trace.StageDraw,
			Thread:    t.id,
			Viewport:  n,
			TimeNanos: cmd.timeNanos,
		})
	}

	t.win.SwapBuffers()
	t.eng.observe(trace.Record{
		Frame:     cmd.frame,
		Stage:     trace.StageSwap,
		Thread:    t.id,
		Viewport:  trace.NoViewport,
		TimeNanos: cmd.timeNanos,
	})
	return nil
}

// cleanup releases per-thread resources while the context is still current,
// then releases the context.
func (t *renderThread) cleanup() {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("render thread cleanup panicked", "thread", t.id, "panic", p)
		}
	}()

	t.eng.resources.Release(t.id)
	if t.current {
		t.win.ReleaseContext()
		t.current = false
	}
	if t.held {
		t.guard.release(t.id)
		t.held = false
	}
	t.eng.observe(trace.Record{
		Frame:    t.eng.clock.Current(),
		Stage:    trace.StageRelease,
		Thread:   t.id,
		Viewport: trace.NoViewport,
	})
	slog.Debug("render thread stopped", "thread", t.id)
}

func (t *renderThread) recoverInto(err *error, frame int64, stage string) {
	if p := recover(); p != nil {
		slog.Error("render thread panicked", "thread", t.id, "frame", frame, "stage", stage, "panic", p)
		*err = NewPanicError(t.id, frame, stage, p)
	}
}
