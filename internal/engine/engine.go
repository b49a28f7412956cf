package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/mvr/internal/camera"
	"github.com/roach88/mvr/internal/event"
	"github.com/roach88/mvr/internal/input"
	"github.com/roach88/mvr/internal/trace"
	"github.com/roach88/mvr/internal/window"
)

// ErrAlreadyRunning is returned when Run or AddWindow is called on an engine
// that has already started.
var ErrAlreadyRunning = errors.New("engine already started")

// Engine owns the windows, their render threads and the frame clock, and
// drives the poll, pre-draw, draw, swap cycle.
//
// Thread-safety model:
//   - AddWindow, AddInputDevice: before Run, from one goroutine
//   - Run: the control goroutine; for GLFW this must be the main OS thread
//   - Inject: safe from any goroutine
//   - Clock, Resources: safe from any goroutine
//
// INVARIANTS:
//   - the clock only advances on the control goroutine
//   - no render thread draws frame f before pre-draw of f returns
//   - every render thread swaps frame f before pre-draw of f+1 starts
//   - a window's context is current on at most one thread
type Engine struct {
	factory   window.Factory
	clock     *Clock
	policy    ShutdownPolicy
	observers []trace.Observer
	observer  trace.Observer
	headEvent string
	tick      time.Duration

	specs   []windowSpec
	devices []input.Device
	windows []window.Window

	inbox      *inbox
	aggregator *input.Aggregator
	resources  *ResourceTable
	started    atomic.Bool
}

type windowSpec struct {
	settings window.Settings
	cameras  []camera.Camera
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithShutdownPolicy sets when the frame loop stops.
//
// Default: AllWindowsClosed()
func WithShutdownPolicy(p ShutdownPolicy) EngineOption {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithTickLength sets the synchronized time advanced per frame.
//
// Default: DefaultTickLength (1/60 s)
func WithTickLength(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.tick = d
	}
}

// WithObserver adds a trace observer. Observers are called concurrently
// from the control goroutine and every render thread.
func WithObserver(o trace.Observer) EngineOption {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// WithHeadTrackingEvent routes the last matrix event named name in each
// frame to UpdateHeadTrackingForAllViewports of every window, before
// pre-draw.
func WithHeadTrackingEvent(name string) EngineOption {
	return func(e *Engine) {
		e.headEvent = name
	}
}

// New creates an Engine that creates its windows with factory.
func New(factory window.Factory, opts ...EngineOption) *Engine {
	e := &Engine{
		factory:    factory,
		policy:     AllWindowsClosed(),
		inbox:      newInbox(),
		aggregator: input.NewAggregator(),
		resources:  NewResourceTable(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.clock = NewClock(e.tick)
	switch len(e.observers) {
	case 0:
		e.observer = trace.Discard
	case 1:
		e.observer = e.observers[0]
	default:
		e.observer = trace.Tee(e.observers...)
	}
	return e
}

// AddWindow registers a window to create when Run starts. A nil cameras
// slice uses window.DefaultCameras. The number of cameras must equal the
// number of viewports settings resolves to.
func (e *Engine) AddWindow(settings window.Settings, cameras []camera.Camera) error {
	if e.started.Load() {
		return ErrAlreadyRunning
	}
	if cameras == nil {
		cameras = window.DefaultCameras(settings)
	}
	if n := len(settings.ResolvedViewports()); len(cameras) != n {
		return NewCameraMismatchError(settings.Title, len(cameras), n)
	}
	e.specs = append(e.specs, windowSpec{
		settings: settings.Clone(),
		cameras:  append([]camera.Camera(nil), cameras...),
	})
	return nil
}

// AddInputDevice registers a device. Devices are polled in registration
// order, before windows. Devices implementing input.Closer are closed when
// Run returns.
func (e *Engine) AddInputDevice(d input.Device) {
	e.devices = append(e.devices, d)
}

// Inject submits an event for the next frame. Injected events are
// aggregated after every device and window.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has stopped.
func (e *Engine) Inject(ev event.Event) bool {
	return e.inbox.Enqueue(ev)
}

// Clock returns the frame clock.
func (e *Engine) Clock() *Clock { return e.clock }

// Resources returns the per-thread resource table.
func (e *Engine) Resources() *ResourceTable { return e.resources }

// Windows returns the created windows in registration order. Empty until
// Run has created them.
func (e *Engine) Windows() []window.Window {
	return append([]window.Window(nil), e.windows...)
}

// Run creates the windows, starts one render thread per window and runs
// frames until the shutdown policy stops or ctx is cancelled.
//
// Run returns nil when the policy stops the loop and ctx.Err() when ctx is
// cancelled. A panic on any thread stops the loop; Run joins every render
// thread, destroys the windows and returns a *RuntimeError.
//
// Run must be called from the control goroutine and at most once.
func (e *Engine) Run(ctx context.Context, app App) (err error) {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if err := e.createWindows(); err != nil {
		e.inbox.Close()
		e.closeDevices()
		return err
	}

	slog.Info("engine starting",
		"windows", len(e.windows),
		"devices", len(e.devices),
		"tick", e.clock.Tick(),
	)

	replies := make(chan threadReply, len(e.windows))
	threads := make([]*renderThread, len(e.windows))
	guards := make(map[window.Window]*contextGuard, len(e.windows))
	var g errgroup.Group
	for i, w := range e.windows {
		if guards[w] == nil {
			guards[w] = &contextGuard{}
		}
		threads[i] = newRenderThread(i, w, guards[w], e, app, replies)
		g.Go(threads[i].run)
	}

	defer func() {
		if p := recover(); p != nil {
			err = NewPanicError(trace.ControlThread, e.clock.Current(), "frame loop", p)
		}
		err = e.shutdown(&g, threads, err)
	}()

	// Every context is initialized before PostInitialization.
	if err := await(replies, len(threads)); err != nil {
		return err
	}
	if err := e.protect(0, "PostInitialization", app.PostInitialization); err != nil {
		return err
	}
	e.observe(trace.Record{Frame: 0, Stage: trace.StagePostInit, Thread: trace.ControlThread, Viewport: trace.NoViewport})

	for {
		if err := e.step(ctx, app, threads, replies); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
}

// errStop ends the loop without error.
var errStop = errors.New("stop")

// step runs one frame on the control goroutine.
func (e *Engine) step(ctx context.Context, app App, threads []*renderThread, replies <-chan threadReply) error {
	completed := e.clock.Current()
	frame := completed + 1

	events := e.aggregator.Collect(frame, e.sources())

	if e.policy.ShouldStop(FrameState{Frame: completed, Events: events, Windows: e.windows}) {
		slog.Info("shutdown policy satisfied", "frames", completed)
		return errStop
	}
	if err := ctx.Err(); err != nil {
		slog.Info("engine stopping: context cancelled", "frames", completed)
		return err
	}

	e.clock.Next()
	e.applyHeadTracking(events)

	now := e.clock.Elapsed()
	err := e.protect(frame, "DoUserInputAndPreDrawComputation", func() {
		app.DoUserInputAndPreDrawComputation(events, now.Seconds())
	})
	if err != nil {
		return err
	}
	e.observe(trace.Record{
		Frame:     frame,
		Stage:     trace.StagePreDraw,
		Thread:    trace.ControlThread,
		Viewport:  trace.NoViewport,
		Events:    event.Names(events),
		TimeNanos: now.Nanoseconds(),
	})

	// Sending the command is the pre-draw -> draw edge; the replies are the
	// swap -> next pre-draw edge.
	cmd := frameCommand{frame: frame, timeNanos: now.Nanoseconds()}
	for _, t := range threads {
		t.frames <- cmd
	}
	return await(replies, len(threads))
}

// sources lists devices, then windows, then the inbox.
func (e *Engine) sources() []input.Device {
	sources := make([]input.Device, 0, len(e.devices)+len(e.windows)+1)
	sources = append(sources, e.devices...)
	for _, w := range e.windows {
		sources = append(sources, w)
	}
	return append(sources, e.inbox)
}

func (e *Engine) applyHeadTracking(events []event.Event) {
	if e.headEvent == "" {
		return
	}
	ev, ok := event.Latest(events, e.headEvent)
	if !ok {
		return
	}
	m, ok := ev.Mat4()
	if !ok {
		slog.Debug("head tracking event without matrix payload", "event", e.headEvent, "kind", ev.Kind())
		return
	}
	for _, w := range e.windows {
		w.UpdateHeadTrackingForAllViewports(m)
	}
}

// protect runs a control-thread callback, turning a panic into an error.
func (e *Engine) protect(frame int64, stage string, fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = NewPanicError(trace.ControlThread, frame, stage, p)
		}
	}()
	fn()
	return nil
}

func (e *Engine) observe(r trace.Record) {
	e.observer.Observe(r)
}

func (e *Engine) createWindows() error {
	for i, spec := range e.specs {
		w, err := e.factory.CreateWindow(spec.settings, spec.cameras)
		if err != nil {
			for _, created := range e.windows {
				created.Destroy()
			}
			e.windows = nil
			return NewWindowCreateError(i, spec.settings.Title, err)
		}
		e.windows = append(e.windows, w)
	}
	return nil
}

// shutdown stops every render thread, joins them, then destroys windows.
// runErr takes precedence over errors reported by the threads.
func (e *Engine) shutdown(g *errgroup.Group, threads []*renderThread, runErr error) error {
	for _, t := range threads {
		close(t.frames)
	}
	waitErr := g.Wait()

	for _, w := range e.windows {
		w.Destroy()
	}
	e.inbox.Close()
	e.closeDevices()

	frames := e.clock.Current()
	e.observe(trace.Record{Frame: frames, Stage: trace.StageShutdown, Thread: trace.ControlThread, Viewport: trace.NoViewport})

	if runErr == nil {
		runErr = waitErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		slog.Error("engine stopped", "frames", frames, "error", runErr)
	} else {
		slog.Info("engine stopped", "frames", frames)
	}
	return runErr
}

func (e *Engine) closeDevices() {
	for i, d := range e.devices {
		c, ok := d.(input.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			slog.Warn("input device close failed", "device", i, "error", err)
		}
	}
}

// await collects one reply per render thread and returns the first error.
// It always drains all n replies so no thread is left mid-frame.
func await(replies <-chan threadReply, n int) error {
	var first error
	for i := 0; i < n; i++ {
		r := <-replies
		if r.err != nil && first == nil {
			first = r.err
		}
	}
	return first
}
