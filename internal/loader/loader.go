// Package loader turns a loaded configuration into a ready-to-run engine.
//
// It is shared by the run and test commands and by the conformance
// harness, so every entry point builds windows, cameras, devices and the
// shutdown policy the same way.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/mvr/internal/config"
	"github.com/roach88/mvr/internal/datafile"
	"github.com/roach88/mvr/internal/engine"
	"github.com/roach88/mvr/internal/input"
	"github.com/roach88/mvr/internal/window"
)

// Options override parts of the configuration.
type Options struct {
	// Resolver is used for device files. Nil builds one from the config's
	// data_paths followed by the config file's directory.
	Resolver *datafile.Resolver

	// Policy replaces the policy derived from the engine section.
	Policy engine.ShutdownPolicy

	// MaxFrames, when positive, stops the loop after that many frames in
	// addition to the configured policy.
	MaxFrames int64

	// Devices are registered after the configured devices.
	Devices []input.Device

	// EngineOptions are applied after the options derived from config.
	EngineOptions []engine.EngineOption
}

// Loaded is the result of Build.
type Loaded struct {
	Engine   *engine.Engine
	Resolver *datafile.Resolver
	// Devices are the configured devices in registration order. Disabled
	// devices appear as input.Null.
	Devices []input.Device
}

// Settings keys read by Build. InitialHeadFrame is a row-major 4x4 matrix;
// InitialHeadPosition is a translation used when no frame is given. Either
// one is applied to every camera before the first head tracking event.
const (
	KeyInitialHeadFrame    = "InitialHeadFrame"
	KeyInitialHeadPosition = "InitialHeadPosition"
)

// NewResolver builds the data file resolver for cfg.
func NewResolver(cfg *config.Config) *datafile.Resolver {
	r := datafile.New(cfg.DataPaths...)
	if cfg.Path != "" {
		r.AddSearchPath(filepath.Dir(cfg.Path))
	}
	return r
}

// Policy derives the shutdown policy from the engine section.
//
//	shutdown: any_window_closed | all_windows_closed (default)
//	quit_event: stop when this event arrives
//	max_frames: stop after this many frames
func Policy(e config.EngineConfig) engine.ShutdownPolicy {
	policies := []engine.ShutdownPolicy{engine.AllWindowsClosed()}
	if e.Shutdown == config.ShutdownAnyWindowClosed {
		policies[0] = engine.AnyWindowClosed()
	}
	if e.QuitEvent != "" {
		policies = append(policies, engine.OnEvent(e.QuitEvent))
	}
	if e.MaxFrames > 0 {
		policies = append(policies, engine.FrameLimit(e.MaxFrames))
	}
	if len(policies) == 1 {
		return policies[0]
	}
	return engine.AnyOf(policies...)
}

// InitialHeadFrame returns the configured starting head transform.
func InitialHeadFrame(m *config.Map) (mgl64.Mat4, bool) {
	if f, ok := m.Mat4(KeyInitialHeadFrame); ok {
		return f, true
	}
	if p, ok := m.Vec3(KeyInitialHeadPosition); ok {
		return mgl64.Translate3D(p[0], p[1], p[2]), true
	}
	return mgl64.Mat4{}, false
}

// Build creates the engine for cfg with windows from factory.
//
// Device problems are logged and leave an inert device; window and camera
// problems are returned.
func Build(ctx context.Context, cfg *config.Config, factory window.Factory, opts Options) (*Loaded, error) {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = NewResolver(cfg)
	}

	policy := opts.Policy
	if policy == nil {
		policy = Policy(cfg.Engine)
	}
	if opts.MaxFrames > 0 {
		policy = engine.AnyOf(policy, engine.FrameLimit(opts.MaxFrames))
	}

	engOpts := []engine.EngineOption{
		engine.WithShutdownPolicy(policy),
		engine.WithTickLength(cfg.Engine.TickLength()),
	}
	if cfg.Engine.HeadTrackingEvent != "" {
		engOpts = append(engOpts, engine.WithHeadTrackingEvent(cfg.Engine.HeadTrackingEvent))
	}
	engOpts = append(engOpts, opts.EngineOptions...)
	eng := engine.New(factory, engOpts...)

	m := cfg.Map()
	head, hasHead := InitialHeadFrame(m)
	for i, wc := range cfg.Windows {
		settings, err := wc.WindowSettings()
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		cams, err := wc.BuildCameras(settings)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		if hasHead {
			for _, c := range cams {
				c.UpdateHeadTrackingFrame(head)
			}
		}
		if err := eng.AddWindow(settings, cams); err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
	}

	loaded := &Loaded{Engine: eng, Resolver: resolver}
	for _, spec := range cfg.Devices {
		d := input.FromConfig(ctx, spec, m, resolver)
		eng.AddInputDevice(d)
		loaded.Devices = append(loaded.Devices, d)
	}
	for _, d := range opts.Devices {
		eng.AddInputDevice(d)
	}

	slog.Debug("engine configured",
		"config", cfg.Path,
		"windows", len(cfg.Windows),
		"devices", len(cfg.Devices)+len(opts.Devices),
	)
	return loaded, nil
}
