package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/mvr/internal/config"
	"github.com/roach88/mvr/internal/demo"
	"github.com/roach88/mvr/internal/engine"
	"github.com/roach88/mvr/internal/input"
	"github.com/roach88/mvr/internal/loader"
	"github.com/roach88/mvr/internal/store"
	"github.com/roach88/mvr/internal/testutil"
	"github.com/roach88/mvr/internal/trace"
	"github.com/roach88/mvr/internal/window/headless"
)

// ScriptDeviceName is the source name of scenario input events.
const ScriptDeviceName = "scenario"

// Backend is the backend name stored with harness runs.
const Backend = "headless"

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh engine on the headless backend and stores
// its trace in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the configuration and build the engine
// 2. Run the engine for the scenario's frames with scripted input
// 3. Normalize the trace, store it and read it back
// 4. Evaluate assertions
//
// Engine failures are reported in the result; the returned error is for
// scenarios that cannot be run at all.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := config.Load(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	rec := trace.NewRecorder()
	opts := loader.Options{
		MaxFrames:     scenario.Frames,
		EngineOptions: []engine.EngineOption{engine.WithObserver(rec)},
	}
	if len(scenario.Input) > 0 {
		script := &input.Script{Frames: scenario.Input}
		opts.Devices = append(opts.Devices, input.NewScriptDevice(ScriptDeviceName, script))
	}

	loaded, err := loader.Build(ctx, cfg, headless.NewFactory(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	result := NewResult(scenario.Name)
	if runErr := loaded.Engine.Run(ctx, newApp(scenario.App)); runErr != nil {
		result.AddError(fmt.Sprintf("engine: %v", runErr))
	}
	result.Frames = loaded.Engine.Clock().Current()
	result.observed = rec.Records()

	stored, digest, err := persist(ctx, scenario, trace.Normalize(result.observed))
	if err != nil {
		return nil, err
	}
	result.Trace = stored
	result.Digest = digest

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	slog.Debug("scenario finished",
		"scenario", scenario.Name,
		"frames", result.Frames,
		"pass", result.Pass,
	)
	return result, nil
}

// persist writes the normalized trace to an in-memory store and reads it
// back, so the harness sees exactly what mvr trace would show.
func persist(ctx context.Context, scenario *Scenario, records []trace.Record) ([]trace.Record, string, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	st.SetIDGenerator(store.NewFixedGenerator("scenario-" + scenario.Name))

	run, err := st.SaveRun(ctx, store.Run{ConfigPath: scenario.Config, Backend: Backend}, records, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store trace: %w", err)
	}
	stored, err := st.ReadRecords(ctx, run.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read trace: %w", err)
	}
	return stored, run.Digest, nil
}

func newApp(name string) engine.App {
	if name == AppDemo {
		return demo.New()
	}
	return testutil.NewRecordingApp()
}
