package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/mvr/internal/config"
	"github.com/roach88/mvr/internal/demo"
	"github.com/roach88/mvr/internal/engine"
	"github.com/roach88/mvr/internal/loader"
	"github.com/roach88/mvr/internal/store"
	"github.com/roach88/mvr/internal/trace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Backend  string
	Frames   int64
	Database string

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, the store's UUIDv7 generator is used.
	RunIDs store.IDGenerator
}

// RunSummary is the result of a finished run.
type RunSummary struct {
	Config  string `json:"config"`
	Backend string `json:"backend"`
	Frames  int64  `json:"frames"`
	Events  int64  `json:"events"`
	RunID   string `json:"run_id,omitempty"`
	Digest  string `json:"digest,omitempty"`
}

func (s RunSummary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ran %s on %s: %d frames, %d events\n", s.Config, s.Backend, s.Frames, s.Events)
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run %s stored (digest %s)\n", s.RunID, s.Digest)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Run the engine with a configuration",
		Long: `Run the engine with the demo application.

Windows, cameras and input devices come from the configuration file
(YAML or TOML). The loop stops when the shutdown policy fires, after
--frames frames, or on Ctrl-C.

With --db the run and its trace are stored in a SQLite database for
mvr trace and mvr replay.

Examples:
  mvr run ./desk.yaml --backend glfw
  mvr run ./desk.yaml --frames 120 --db ./runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", HeadlessBackend, "window backend")
	cmd.Flags().Int64Var(&opts.Frames, "frames", 0, "stop after this many frames (0 = policy only)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for recording the run")

	return cmd
}

func runEngine(opts *RunOptions, configPath string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	if !slices.Contains(BackendNames(), opts.Backend) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown backend %q: must be one of %v", opts.Backend, BackendNames()))
	}
	if opts.Frames < 0 {
		return NewExitError(ExitCommandError, "--frames must not be negative")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	backend, err := OpenBackend(opts.Backend)
	if err != nil {
		return out.Fail(ExitFailure, ErrCodeBackend, "failed to open backend", err)
	}
	defer backend.close()

	rec := trace.NewRecorder()
	buildOpts := loader.Options{
		MaxFrames:     opts.Frames,
		EngineOptions: []engine.EngineOption{engine.WithObserver(trace.Tee(rec, trace.Log))},
	}
	if backend.Policy != nil && cfg.Engine.Shutdown == "" {
		buildOpts.Policy = engine.AnyOf(backend.Policy, loader.Policy(cfg.Engine))
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	loaded, err := loader.Build(ctx, cfg, backend.Factory, buildOpts)
	if err != nil {
		return out.Fail(ExitFailure, ErrCodeConfig, "failed to build engine", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	app := demo.New()
	runErr := loaded.Engine.Run(ctx, app)
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		slog.Info("engine interrupted", "frame", loaded.Engine.Clock().Current())
		runErr = nil
	}

	summary := RunSummary{
		Config:  configPath,
		Backend: opts.Backend,
		Frames:  loaded.Engine.Clock().Current(),
		Events:  app.Events(),
	}

	if opts.Database != "" {
		// The run context may already be cancelled; the trace is stored regardless.
		run, err := recordRun(context.Background(), opts, cfg.Path, rec.Records(), runErr)
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeStore, "failed to record run", err)
		}
		summary.RunID = run.ID
		summary.Digest = run.Digest
	}

	if runErr != nil {
		return out.Fail(ExitFailure, ErrCodeEngine, "engine error", runErr)
	}

	slog.Info("engine stopped", "frames", summary.Frames)
	return out.Success(summary)
}

// loadConfig loads a configuration and maps load failures to exit codes:
// unreadable files are command errors, invalid contents are failures.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	var le *config.LoadError
	if errors.As(err, &le) && le.Code != config.LoadErrorRead && le.Code != config.LoadErrorUnknownFormat {
		return nil, WrapExitError(ExitFailure, "invalid config", err)
	}
	return nil, WrapExitError(ExitCommandError, "failed to load config", err)
}

// recordRun stores the normalized trace of a finished run.
func recordRun(ctx context.Context, opts *RunOptions, configPath string, records []trace.Record, runErr error) (store.Run, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return store.Run{}, err
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return store.Run{}, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	if opts.RunIDs != nil {
		st.SetIDGenerator(opts.RunIDs)
	}

	return st.SaveRun(ctx, store.Run{ConfigPath: abs, Backend: opts.Backend}, trace.Normalize(records), runErr)
}
