package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mvr/internal/config"
	"github.com/roach88/mvr/internal/demo"
	"github.com/roach88/mvr/internal/engine"
	"github.com/roach88/mvr/internal/loader"
	"github.com/roach88/mvr/internal/store"
	"github.com/roach88/mvr/internal/trace"
	"github.com/roach88/mvr/internal/window/headless"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Frames        int64  `json:"frames"`
	Expected      string `json:"expected_digest"`
	Actual        string `json:"actual_digest,omitempty"`
	Deterministic bool   `json:"deterministic"`
	Skipped       string `json:"skipped,omitempty"` // reason the run was not replayed
	FirstDiff     string `json:"first_diff,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	Replayed         int               `json:"replayed"`
	AllDeterministic bool              `json:"all_deterministic"`
}

func (r ReplayResult) Text() string {
	var b strings.Builder
	for _, run := range r.Runs {
		switch {
		case run.Skipped != "":
			fmt.Fprintf(&b, "- %s skipped: %s\n", run.RunID, run.Skipped)
		case run.Deterministic:
			fmt.Fprintf(&b, "✓ %s: %d frames, digest %s\n", run.RunID, run.Frames, shortDigest(run.Actual))
		default:
			fmt.Fprintf(&b, "✗ %s: digest %s, want %s\n", run.RunID, shortDigest(run.Actual), shortDigest(run.Expected))
			if run.FirstDiff != "" {
				fmt.Fprintf(&b, "  first difference: %s\n", run.FirstDiff)
			}
		}
	}
	fmt.Fprintf(&b, "\n%d run(s) replayed", r.Replayed)
	if r.AllDeterministic {
		fmt.Fprint(&b, ", all deterministic")
	}
	fmt.Fprintln(&b)
	return b.String()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run recorded runs and verify determinism",
		Long: `Re-run recorded headless runs and verify that they are deterministic.

Each run is executed again from its configuration for the same number
of frames, and the digest of the new trace is compared with the stored
digest. Runs recorded on a GUI backend are skipped: their input came
from a person.

Exit codes:
  0 - All replayed runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  mvr replay --db ./runs.db
  mvr replay --db ./runs.db --run <id>
  mvr replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			return formatter.Fail(notFoundExit(err), notFoundCode(err), "failed to find run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeStore, "failed to list runs", err)
		}
	}

	result := ReplayResult{Runs: make([]ReplayRunResult, 0, len(runs)), AllDeterministic: true}
	for _, run := range runs {
		formatter.VerboseLog("Replaying run %s (%d frames)", run.ID, run.Frames)
		rr, err := replayRun(ctx, st, run)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeEngine, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		if rr.Skipped == "" {
			result.Replayed++
			if !rr.Deterministic {
				result.AllDeterministic = false
			}
		}
		result.Runs = append(result.Runs, rr)
	}

	if result.AllDeterministic {
		return formatter.Success(result)
	}

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeNondetermism, Message: "replay produced a different trace"},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprint(formatter.Writer, result.Text())
	}
	return NewExitError(ExitFailure, "determinism verification failed")
}

// replayRun re-executes run on the headless backend and compares digests.
func replayRun(ctx context.Context, st *store.Store, run store.Run) (ReplayRunResult, error) {
	rr := ReplayRunResult{RunID: run.ID, Frames: run.Frames, Expected: run.Digest}
	switch {
	case run.Backend != HeadlessBackend:
		rr.Skipped = fmt.Sprintf("recorded on %s", run.Backend)
		return rr, nil
	case run.Status == store.StatusRunning:
		rr.Skipped = "run did not finish"
		return rr, nil
	case run.Frames == 0:
		rr.Skipped = "no frames recorded"
		return rr, nil
	}

	replayed, err := rerun(ctx, run)
	if err != nil {
		return rr, err
	}
	rr.Actual, err = trace.Digest(replayed)
	if err != nil {
		return rr, err
	}
	rr.Deterministic = rr.Actual == rr.Expected
	if rr.Deterministic {
		return rr, nil
	}

	stored, err := st.ReadRecords(ctx, run.ID)
	if err != nil {
		return rr, err
	}
	rr.FirstDiff = firstDiff(stored, replayed)
	return rr, nil
}

// rerun runs the configuration of run again and returns its normalized
// trace. Engine errors are part of the trace being compared, not failures.
func rerun(ctx context.Context, run store.Run) ([]trace.Record, error) {
	cfg, err := config.Load(run.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	rec := trace.NewRecorder()
	loaded, err := loader.Build(ctx, cfg, headless.NewFactory(), loader.Options{
		MaxFrames:     run.Frames,
		EngineOptions: []engine.EngineOption{engine.WithObserver(rec)},
	})
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	if err := loaded.Engine.Run(ctx, demo.New()); err != nil && !errors.Is(err, context.Canceled) {
		if run.Status != store.StatusFailed {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}
	return trace.Normalize(rec.Records()), nil
}

// firstDiff describes the first record that differs between want and got.
func firstDiff(want, got []trace.Record) string {
	for i := 0; i < len(want) && i < len(got); i++ {
		w, _ := trace.MarshalCanonical(want[i].Object())
		g, _ := trace.MarshalCanonical(got[i].Object())
		if !bytes.Equal(w, g) {
			return fmt.Sprintf("stored %s, replayed %s", want[i], got[i])
		}
	}
	switch {
	case len(want) > len(got):
		return fmt.Sprintf("replay ended before stored %s", want[len(got)])
	case len(got) > len(want):
		return fmt.Sprintf("replay continued with %s", got[len(want)])
	}
	return ""
}
