package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mvr/internal/store"
	"github.com/roach88/mvr/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // empty selects the latest run
	List     bool
	Frame    int64 // negative shows every frame
}

// RunInfo describes a stored run.
type RunInfo struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	ConfigPath string    `json:"config_path"`
	Backend    string    `json:"backend"`
	Status     string    `json:"status"`
	Frames     int64     `json:"frames"`
	Digest     string    `json:"digest"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

func newRunInfo(r store.Run) RunInfo {
	return RunInfo{
		ID:         r.ID,
		Seq:        r.Seq,
		ConfigPath: r.ConfigPath,
		Backend:    r.Backend,
		Status:     r.Status,
		Frames:     r.Frames,
		Digest:     r.Digest,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
	}
}

// TraceRecord is one record of the timeline.
type TraceRecord struct {
	Seq       int64    `json:"seq"`
	Frame     int64    `json:"frame"`
	Stage     string   `json:"stage"`
	Thread    int      `json:"thread"`
	Viewport  int      `json:"viewport"`
	Events    []string `json:"events,omitempty"`
	TimeNanos int64    `json:"time_ns"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Records   int    `json:"records"`
	Frames    int    `json:"frames"`
	Draws     int    `json:"draws"`
	Swaps     int    `json:"swaps"`
	Events    int    `json:"events"`
	Checked   bool   `json:"checked"` // ordering is only checked on whole runs
	Ordered   bool   `json:"ordered"`
	Violation string `json:"violation,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Run      RunInfo       `json:"run"`
	Timeline []TraceRecord `json:"timeline"`
	Stats    TraceStats    `json:"stats"`
}

func (r TraceResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (#%d) %s on %s: %s\n", r.Run.ID, r.Run.Seq, r.Run.ConfigPath, r.Run.Backend, r.Run.Status)
	if r.Run.Error != "" {
		fmt.Fprintf(&b, "  error: %s\n", r.Run.Error)
	}
	fmt.Fprintln(&b)
	for _, rec := range r.Timeline {
		fmt.Fprintf(&b, "  %s\n", toRecord(rec).String())
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "%d records, %d frames, %d draws, %d swaps, %d events\n",
		r.Stats.Records, r.Stats.Frames, r.Stats.Draws, r.Stats.Swaps, r.Stats.Events)
	switch {
	case !r.Stats.Checked:
	case r.Stats.Ordered:
		fmt.Fprintln(&b, "✓ frame ordering holds")
	default:
		fmt.Fprintf(&b, "✗ %s\n", r.Stats.Violation)
	}
	return b.String()
}

// RunList is the output of trace --list.
type RunList struct {
	Runs []RunInfo `json:"runs"`
}

func (l RunList) Text() string {
	if len(l.Runs) == 0 {
		return "No runs recorded.\n"
	}
	var b strings.Builder
	for _, r := range l.Runs {
		fmt.Fprintf(&b, "%3d  %s  %-9s  %5d frames  %s  %s\n",
			r.Seq, r.ID, r.Status, r.Frames, r.Backend, r.ConfigPath)
	}
	return b.String()
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with mvr run --db.

Shows the frame timeline of a run: context initialization, one
pre-draw per frame, every draw, the swaps and shutdown. The ordering
properties of the frame barrier are re-checked on the stored trace.

Examples:
  mvr trace --db ./runs.db --list
  mvr trace --db ./runs.db
  mvr trace --db ./runs.db --run <id> --frame 3
  mvr trace --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id (default: latest run)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list recorded runs")
	cmd.Flags().Int64Var(&opts.Frame, "frame", -1, "show only this frame")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.List {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeStore, "failed to list runs", err)
		}
		list := RunList{Runs: make([]RunInfo, 0, len(runs))}
		for _, r := range runs {
			list.Runs = append(list.Runs, newRunInfo(r))
		}
		return formatter.Success(list)
	}

	run, err := selectRun(cmd, st, opts.RunID)
	if err != nil {
		return formatter.Fail(notFoundExit(err), notFoundCode(err), "failed to find run", err)
	}

	var records []trace.Record
	if opts.Frame >= 0 {
		records, err = st.ReadFrame(ctx, run.ID, opts.Frame)
	} else {
		records, err = st.ReadRecords(ctx, run.ID)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeStore, "failed to read trace", err)
	}

	return formatter.Success(buildTraceResult(run, records, opts.Frame < 0))
}

func buildTraceResult(run store.Run, records []trace.Record, check bool) TraceResult {
	result := TraceResult{
		Run:      newRunInfo(run),
		Timeline: make([]TraceRecord, 0, len(records)),
		Stats: TraceStats{
			Records: len(records),
			Frames:  len(trace.Frames(records)),
			Draws:   len(trace.Filter(records, trace.StageDraw)),
			Swaps:   len(trace.Filter(records, trace.StageSwap)),
			Checked: check,
			Ordered: true,
		},
	}
	for _, r := range records {
		result.Timeline = append(result.Timeline, TraceRecord{
			Seq:       r.Seq,
			Frame:     r.Frame,
			Stage:     string(r.Stage),
			Thread:    r.Thread,
			Viewport:  r.Viewport,
			Events:    r.Events,
			TimeNanos: r.TimeNanos,
		})
		result.Stats.Events += len(r.Events)
	}
	if !check {
		return result
	}
	if err := trace.CheckAll(records); err != nil {
		result.Stats.Ordered = false
		result.Stats.Violation = err.Error()
	}
	return result
}

func toRecord(r TraceRecord) trace.Record {
	return trace.Record{
		Seq:       r.Seq,
		Frame:     r.Frame,
		Stage:     trace.Stage(r.Stage),
		Thread:    r.Thread,
		Viewport:  r.Viewport,
		Events:    r.Events,
		TimeNanos: r.TimeNanos,
	}
}

// selectRun reads runID, or the latest run when runID is empty.
func selectRun(cmd *cobra.Command, st *store.Store, runID string) (store.Run, error) {
	if runID == "" {
		return st.LatestRun(cmd.Context())
	}
	return st.ReadRun(cmd.Context(), runID)
}

func notFoundExit(err error) int {
	if errors.Is(err, store.ErrRunNotFound) {
		return ExitCommandError
	}
	return ExitFailure
}

func notFoundCode(err error) string {
	if errors.Is(err, store.ErrRunNotFound) {
		return ErrCodeNotFound
	}
	return ErrCodeStore
}

// openExistingStore opens path, refusing to create a new database.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path), err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
