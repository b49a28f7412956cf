package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/mvr/internal/trace"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded engine execution.
type Run struct {
	ID         string
	Seq        int64
	ConfigPath string
	Backend    string
	Status     string
	Frames     int64
	Digest     string
	Error      string
	StartedAt  time.Time
}

// BeginRun inserts run with status "running" and the next run seq.
// An empty ID is filled from the store's IDGenerator. Returns the stored run.
func (s *Store) BeginRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = StatusRunning

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("begin run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, config_path, backend, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.ConfigPath,
		run.Backend,
		run.Status,
		run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("begin run: commit: %w", err)
	}
	return run, nil
}

// AppendRecords stores records for runID in one transaction. Records that
// already exist (same run and seq) are silently ignored.
func (s *Store) AppendRecords(ctx context.Context, runID string, records []trace.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append records: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO frame_records
		(run_id, seq, frame, stage, thread, viewport, events, time_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("append records: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		events, err := marshalEvents(r.Events)
		if err != nil {
			return fmt.Errorf("append records: seq %d: %w", r.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, r.Seq, r.Frame, string(r.Stage), r.Thread, r.Viewport, events, r.TimeNanos,
		); err != nil {
			return fmt.Errorf("append records: seq %d: %w", r.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append records: commit: %w", err)
	}
	return nil
}

// FinishRun records the outcome of runID. runErr nil marks it completed.
func (s *Store) FinishRun(ctx context.Context, runID string, frames int64, digest string, runErr error) error {
	status, msg := StatusCompleted, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, frames = ?, digest = ?, error = ?
		WHERE id = ?
	`, status, frames, digest, msg, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// SaveRun writes a finished run with its full trace.
func (s *Store) SaveRun(ctx context.Context, run Run, records []trace.Record, runErr error) (Run, error) {
	stored, err := s.BeginRun(ctx, run)
	if err != nil {
		return Run{}, err
	}
	if err := s.AppendRecords(ctx, stored.ID, records); err != nil {
		return Run{}, err
	}
	digest, err := trace.Digest(records)
	if err != nil {
		return Run{}, err
	}
	frames := int64(len(trace.Frames(records)))
	if err := s.FinishRun(ctx, stored.ID, frames, digest, runErr); err != nil {
		return Run{}, err
	}
	return s.ReadRun(ctx, stored.ID)
}
