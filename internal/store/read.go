package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/mvr/internal/trace"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seq, config_path, backend, status, frames, digest, error, started_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r       Run
		started string
	)
	if err := row.Scan(&r.ID, &r.Seq, &r.ConfigPath, &r.Backend, &r.Status,
		&r.Frames, &r.Digest, &r.Error, &started); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: started_at: %w", r.ID, err)
	}
	r.StartedAt = t
	return r, nil
}

// ReadRun returns the run with the given id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return r, nil
}

// LatestRun returns the run with the highest seq.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq DESC LIMIT 1`)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// ListRuns returns every run ordered by seq.
//
// Returns an empty slice (not nil) when the store has no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
}

// FindIncompleteRuns returns runs still marked running, i.e. runs whose
// process died before FinishRun.
func (s *Store) FindIncompleteRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM runs WHERE status = ? ORDER BY seq ASC`, StatusRunning)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRecords returns all records of a run ordered by seq.
func (s *Store) ReadRecords(ctx context.Context, runID string) ([]trace.Record, error) {
	return s.queryRecords(ctx, `
		SELECT seq, frame, stage, thread, viewport, events, time_ns
		FROM frame_records
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// ReadFrame returns the records of one frame ordered by seq.
func (s *Store) ReadFrame(ctx context.Context, runID string, frame int64) ([]trace.Record, error) {
	return s.queryRecords(ctx, `
		SELECT seq, frame, stage, thread, viewport, events, time_ns
		FROM frame_records
		WHERE run_id = ? AND frame = ?
		ORDER BY seq ASC
	`, runID, frame)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]trace.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []trace.Record{}
	for rows.Next() {
		var (
			r      trace.Record
			stage  string
			events string
		)
		if err := rows.Scan(&r.Seq, &r.Frame, &stage, &r.Thread, &r.Viewport, &events, &r.TimeNanos); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Stage = trace.Stage(stage)
		if r.Events, err = unmarshalEvents(events); err != nil {
			return nil, fmt.Errorf("record %d: %w", r.Seq, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// LastSeq returns the highest record seq of a run, or 0 if it has none.
func (s *Store) LastSeq(ctx context.Context, runID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM frame_records WHERE run_id = ?`, runID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
