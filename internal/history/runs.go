package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vidsub/internal/batch"
	"vidsub/internal/services"
)

// ErrRunNotFound reports an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored batch run.
type Run struct {
	ID         string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Partial    int
	Skipped    int
	Failed     int
}

// Finished reports whether the run recorded its end.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// FileRecord is a stored per-file result.
type FileRecord struct {
	RunID            string
	Path             string
	State            string
	DetectedLanguage string
	Artifacts        []string
	Reason           string
	ErrorClass       string
	Duration         time.Duration
	RecordedAt       time.Time
}

// BeginRun inserts a run row for summary.
func (s *Store) BeginRun(ctx context.Context, summary batch.Summary) error {
	if summary.RunID == "" {
		return errors.New("begin run: run id required")
	}
	started := summary.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	err := s.exec(ctx,
		`INSERT INTO runs (id, root, started_at, total) VALUES (?, ?, ?, ?)`,
		summary.RunID, summary.Root, formatTime(started), summary.Total,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// Record stores one file result under runID.
func (s *Store) Record(ctx context.Context, runID string, result batch.Result) error {
	state := string(result.Status)
	artifacts := result.Outcome.WrittenPaths()
	err := s.exec(ctx,
		`INSERT INTO files (run_id, path, state, detected_language, artifacts, reason, error_class, duration_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		result.Path,
		state,
		nullableString(result.Outcome.DetectedLanguage),
		nullableString(strings.Join(artifacts, "\n")),
		nullableString(result.Reason),
		nullableString(services.Classify(result.Outcome.Err)),
		result.Outcome.Duration.Milliseconds(),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("record file: %w", err)
	}
	return nil
}

// FinishRun stores the final counters for summary.
func (s *Store) FinishRun(ctx context.Context, summary batch.Summary) error {
	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	err := s.exec(ctx,
		`UPDATE runs SET finished_at = ?, total = ?, succeeded = ?, partial = ?, skipped = ?, failed = ? WHERE id = ?`,
		formatTime(finished), summary.Total, summary.Succeeded, summary.Partial, summary.Skipped, summary.Failed, summary.RunID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

const runColumns = `id, root, started_at, finished_at, total, succeeded, partial, skipped, failed`

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run               Run
		started, finished sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.Root, &started, &finished,
		&run.Total, &run.Succeeded, &run.Partial, &run.Skipped, &run.Failed); err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return run, nil
}

// RecentRuns returns up to limit runs, newest first. A non-positive limit returns all runs.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RunFiles returns the file results recorded for runID in recording order.
func (s *Store) RunFiles(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, path, state, detected_language, artifacts, reason, error_class, duration_ms, recorded_at
		 FROM files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var (
			rec                                     FileRecord
			detected, artifacts, reason, errorClass sql.NullString
			recorded                                sql.NullString
			durationMS                              int64
		)
		if err := rows.Scan(&rec.RunID, &rec.Path, &rec.State, &detected, &artifacts, &reason, &errorClass, &durationMS, &recorded); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		rec.DetectedLanguage = detected.String
		if artifacts.String != "" {
			rec.Artifacts = strings.Split(artifacts.String, "\n")
		}
		rec.Reason = reason.String
		rec.ErrorClass = errorClass.String
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.RecordedAt = parseTime(recorded)
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ batch.Recorder = (*Store)(nil)
