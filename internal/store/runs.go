package store

import (
	"database/sql"
	"time"
)

// StageRun records a single firing of a pipeline stage for auditing.
type StageRun struct {
	ID           int64
	Stage        string // "load", "clean", "aggregate", "export"
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	RowsIn       sql.NullInt64
	RowsOut      sql.NullInt64
	Status       string // "running" until completed, then "ok", "skipped" or "failed"
	ErrorMessage sql.NullString
}

// StartStageRun creates a new stage run record and returns it.
func (s *Store) StartStageRun(stage string) (*StageRun, error) {
	run := &StageRun{
		Stage:     stage,
		StartedAt: time.Now().UTC(),
		Status:    "running",
	}

	result, err := s.db.Exec(`
		INSERT INTO stage_runs (stage, started_at, status)
		VALUES (?, ?, 'running')
	`, run.Stage, run.StartedAt)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return run, nil
}

// CompleteStageRun updates the stage run with its outcome.
func (s *Store) CompleteStageRun(run *StageRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE stage_runs SET
			finished_at = ?,
			rows_in = ?,
			rows_out = ?,
			status = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.RowsIn, run.RowsOut, run.Status, run.ErrorMessage, run.ID)
	return err
}

// RunHealthSummary is a per-day, per-stage rollup of run outcomes.
type RunHealthSummary struct {
	Date        string
	Stage       string
	TotalRuns   int
	OKRuns      int
	SkippedRuns int
	FailedRuns  int
	TotalRows   int64
}

// GetRunHealth returns run health summaries for the last N days.
func (s *Store) GetRunHealth(days int) ([]RunHealthSummary, error) {
	rows, err := s.db.Query(`
		SELECT
			DATE(SUBSTR(started_at, 1, 19)) as date,
			stage,
			COUNT(*) as total_runs,
			SUM(CASE WHEN status = 'ok' THEN 1 ELSE 0 END) as ok_runs,
			SUM(CASE WHEN status = 'skipped' THEN 1 ELSE 0 END) as skipped_runs,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) as failed_runs,
			COALESCE(SUM(rows_out), 0) as total_rows
		FROM stage_runs
		WHERE SUBSTR(started_at, 1, 19) > datetime('now', '-' || ? || ' days')
		GROUP BY date, stage
		ORDER BY date DESC, stage
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RunHealthSummary
	for rows.Next() {
		var h RunHealthSummary
		if err := rows.Scan(&h.Date, &h.Stage, &h.TotalRuns,
			&h.OKRuns, &h.SkippedRuns, &h.FailedRuns, &h.TotalRows); err != nil {
			return nil, err
		}
		results = append(results, h)
	}
	return results, rows.Err()
}

// GetRecentRuns returns the most recent stage runs, newest first.
func (s *Store) GetRecentRuns(limit int) ([]StageRun, error) {
	rows, err := s.db.Query(`
		SELECT id, stage, started_at, finished_at, rows_in, rows_out, status, error_message
		FROM stage_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []StageRun
	for rows.Next() {
		var r StageRun
		if err := rows.Scan(&r.ID, &r.Stage, &r.StartedAt, &r.FinishedAt,
			&r.RowsIn, &r.RowsOut, &r.Status, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetRecentFailures returns recent failed stage runs.
func (s *Store) GetRecentFailures(limit int) ([]StageRun, error) {
	rows, err := s.db.Query(`
		SELECT id, stage, started_at, finished_at, rows_in, rows_out, status, error_message
		FROM stage_runs
		WHERE status = 'failed'
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []StageRun
	for rows.Next() {
		var r StageRun
		if err := rows.Scan(&r.ID, &r.Stage, &r.StartedAt, &r.FinishedAt,
			&r.RowsIn, &r.RowsOut, &r.Status, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
