package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smsledger/internal/models"
)

// StartSweepRun records the start of a matching sweep and returns its ID
func (db *DB) StartSweepRun(ctx context.Context, startedAt time.Time) (int64, error) {
	result, err := db.ExecContext(ctx, `
		INSERT INTO sweep_runs (started_at, status) VALUES (?, 'running')
	`, toMillis(startedAt))
	if err != nil {
		return 0, fmt.Errorf("insert sweep run: %w", err)
	}
	return result.LastInsertId()
}

// FinishSweepRun stores the outcome of a sweep. A non-empty Error marks it failed.
func (db *DB) FinishSweepRun(ctx context.Context, run models.SweepRun) error {
	status := "completed"
	if run.Error != "" {
		status = "failed"
	}
	finished := time.Now()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	_, err := db.ExecContext(ctx, `
		UPDATE sweep_runs
		SET finished_at = ?, status = ?, reference_merges = ?, similarity_merges = ?,
			deleted = ?, failures = ?, error = ?
		WHERE id = ?
	`, toMillis(finished), status, run.ReferenceMerges, run.SimilarityMerges,
		run.Deleted, run.Failures, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("finish sweep run: %w", err)
	}
	return nil
}

// ListSweepRuns returns the most recent sweeps first
func (db *DB) ListSweepRuns(ctx context.Context, limit int) ([]models.SweepRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, status, reference_merges, similarity_merges,
			   deleted, failures, error
		FROM sweep_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sweep runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SweepRun
	for rows.Next() {
		var r models.SweepRun
		var startedAt int64
		var finishedAt sql.NullInt64
		if err := rows.Scan(&r.ID, &startedAt, &finishedAt, &r.Status, &r.ReferenceMerges,
			&r.SimilarityMerges, &r.Deleted, &r.Failures, &r.Error); err != nil {
			return nil, fmt.Errorf("scan sweep run: %w", err)
		}
		r.StartedAt = fromMillis(startedAt)
		if finishedAt.Valid {
			t := fromMillis(finishedAt.Int64)
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
