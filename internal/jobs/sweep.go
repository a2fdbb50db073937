package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smsledger/internal/database"
	"smsledger/internal/logger"
	"smsledger/internal/models"
	"smsledger/internal/reconciliation"
)

// EnqueueSweep queues a sweep_duplicates job unless one is already pending or
// running. It returns the job ID and whether a new job was created.
func EnqueueSweep(ctx context.Context, db *database.DB) (int64, bool, error) {
	active, err := db.HasActiveJob(ctx, TypeSweepDuplicates)
	if err != nil {
		return 0, false, err
	}
	if active {
		return 0, false, nil
	}
	id, err := db.CreateJob(ctx, TypeSweepDuplicates, map[string]any{})
	if err != nil {
		return 0, false, fmt.Errorf("create sweep job: %w", err)
	}
	return id, true, nil
}

// RunSweep runs one matching sweep and records it in the sweep history.
// A sweep that cannot read the ledger is recorded as failed and its error returned.
func RunSweep(ctx context.Context, db *database.DB, matcher *reconciliation.Matcher) (models.SweepRun, error) {
	run := models.SweepRun{StartedAt: time.Now()}
	id, err := db.StartSweepRun(ctx, run.StartedAt)
	if err != nil {
		return run, fmt.Errorf("start sweep run: %w", err)
	}
	run.ID = id
	ctx = logger.WithSweepID(ctx, id)

	res, sweepErr := matcher.Sweep(ctx)
	finished := time.Now()
	run.FinishedAt = &finished
	run.ReferenceMerges = res.ReferenceMerges
	run.SimilarityMerges = res.SimilarityMerges
	run.Deleted = res.Deleted
	run.Failures = res.Failures
	run.Status = "completed"
	if sweepErr != nil {
		run.Status = "failed"
		run.Error = sweepErr.Error()
	}

	// Record the outcome even when the job context has been cancelled
	if err := db.FinishSweepRun(context.WithoutCancel(ctx), run); err != nil {
		logger.FromContext(ctx).Error("sweep_run_record_failed", "error", err.Error())
	}
	return run, sweepErr
}

// SweepHandler processes sweep_duplicates jobs. A sweep already running in
// this process counts as success.
func SweepHandler(matcher *reconciliation.Matcher) JobHandler {
	return func(ctx context.Context, job *models.Job, db *database.DB) error {
		run, err := RunSweep(ctx, db, matcher)
		if errors.Is(err, reconciliation.ErrSweepInProgress) {
			logger.FromContext(ctx).Info("sweep_skipped_in_progress", "job_id", job.ID)
			return db.CompleteJob(ctx, job.ID, `{"skipped":true}`)
		}
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}

		resultJSON, err := json.Marshal(map[string]any{
			"sweep_id":          run.ID,
			"reference_merges":  run.ReferenceMerges,
			"similarity_merges": run.SimilarityMerges,
			"deleted":           run.Deleted,
			"failures":          run.Failures,
		})
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		return db.CompleteJob(ctx, job.ID, string(resultJSON))
	}
}
