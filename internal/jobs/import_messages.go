package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smsledger/internal/database"
	"smsledger/internal/filestore"
	"smsledger/internal/ingest"
	"smsledger/internal/logger"
	"smsledger/internal/models"
	"smsledger/internal/smsbackup"
)

// ImportMessagesPayload is the payload for import_messages jobs
type ImportMessagesPayload struct {
	Backup string     `json:"backup"` // name returned by filestore.Store.Save
	Sender string     `json:"sender,omitempty"`
	Since  *time.Time `json:"since,omitempty"`
}

// ImportMessagesHandler reads a stored SMS backup, runs every inbox message
// through the ingest pipeline and queues a duplicate sweep afterwards.
func ImportMessagesHandler(store *filestore.Store, pipeline *ingest.Pipeline) JobHandler {
	return func(ctx context.Context, job *models.Job, db *database.DB) error {
		l := logger.FromContext(ctx).With("job_id", job.ID)

		var payload ImportMessagesPayload
		if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}

		path, err := store.Path(payload.Backup)
		if err != nil {
			return fmt.Errorf("resolve backup %q: %w", payload.Backup, err)
		}

		filter := smsbackup.Filter{Sender: payload.Sender}
		if payload.Since != nil {
			filter.Since = *payload.Since
		}
		msgs, err := smsbackup.ReadFile(path, filter)
		if err != nil {
			return fmt.Errorf("read backup: %w", err)
		}
		l.Info("import_backup_loaded", "messages", len(msgs))

		lastPct := -1
		report := pipeline.Import(ctx, msgs, func(done, total int) {
			// Leave the last few percent for the follow-up steps
			pct := 95 * done / total
			if pct == lastPct {
				return
			}
			lastPct = pct
			if err := db.UpdateJobProgress(ctx, job.ID, pct); err != nil {
				l.Warn("job_progress_update_failed", "error", err.Error())
			}
		})
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, _, err := EnqueueSweep(ctx, db); err != nil {
			l.Warn("import_sweep_enqueue_failed", "error", err.Error())
		}

		if err := store.Delete(payload.Backup); err != nil {
			l.Warn("import_backup_cleanup_failed", "error", err.Error())
		}

		resultJSON, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := db.CompleteJob(ctx, job.ID, string(resultJSON)); err != nil {
			return fmt.Errorf("complete job: %w", err)
		}
		return nil
	}
}
