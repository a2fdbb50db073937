package jobs

import (
	"context"
	"log/slog"
	"time"

	"smsledger/internal/database"
	"smsledger/internal/logger"
	"smsledger/internal/models"
)

// Job types handled by the worker
const (
	TypeImportMessages  = "import_messages"
	TypeSweepDuplicates = "sweep_duplicates"
)

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job *models.Job, db *database.DB) error

// Worker processes background jobs from the queue
type Worker struct {
	db           *database.DB
	handlers     map[string]JobHandler
	stop         chan struct{}
	done         chan struct{}
	logger       *slog.Logger
	pollInterval time.Duration
	jobTimeout   time.Duration
}

// NewWorker creates a new job worker
func NewWorker(db *database.DB, log *slog.Logger) *Worker {
	return &Worker{
		db:           db,
		handlers:     make(map[string]JobHandler),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		logger:       log,
		pollInterval: 2 * time.Second,
		jobTimeout:   5 * time.Minute,
	}
}

// Register adds a handler for a job type
func (w *Worker) Register(jobType string, handler JobHandler) {
	w.handlers[jobType] = handler
}

// Start begins processing jobs in a background goroutine. Jobs left running by
// a previous process are put back in the queue first.
func (w *Worker) Start() {
	if n, err := w.db.RequeueRunningJobs(context.Background()); err != nil {
		w.logger.Error("job_requeue_error", "error", err.Error())
	} else if n > 0 {
		w.logger.Info("job_requeued", "count", n)
	}

	go func() {
		defer close(w.done)
		w.logger.Info("job_worker_started")

		for {
			select {
			case <-w.stop:
				w.logger.Info("job_worker_stopping")
				return
			default:
			}

			if w.RunOnce(context.Background()) {
				continue
			}

			// No pending jobs (or claim failed), wait before polling again
			select {
			case <-w.stop:
				w.logger.Info("job_worker_stopping")
				return
			case <-time.After(w.pollInterval):
			}
		}
	}()
}

// Stop signals the worker to stop and waits for it to finish
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
	w.logger.Info("job_worker_stopped")
}

// RunOnce claims and processes a single pending job. It reports whether a job
// was claimed.
func (w *Worker) RunOnce(ctx context.Context) bool {
	job, err := w.db.ClaimNextJob(ctx)
	if err != nil {
		w.logger.Error("job_claim_error", "error", err.Error())
		return false
	}
	if job == nil {
		return false
	}
	w.processJob(ctx, job)
	return true
}

func (w *Worker) processJob(parent context.Context, job *models.Job) {
	l := w.logger.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts)
	l.Info("job_processing_started")

	handler, ok := w.handlers[job.JobType]
	if !ok {
		l.Error("job_unknown_type")
		w.fail(l, job.ID, "unknown job type: "+job.JobType)
		return
	}

	ctx, cancel := context.WithTimeout(logger.WithLogger(parent, l), w.jobTimeout)
	defer cancel()

	err := handler(ctx, job, w.db)
	if err != nil {
		l.Error("job_processing_failed", "error", err.Error())

		if job.Attempts >= job.MaxAttempts {
			l.Warn("job_max_attempts_reached")
			w.fail(l, job.ID, err.Error())
		} else {
			l.Info("job_retrying")
			if err := w.db.RetryJob(context.Background(), job.ID); err != nil {
				l.Error("job_retry_error", "error", err.Error())
			}
		}
		return
	}

	l.Info("job_processing_completed")
}

func (w *Worker) fail(l *slog.Logger, id int64, msg string) {
	if err := w.db.FailJob(context.Background(), id, msg); err != nil {
		l.Error("job_fail_error", "error", err.Error())
	}
}
