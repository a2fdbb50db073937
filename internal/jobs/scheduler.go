package jobs

import (
	"context"
	"log/slog"
	"time"

	"smsledger/internal/database"
)

// Scheduler periodically queues duplicate sweeps
type Scheduler struct {
	db       *database.DB
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewScheduler creates a scheduler that enqueues a sweep every interval
func NewScheduler(db *database.DB, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:       db,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the ticker loop in a background goroutine
func (s *Scheduler) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("sweep_scheduler_started", "interval", s.interval.String())
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Tick(context.Background())
			}
		}
	}()
}

// Stop halts the scheduler and waits for the loop to exit
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	s.logger.Info("sweep_scheduler_stopped")
}

// Tick enqueues one sweep if none is pending or running
func (s *Scheduler) Tick(ctx context.Context) {
	id, created, err := EnqueueSweep(ctx, s.db)
	if err != nil {
		s.logger.Error("sweep_enqueue_failed", "error", err.Error())
		return
	}
	if created {
		s.logger.Debug("sweep_enqueued", "job_id", id)
	}
}
