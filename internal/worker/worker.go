package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/wordbridge/wordbridge-api/internal/config"
	"github.com/wordbridge/wordbridge-api/internal/domain"
	"github.com/wordbridge/wordbridge-api/internal/queue"
	"github.com/wordbridge/wordbridge-api/internal/store"
)

// Worker polls the job queue and processes upload jobs one at a time. A
// recovery sweep runs at startup and then periodically, re-enqueueing
// uploads stuck in pending or processing, with a per-upload retry
// ceiling after which they are marked failed.
type Worker struct {
	queue     queue.Queue
	processor *Processor
	uploads   store.UploadStore
	cfg       config.WorkerConfig
	poll      time.Duration
	logger    *slog.Logger

	processedJobs atomic.Int64
	failedJobs    atomic.Int64

	// now is injectable for tests.
	now func() time.Time
}

// ProcessedCount reports how many jobs finished successfully since the
// worker started.
func (w *Worker) ProcessedCount() int64 { return w.processedJobs.Load() }

// FailedCount reports how many jobs ended in failure since the worker
// started.
func (w *Worker) FailedCount() int64 { return w.failedJobs.Load() }

// NewWorker wires a Worker from its dependencies.
func NewWorker(
	q queue.Queue,
	processor *Processor,
	uploads store.UploadStore,
	workerCfg config.WorkerConfig,
	queueCfg config.QueueConfig,
	logger *slog.Logger,
) *Worker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		queue:     q,
		processor: processor,
		uploads:   uploads,
		cfg:       workerCfg,
		poll:      time.Duration(queueCfg.PollTimeoutSeconds) * time.Second,
		logger:    logger.With(slog.String("component", "worker")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run executes the worker loop until the context is cancelled or, when
// StopAfter is set, until that many jobs have been processed. Every
// dequeued job is acknowledged, success or failure: processing records
// its own outcome on the upload row, and the sweep recovers anything a
// crash leaves behind.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "worker starting",
		"poll_timeout", w.poll,
		"sweep_interval_seconds", w.cfg.SweepIntervalSeconds)

	w.Sweep(ctx)

	sweepInterval := time.Duration(w.cfg.SweepIntervalSeconds) * time.Second
	lastSweep := w.now()
	processed := 0

	for {
		if err := ctx.Err(); err != nil {
			w.logger.InfoContext(ctx, "worker stopping", "processed", processed)
			return err
		}

		job, err := w.queue.Dequeue(ctx, w.poll)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.InfoContext(ctx, "worker stopping", "processed", processed)
				return ctx.Err()
			}
			w.logger.ErrorContext(ctx, "failed to dequeue job", "error", err)
			continue
		}

		if w.now().Sub(lastSweep) >= sweepInterval {
			w.Sweep(ctx)
			lastSweep = w.now()
		}

		if job == nil {
			if w.cfg.StopAfter > 0 && processed >= w.cfg.StopAfter {
				w.logger.InfoContext(ctx, "stop-after budget reached", "processed", processed)
				return nil
			}
			continue
		}

		result := w.processJob(ctx, job)
		if result.Success {
			w.processedJobs.Add(1)
			w.logger.InfoContext(ctx, "processed upload job", "upload_id", result.UploadID)
		} else {
			w.failedJobs.Add(1)
			w.logger.WarnContext(ctx, "upload job failed",
				"upload_id", result.UploadID,
				"error", result.Error)
		}

		// Always settle: a failed job's state lives on the upload row,
		// and redelivering it would only repeat the same failure.
		if err := w.queue.Ack(ctx, job); err != nil {
			w.logger.WarnContext(ctx, "failed to acknowledge job",
				"upload_id", job.UploadID,
				"error", err)
		}

		processed++
		if w.cfg.StopAfter > 0 && processed >= w.cfg.StopAfter {
			w.logger.InfoContext(ctx, "stop-after budget reached", "processed", processed)
			return nil
		}
	}
}

// processJob runs the processor with a panic guard so one corrupt job
// cannot take down the loop.
func (w *Worker) processJob(ctx context.Context, job *queue.Job) (result JobResult) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.ErrorContext(ctx, "panic while processing job",
				"upload_id", job.UploadID,
				"panic", r,
				"stack", string(debug.Stack()))
			// Best effort: the sweep will pick the upload up later if
			// this write fails too.
			processedAt := w.now()
			if err := w.uploads.UpdateStatus(ctx, job.UploadID, domain.UploadStatusFailed, &processedAt); err != nil {
				w.logger.ErrorContext(ctx, "failed to mark panicked upload failed",
					"upload_id", job.UploadID,
					"error", err)
			}
			result = JobResult{
				UploadID: job.UploadID,
				Success:  false,
				Error:    fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	return w.processor.Process(ctx, job.UploadID)
}

// Sweep finds uploads stuck in pending or processing and re-enqueues
// them, incrementing their retry count. Uploads that have exhausted the
// retry ceiling are marked failed instead. Each upload is handled at
// most once per pass.
func (w *Worker) Sweep(ctx context.Context) {
	seen := make(map[int64]struct{})

	pendingGrace := time.Duration(w.cfg.PendingGraceSeconds) * time.Second
	w.sweepStatus(ctx, domain.UploadStatusPending, pendingGrace, seen)

	processingAge := time.Duration(w.cfg.StaleProcessingAgeMins) * time.Minute
	w.sweepStatus(ctx, domain.UploadStatusProcessing, processingAge, seen)
}

func (w *Worker) sweepStatus(
	ctx context.Context,
	status domain.UploadStatus,
	olderThan time.Duration,
	seen map[int64]struct{},
) {
	stale, err := w.uploads.FindStale(ctx, []domain.UploadStatus{status}, olderThan, w.cfg.SweepBatchSize)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to find stale uploads",
			"status", status,
			"error", err)
		return
	}

	if len(stale) == 0 {
		return
	}

	w.logger.InfoContext(ctx, "found stuck uploads",
		"status", status,
		"count", len(stale))

	for _, upload := range stale {
		if _, done := seen[upload.ID]; done {
			continue
		}
		seen[upload.ID] = struct{}{}
		w.recoverUpload(ctx, upload)
	}
}

// recoverUpload resets one stuck upload back to pending and re-enqueues
// it, or marks it failed once the retry ceiling is reached.
func (w *Worker) recoverUpload(ctx context.Context, upload *domain.Upload) {
	log := w.logger.With(slog.Int64("upload_id", upload.ID))

	if upload.RetryCount >= w.cfg.MaxSweepRetries {
		processedAt := w.now()
		if err := w.uploads.UpdateStatus(ctx, upload.ID, domain.UploadStatusFailed, &processedAt); err != nil {
			log.ErrorContext(ctx, "failed to mark exhausted upload failed", "error", err)
			return
		}
		log.WarnContext(ctx, "upload exhausted recovery retries, marked failed",
			"retry_count", upload.RetryCount)
		return
	}

	retryCount, err := w.uploads.ResetForRetry(ctx, upload.ID)
	if err != nil {
		log.ErrorContext(ctx, "failed to reset upload for retry", "error", err)
		return
	}

	if err := w.queue.Enqueue(ctx, upload.ID); err != nil {
		// The next sweep will find it again; the reset already moved it
		// back to pending.
		log.ErrorContext(ctx, "failed to re-enqueue stuck upload", "error", err)
		return
	}

	log.InfoContext(ctx, "re-enqueued stuck upload", "retry_count", retryCount)
}
