// Package queue provides the job queue abstraction that decouples upload
// intake from the background worker. Two interchangeable backends exist:
// a durable AMQP broker queue (at-least-once, manual acknowledgement) and
// an in-process fallback queue (at-most-once within the process
// lifetime). Selection happens once at startup based on configuration,
// with the fallback also acting as a safety net when the broker is
// unreachable.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wordbridge/wordbridge-api/internal/config"
)

// Common errors returned by queue implementations.
var (
	// ErrQueueOperation is returned when a send/receive against the
	// backing queue fails. Callers decide whether to fall back.
	ErrQueueOperation = errors.New("queue operation failed")

	// ErrQueueClosed is returned when operating on a closed queue.
	ErrQueueClosed = errors.New("queue is closed")

	// ErrQueueFull is returned when the in-process queue cannot accept
	// more jobs.
	ErrQueueFull = errors.New("queue is full")
)

// Job is one dequeued unit of work referencing an upload. Receipt is the
// backend's opaque acknowledgement token (empty for the in-process
// backend); ack is how the job is settled against whichever backend
// delivered it.
type Job struct {
	UploadID int64
	Receipt  string

	ack func(ctx context.Context) error
}

// Queue is the job queue consumed by the worker loop and fed by upload
// intake.
type Queue interface {
	// Enqueue submits a job for the upload id. Implementations return
	// ErrQueueOperation-wrapped errors on transport failure.
	Enqueue(ctx context.Context, uploadID int64) error

	// Dequeue waits up to timeout for one job. A nil Job with a nil
	// error means nothing was available within the timeout.
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)

	// Ack settles a delivered job so it is not redelivered. Calling Ack
	// with a job that carries no receipt is a no-op. Acknowledgement
	// failures are logged, not returned: processing is idempotent, so a
	// redelivered message is an acceptable cost.
	Ack(ctx context.Context, job *Job) error

	// Close releases backend resources.
	Close() error
}

// settle runs the job's acknowledgement, swallowing failures.
func settle(ctx context.Context, job *Job, logger *slog.Logger) error {
	if job == nil || job.ack == nil {
		return nil
	}
	if err := job.ack(ctx); err != nil {
		logger.Warn("failed to acknowledge job, message may be redelivered",
			"upload_id", job.UploadID,
			"error", err)
	}
	return nil
}

// New selects and builds the queue backend from configuration. A
// configured AMQP URL yields the durable backend wrapped in the
// in-process fallback; otherwise the in-process queue stands alone.
func New(cfg config.QueueConfig, logger *slog.Logger) (Queue, error) {
	memory := NewMemoryQueue(cfg.FallbackBufferSize, logger)

	if cfg.AMQPURL == "" {
		logger.Info("no broker configured, using in-process job queue")
		return memory, nil
	}

	durable, err := NewAMQPQueue(cfg.AMQPURL, cfg.QueueName, logger)
	if err != nil {
		return nil, err
	}

	return NewFallbackQueue(durable, memory, logger), nil
}
