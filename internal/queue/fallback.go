package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// FallbackQueue wraps a primary (durable) queue with an in-process
// fallback. A transient broker outage then degrades intake to best-effort
// local buffering instead of failing requests, and keeps the worker
// polling instead of crashing. The trade is durability for availability:
// jobs buffered in the fallback are lost if the process dies, which the
// stuck-upload sweep later repairs from the database side.
type FallbackQueue struct {
	primary  Queue
	fallback Queue
	logger   *slog.Logger
}

// NewFallbackQueue builds the decorator. Both queues must be non-nil.
func NewFallbackQueue(primary, fallback Queue, logger *slog.Logger) *FallbackQueue {
	return &FallbackQueue{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With("queue_backend", "fallback"),
	}
}

// Enqueue tries the primary queue first and buffers into the fallback
// when it fails. An error is returned only when both queues reject the
// job.
func (q *FallbackQueue) Enqueue(ctx context.Context, uploadID int64) error {
	err := q.primary.Enqueue(ctx, uploadID)
	if err == nil {
		return nil
	}

	q.logger.Warn("primary queue enqueue failed, buffering in-process",
		"upload_id", uploadID,
		"error", err)

	if fallbackErr := q.fallback.Enqueue(ctx, uploadID); fallbackErr != nil {
		return errors.Join(err, fallbackErr)
	}
	return nil
}

// Dequeue drains the local fallback buffer first (its jobs are lost on
// process exit, so they age worst), then polls the primary. Primary
// failures degrade to a fallback wait rather than propagating.
func (q *FallbackQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	// Non-blocking peek at the buffered jobs.
	job, err := q.fallback.Dequeue(ctx, time.Millisecond)
	if err == nil && job != nil {
		return job, nil
	}
	if err != nil && !errors.Is(err, ErrQueueClosed) {
		return nil, err
	}

	job, err = q.primary.Dequeue(ctx, timeout)
	if err == nil {
		return job, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	q.logger.Warn("primary queue dequeue failed, polling in-process fallback",
		"error", err)
	return q.fallback.Dequeue(ctx, timeout)
}

// Ack settles the job against whichever backend delivered it; the job
// carries its own acknowledgement.
func (q *FallbackQueue) Ack(ctx context.Context, job *Job) error {
	return settle(ctx, job, q.logger)
}

// Close closes both queues.
func (q *FallbackQueue) Close() error {
	err := q.primary.Close()
	if fallbackErr := q.fallback.Close(); fallbackErr != nil && err == nil {
		err = fallbackErr
	}
	return err
}
