package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// MemoryQueue is a blocking, concurrency-safe FIFO of upload ids used
// when no broker is configured and as the safety-net fallback when the
// broker is unreachable. Delivery is at-most-once within the process
// lifetime: a dequeued id is already removed, so Ack is a no-op.
type MemoryQueue struct {
	jobs   chan int64
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewMemoryQueue creates an in-process queue with the given buffer size.
func NewMemoryQueue(size int, logger *slog.Logger) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{
		jobs:   make(chan int64, size),
		logger: logger.With("queue_backend", "memory"),
	}
}

// Enqueue adds an upload id to the queue without blocking.
// Returns ErrQueueFull when the buffer is exhausted.
func (q *MemoryQueue) Enqueue(ctx context.Context, uploadID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- uploadID:
		q.logger.Debug("job enqueued",
			"upload_id", uploadID,
			"queue_len", len(q.jobs),
			"queue_cap", cap(q.jobs))
		return nil
	default:
		return fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(q.jobs))
	}
}

// Dequeue blocks up to timeout for the next upload id. Returns a nil Job
// when nothing arrives in time.
func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case uploadID, ok := <-q.jobs:
		if !ok {
			return nil, ErrQueueClosed
		}
		return &Job{UploadID: uploadID}, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ack is a no-op: dequeue already removed the item.
func (q *MemoryQueue) Ack(ctx context.Context, job *Job) error {
	return settle(ctx, job, q.logger)
}

// Close closes the queue, preventing further submission.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
		q.logger.Info("in-process job queue closed")
	}
	return nil
}

// Len reports the number of buffered jobs. Used by the status endpoint.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}
