package store

import (
	"context"
	"time"

	"github.com/wordbridge/wordbridge-api/internal/domain"
)

// UploadStore defines the persistence operations for uploads used by the
// job processor and the stuck-upload sweep.
type UploadStore interface {
	// GetByID retrieves an upload by its ID.
	// Returns ErrUploadNotFound if the upload does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Upload, error)

	// UpdateStatus sets the upload's status. processedAt is recorded when
	// non-nil (completion or failure); in-flight transitions pass nil.
	// A missing upload is treated as a no-op, not an error, so that
	// redelivered jobs for deleted uploads cannot wedge the worker.
	UpdateStatus(ctx context.Context, id int64, status domain.UploadStatus, processedAt *time.Time) error

	// FindStale returns up to limit uploads, oldest first, that have been
	// in any of the given statuses longer than olderThan. The sweep uses
	// this to find work lost to crashed workers or dropped enqueues.
	FindStale(ctx context.Context, statuses []domain.UploadStatus, olderThan time.Duration, limit int) ([]*domain.Upload, error)

	// ResetForRetry moves an upload back to pending and increments its
	// retry count, returning the new count. Only the recovery sweep calls
	// this; it is the one sanctioned exception to monotonic transitions.
	ResetForRetry(ctx context.Context, id int64) (int, error)
}
