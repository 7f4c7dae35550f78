package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wordbridge/wordbridge-api/internal/domain"
	"github.com/wordbridge/wordbridge-api/internal/store"
)

// PostgresUploadStore implements the store.UploadStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUploadStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUploadStore creates a new PostgreSQL implementation of the
// UploadStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is
// nil, the default logger is used.
func NewPostgresUploadStore(db store.DBTX, logger *slog.Logger) *PostgresUploadStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUploadStore{
		db:     db,
		logger: logger.With(slog.String("component", "upload_store")),
	}
}

// Ensure PostgresUploadStore implements store.UploadStore
var _ store.UploadStore = (*PostgresUploadStore)(nil)

// GetByID implements store.UploadStore.GetByID
func (s *PostgresUploadStore) GetByID(ctx context.Context, id int64) (*domain.Upload, error) {
	query := `
		SELECT id, educator_id, student_id, file_path, filename, status,
		       retry_count, created_at, processed_at
		FROM uploads
		WHERE id = $1
	`

	upload, err := scanUpload(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(MapError(err)) {
			return nil, store.ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to get upload %d: %w", id, MapError(err))
	}

	return upload, nil
}

// UpdateStatus implements store.UploadStore.UpdateStatus. A missing
// upload is logged and treated as a no-op so redelivered jobs for
// deleted uploads cannot wedge the worker.
func (s *PostgresUploadStore) UpdateStatus(
	ctx context.Context,
	id int64,
	status domain.UploadStatus,
	processedAt *time.Time,
) error {
	query := `
		UPDATE uploads
		SET status = $1, processed_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, processedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update upload %d status: %w", id, MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "no upload found to update status",
			"upload_id", id,
			"status", status)
	}

	return nil
}

// FindStale implements store.UploadStore.FindStale. Results come back
// oldest first so repeated sweeps with a batch limit eventually reach
// every stuck upload.
func (s *PostgresUploadStore) FindStale(
	ctx context.Context,
	statuses []domain.UploadStatus,
	olderThan time.Duration,
	limit int,
) ([]*domain.Upload, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]any, 0, len(statuses)+2)
	for i, status := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, status)
	}
	args = append(args, time.Now().UTC().Add(-olderThan), limit)

	query := fmt.Sprintf(`
		SELECT id, educator_id, student_id, file_path, filename, status,
		       retry_count, created_at, processed_at
		FROM uploads
		WHERE status IN (%s) AND created_at < $%d
		ORDER BY created_at ASC
		LIMIT $%d
	`, strings.Join(placeholders, ", "), len(statuses)+1, len(statuses)+2)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale uploads: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var uploads []*domain.Upload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stale upload row: %w", err)
		}
		uploads = append(uploads, upload)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stale upload rows: %w", err)
	}

	return uploads, nil
}

// ResetForRetry implements store.UploadStore.ResetForRetry.
func (s *PostgresUploadStore) ResetForRetry(ctx context.Context, id int64) (int, error) {
	query := `
		UPDATE uploads
		SET status = $1, retry_count = retry_count + 1, processed_at = NULL
		WHERE id = $2
		RETURNING retry_count
	`

	var retryCount int
	err := s.db.QueryRowContext(ctx, query, domain.UploadStatusPending, id).Scan(&retryCount)
	if err != nil {
		if IsNotFoundError(MapError(err)) {
			return 0, store.ErrUploadNotFound
		}
		return 0, fmt.Errorf("failed to reset upload %d for retry: %w", id, MapError(err))
	}

	return retryCount, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (*domain.Upload, error) {
	var upload domain.Upload
	var processedAt sql.NullTime

	err := row.Scan(
		&upload.ID,
		&upload.EducatorID,
		&upload.StudentID,
		&upload.FilePath,
		&upload.Filename,
		&upload.Status,
		&upload.RetryCount,
		&upload.CreatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	if processedAt.Valid {
		t := processedAt.Time
		upload.ProcessedAt = &t
	}

	return &upload, nil
}
