package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/wordbridge/wordbridge-api/internal/domain"
	"github.com/wordbridge/wordbridge-api/internal/store"
)

// txBeginner is implemented by *sql.DB. When the store's DBTX can start
// transactions, ReplaceForUpload runs its delete and inserts atomically;
// when the DBTX is already a transaction, the operations run on it
// directly and the caller owns atomicity.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// PostgresRecommendationStore implements the store.RecommendationStore
// interface using a PostgreSQL database as the storage backend.
type PostgresRecommendationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRecommendationStore creates a new PostgreSQL implementation
// of the RecommendationStore interface. If logger is nil, the default
// logger is used.
func NewPostgresRecommendationStore(db store.DBTX, logger *slog.Logger) *PostgresRecommendationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRecommendationStore{
		db:     db,
		logger: logger.With(slog.String("component", "recommendation_store")),
	}
}

// Ensure PostgresRecommendationStore implements store.RecommendationStore
var _ store.RecommendationStore = (*PostgresRecommendationStore)(nil)

// ReplaceForUpload implements store.RecommendationStore.ReplaceForUpload
func (s *PostgresRecommendationStore) ReplaceForUpload(
	ctx context.Context,
	studentID, uploadID int64,
	recs []domain.Recommendation,
) error {
	beginner, ok := s.db.(txBeginner)
	if !ok {
		return s.replaceForUpload(ctx, s.db, studentID, uploadID, recs)
	}

	tx, err := beginner.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", store.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.replaceForUpload(ctx, tx, studentID, uploadID, recs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %v", store.ErrTransactionFailed, err)
	}

	return nil
}

func (s *PostgresRecommendationStore) replaceForUpload(
	ctx context.Context,
	db store.DBTX,
	studentID, uploadID int64,
	recs []domain.Recommendation,
) error {
	deleteQuery := `DELETE FROM recommendations WHERE upload_id = $1`

	result, err := db.ExecContext(ctx, deleteQuery, uploadID)
	if err != nil {
		return fmt.Errorf("failed to delete recommendations for upload %d: %w", uploadID, MapError(err))
	}

	if deleted, err := result.RowsAffected(); err == nil && deleted > 0 {
		s.logger.InfoContext(ctx, "replaced previous recommendations",
			"upload_id", uploadID,
			"deleted", deleted)
	}

	insertQuery := `
		INSERT INTO recommendations
			(student_id, upload_id, word, definition, rationale,
			 difficulty_score, example_sentence, status, pinned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now().UTC()
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		status := rec.Status
		if status == "" {
			status = domain.RecommendationStatusPending
		}

		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		_, err := db.ExecContext(ctx, insertQuery,
			studentID,
			uploadID,
			rec.Word,
			rec.Definition,
			rec.Rationale,
			rec.DifficultyScore,
			rec.ExampleSentence,
			status,
			rec.Pinned,
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation %q for upload %d: %w",
				rec.Word, uploadID, MapError(err))
		}
	}

	return nil
}

// ListForUpload implements store.RecommendationStore.ListForUpload
func (s *PostgresRecommendationStore) ListForUpload(
	ctx context.Context,
	uploadID int64,
) ([]domain.Recommendation, error) {
	query := `
		SELECT id, student_id, upload_id, word, definition, rationale,
		       difficulty_score, example_sentence, status, pinned, created_at
		FROM recommendations
		WHERE upload_id = $1
		ORDER BY id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations for upload %d: %w", uploadID, MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var recs []domain.Recommendation
	for rows.Next() {
		var rec domain.Recommendation
		err := rows.Scan(
			&rec.ID,
			&rec.StudentID,
			&rec.UploadID,
			&rec.Word,
			&rec.Definition,
			&rec.Rationale,
			&rec.DifficultyScore,
			&rec.ExampleSentence,
			&rec.Status,
			&rec.Pinned,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation row: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendation rows: %w", err)
	}

	return recs, nil
}
