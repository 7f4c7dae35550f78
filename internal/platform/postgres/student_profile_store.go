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

// PostgresStudentProfileStore implements the store.StudentProfileStore
// interface using a PostgreSQL database as the storage backend.
type PostgresStudentProfileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStudentProfileStore creates a new PostgreSQL implementation
// of the StudentProfileStore interface. If logger is nil, the default
// logger is used.
func NewPostgresStudentProfileStore(db store.DBTX, logger *slog.Logger) *PostgresStudentProfileStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStudentProfileStore{
		db:     db,
		logger: logger.With(slog.String("component", "student_profile_store")),
	}
}

// Ensure PostgresStudentProfileStore implements store.StudentProfileStore
var _ store.StudentProfileStore = (*PostgresStudentProfileStore)(nil)

// GetByID implements store.StudentProfileStore.GetByID
func (s *PostgresStudentProfileStore) GetByID(ctx context.Context, id int64) (*domain.StudentProfile, error) {
	query := `
		SELECT id, educator_id, display_name, grade_level,
		       vocabulary_level, last_analyzed_at, created_at
		FROM student_profiles
		WHERE id = $1
	`

	var profile domain.StudentProfile
	var vocabularyLevel sql.NullInt64
	var lastAnalyzedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.EducatorID,
		&profile.DisplayName,
		&profile.GradeLevel,
		&vocabularyLevel,
		&lastAnalyzedAt,
		&profile.CreatedAt,
	)
	if err != nil {
		if IsNotFoundError(MapError(err)) {
			return nil, store.ErrStudentProfileNotFound
		}
		return nil, fmt.Errorf("failed to get student profile %d: %w", id, MapError(err))
	}

	if vocabularyLevel.Valid {
		level := int(vocabularyLevel.Int64)
		profile.VocabularyLevel = &level
	}

	if lastAnalyzedAt.Valid {
		t := lastAnalyzedAt.Time
		profile.LastAnalyzedAt = &t
	}

	return &profile, nil
}

// UpdateVocabularyLevel implements store.StudentProfileStore.UpdateVocabularyLevel
func (s *PostgresStudentProfileStore) UpdateVocabularyLevel(ctx context.Context, id int64, level int) error {
	query := `
		UPDATE student_profiles
		SET vocabulary_level = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, level, id)
	if err != nil {
		return fmt.Errorf("failed to update vocabulary level for student %d: %w", id, MapError(err))
	}

	return s.requireProfileUpdated(ctx, result, id)
}

// MarkAnalyzed implements store.StudentProfileStore.MarkAnalyzed
func (s *PostgresStudentProfileStore) MarkAnalyzed(ctx context.Context, id int64, analyzedAt time.Time) error {
	query := `
		UPDATE student_profiles
		SET last_analyzed_at = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, analyzedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark student %d analyzed: %w", id, MapError(err))
	}

	return s.requireProfileUpdated(ctx, result, id)
}

// LoadBaselineWords implements store.StudentProfileStore.LoadBaselineWords
func (s *PostgresStudentProfileStore) LoadBaselineWords(
	ctx context.Context,
	gradeLevel, limit int,
) ([]domain.BaselineWord, error) {
	query := `
		SELECT word, grade_level, difficulty
		FROM baseline_words
		WHERE grade_level = $1
		ORDER BY difficulty ASC, word ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, gradeLevel, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query baseline words for grade %d: %w", gradeLevel, MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var words []domain.BaselineWord
	for rows.Next() {
		var word domain.BaselineWord
		if err := rows.Scan(&word.Word, &word.GradeLevel, &word.DifficultyScore); err != nil {
			return nil, fmt.Errorf("failed to scan baseline word row: %w", err)
		}
		words = append(words, word)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating baseline word rows: %w", err)
	}

	return words, nil
}

func (s *PostgresStudentProfileStore) requireProfileUpdated(ctx context.Context, result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "no student profile found to update", "student_id", id)
		return store.ErrStudentProfileNotFound
	}

	return nil
}
