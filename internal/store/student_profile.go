package store

import (
	"context"
	"time"

	"github.com/wordbridge/wordbridge-api/internal/domain"
)

// StudentProfileStore defines the persistence operations for student
// profiles and the grade-level baseline vocabulary.
type StudentProfileStore interface {
	// GetByID retrieves a student profile by its ID.
	// Returns ErrStudentProfileNotFound if the profile does not exist.
	GetByID(ctx context.Context, id int64) (*domain.StudentProfile, error)

	// UpdateVocabularyLevel stores a newly computed vocabulary level.
	UpdateVocabularyLevel(ctx context.Context, id int64, level int) error

	// MarkAnalyzed records when the student's writing was last analyzed.
	MarkAnalyzed(ctx context.Context, id int64, analyzedAt time.Time) error

	// LoadBaselineWords returns up to limit baseline vocabulary words for
	// the given grade, used as "already known, avoid duplicates" context
	// for the recommendation generator.
	LoadBaselineWords(ctx context.Context, gradeLevel, limit int) ([]domain.BaselineWord, error)
}
