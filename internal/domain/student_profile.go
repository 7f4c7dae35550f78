package domain

import (
	"errors"
	"time"
)

// Common validation errors for StudentProfile
var (
	ErrInvalidStudentID    = errors.New("student profile ID must be positive")
	ErrInvalidGradeLevel   = errors.New("grade level must be between 1 and 12")
	ErrInvalidVocabLevel   = errors.New("vocabulary level must be between 200 and 1000")
	ErrEmptyStudentDisplay = errors.New("student display name cannot be empty")
)

// StudentProfile represents the analyzed state of one student.
// VocabularyLevel and LastAnalyzedAt are nil until the first upload for
// the student has been processed; the processor uses LastAnalyzedAt to
// pick the word-count threshold and the level-blending rule.
type StudentProfile struct {
	ID              int64      `json:"id"`
	EducatorID      int64      `json:"educator_id"`
	DisplayName     string     `json:"display_name"`
	GradeLevel      int        `json:"grade_level"`
	VocabularyLevel *int       `json:"vocabulary_level,omitempty"`
	LastAnalyzedAt  *time.Time `json:"last_analyzed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Validate checks if the StudentProfile has valid data.
func (p *StudentProfile) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidStudentID
	}

	if p.DisplayName == "" {
		return ErrEmptyStudentDisplay
	}

	if p.GradeLevel < 1 || p.GradeLevel > 12 {
		return ErrInvalidGradeLevel
	}

	if p.VocabularyLevel != nil && (*p.VocabularyLevel < 200 || *p.VocabularyLevel > 1000) {
		return ErrInvalidVocabLevel
	}

	return nil
}

// HasBeenAnalyzed reports whether any upload for this student has
// completed analysis before. Returning students need less text to update
// their profile than first-time students.
func (p *StudentProfile) HasBeenAnalyzed() bool {
	return p.LastAnalyzedAt != nil
}

// BaselineWord is one entry of the grade-level vocabulary list used as
// "already known, avoid duplicates" context for the generator.
type BaselineWord struct {
	Word            string `json:"word"`
	GradeLevel      int    `json:"grade_level"`
	DifficultyScore int    `json:"difficulty_score"`
}
