package domain

import (
	"errors"
	"time"
)

// RecommendationStatus represents the review state of a recommendation
type RecommendationStatus string

// Possible recommendation status values
const (
	RecommendationStatusPending  RecommendationStatus = "pending"
	RecommendationStatusAccepted RecommendationStatus = "accepted"
	RecommendationStatusRejected RecommendationStatus = "rejected"
)

// Difficulty score bounds for recommendations
const (
	MinDifficultyScore = 1
	MaxDifficultyScore = 10
)

// Common validation errors for Recommendation
var (
	ErrEmptyRecommendationWord = errors.New("recommendation word cannot be empty")
	ErrInvalidDifficultyScore  = errors.New("difficulty score must be between 1 and 10")
)

// Recommendation is one AI-suggested vocabulary word for a student,
// produced from a specific upload. Reprocessing an upload fully replaces
// its recommendations rather than merging them.
type Recommendation struct {
	ID              int64                `json:"id"`
	StudentID       int64                `json:"student_id"`
	UploadID        int64                `json:"upload_id"`
	Word            string               `json:"word"`
	Definition      string               `json:"definition"`
	Rationale       string               `json:"rationale"`
	DifficultyScore int                  `json:"difficulty_score"`
	ExampleSentence string               `json:"example_sentence"`
	Status          RecommendationStatus `json:"status"`
	Pinned          bool                 `json:"pinned"`
	CreatedAt       time.Time            `json:"created_at"`
}

// Validate checks if the Recommendation has valid data.
func (r *Recommendation) Validate() error {
	if r.Word == "" {
		return ErrEmptyRecommendationWord
	}

	if r.DifficultyScore < MinDifficultyScore || r.DifficultyScore > MaxDifficultyScore {
		return ErrInvalidDifficultyScore
	}

	return nil
}

// ClampDifficulty forces the difficulty score into the valid range.
// Generator output is untrusted and occasionally wanders out of bounds.
func (r *Recommendation) ClampDifficulty() {
	if r.DifficultyScore < MinDifficultyScore {
		r.DifficultyScore = MinDifficultyScore
	}
	if r.DifficultyScore > MaxDifficultyScore {
		r.DifficultyScore = MaxDifficultyScore
	}
}
