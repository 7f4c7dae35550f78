package store

import (
	"context"

	"github.com/wordbridge/wordbridge-api/internal/domain"
)

// RecommendationStore defines the persistence operations for generated
// vocabulary recommendations.
type RecommendationStore interface {
	// ReplaceForUpload atomically deletes any recommendations previously
	// stored for the upload and inserts the new batch. Full replacement
	// (never a merge) is what makes reprocessing an upload idempotent up
	// to last-writer-wins.
	ReplaceForUpload(ctx context.Context, studentID, uploadID int64, recs []domain.Recommendation) error

	// ListForUpload returns the stored recommendations for an upload.
	ListForUpload(ctx context.Context, uploadID int64) ([]domain.Recommendation, error)
}
