package generation

import (
	"context"

	"github.com/wordbridge/wordbridge-api/internal/domain"
)

// Generator defines the interface for producing vocabulary
// recommendations from a student's writing sample. It is the boundary
// between the pipeline core and external AI services.
//
// The writing sample must already be PII-scrubbed by the caller: nothing
// past this boundary may see identifying text. baseline carries words the
// student already knows, for the generator to avoid; batchSize is the
// number of recommendations requested (implementations may return more or
// fewer, and the caller filters and validates the result).
type Generator interface {
	Generate(
		ctx context.Context,
		profile *domain.StudentProfile,
		writingSample string,
		baseline []domain.BaselineWord,
		batchSize int,
	) ([]domain.Recommendation, error)
}
