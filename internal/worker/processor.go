package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wordbridge/wordbridge-api/internal/config"
	"github.com/wordbridge/wordbridge-api/internal/contentfilter"
	"github.com/wordbridge/wordbridge-api/internal/domain"
	"github.com/wordbridge/wordbridge-api/internal/extraction"
	"github.com/wordbridge/wordbridge-api/internal/generation"
	"github.com/wordbridge/wordbridge-api/internal/pii"
	"github.com/wordbridge/wordbridge-api/internal/platform/gcs"
	"github.com/wordbridge/wordbridge-api/internal/retry"
	"github.com/wordbridge/wordbridge-api/internal/store"
)

// Processor turns one queued upload into stored vocabulary
// recommendations and an updated student profile. The AI-dependent
// portion of the work runs under the retry policy; permanent failures
// skip retries entirely.
type Processor struct {
	uploads         store.UploadStore
	profiles        store.StudentProfileStore
	recommendations store.RecommendationStore
	fetcher         gcs.Fetcher
	generator       generation.Generator
	filter          *contentfilter.Filter
	retryPolicy     retry.Policy
	analysis        config.AnalysisConfig
	logger          *slog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewProcessor wires a Processor from its dependencies. The retry policy
// is derived from retryCfg; analysisCfg supplies word-count thresholds
// and batch sizing.
func NewProcessor(
	uploads store.UploadStore,
	profiles store.StudentProfileStore,
	recommendations store.RecommendationStore,
	fetcher gcs.Fetcher,
	generator generation.Generator,
	filter *contentfilter.Filter,
	retryCfg config.RetryConfig,
	analysisCfg config.AnalysisConfig,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}

	policy := retry.Policy{
		MaxAttempts: retryCfg.MaxAttempts,
		BaseDelay:   time.Duration(retryCfg.BaseDelaySeconds * float64(time.Second)),
		Cap:         time.Duration(retryCfg.CapSeconds * float64(time.Second)),
		Jitter:      retryCfg.Jitter,
		NonRetryable: func(err error) bool {
			return IsPermanent(err)
		},
	}

	return &Processor{
		uploads:         uploads,
		profiles:        profiles,
		recommendations: recommendations,
		fetcher:         fetcher,
		generator:       generator,
		filter:          filter,
		retryPolicy:     policy,
		analysis:        analysisCfg,
		logger:          logger.With(slog.String("component", "processor")),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Process handles a single upload job end to end. The upload is marked
// processing first; the attempt then runs under the retry policy, and
// the final status (completed or failed, with a processed timestamp) is
// recorded regardless of outcome. Process never returns an error to the
// caller: the JobResult carries the outcome, and the job is acknowledged
// either way.
func (p *Processor) Process(ctx context.Context, uploadID int64) JobResult {
	log := p.logger.With(slog.Int64("upload_id", uploadID))
	startedAt := p.now()

	if err := p.uploads.UpdateStatus(ctx, uploadID, domain.UploadStatusProcessing, nil); err != nil {
		log.ErrorContext(ctx, "failed to mark upload processing", "error", err)
		return JobResult{UploadID: uploadID, Success: false, Error: err.Error()}
	}

	err := retry.Do(ctx, p.retryPolicy, func() error {
		return p.attempt(ctx, uploadID)
	})
	if err != nil {
		processedAt := startedAt
		if markErr := p.uploads.UpdateStatus(ctx, uploadID, domain.UploadStatusFailed, &processedAt); markErr != nil {
			log.ErrorContext(ctx, "failed to mark upload failed", "error", markErr)
		}

		if IsPermanent(err) {
			log.WarnContext(ctx, "permanent failure processing upload", "error", err)
		} else {
			log.ErrorContext(ctx, "failed to process upload after retries", "error", err)
		}
		return JobResult{UploadID: uploadID, Success: false, Error: err.Error()}
	}

	processedAt := startedAt
	if err := p.uploads.UpdateStatus(ctx, uploadID, domain.UploadStatusCompleted, &processedAt); err != nil {
		log.ErrorContext(ctx, "failed to mark upload completed", "error", err)
	}

	log.InfoContext(ctx, "upload processed")
	return JobResult{UploadID: uploadID, Success: true}
}

// attempt runs one full processing pass. Errors wrapped as
// PermanentError abort the retry loop; everything else is retried under
// the policy.
func (p *Processor) attempt(ctx context.Context, uploadID int64) error {
	upload, err := p.uploads.GetByID(ctx, uploadID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return permanent(fmt.Sprintf("upload %d was not found", uploadID), err)
		}
		return fmt.Errorf("failed to load upload %d: %w", uploadID, err)
	}

	profile, err := p.profiles.GetByID(ctx, upload.StudentID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return permanent(fmt.Sprintf("student profile %d not found", upload.StudentID), err)
		}
		return fmt.Errorf("failed to load student profile %d: %w", upload.StudentID, err)
	}

	fileBytes, err := p.fetcher.Fetch(ctx, upload.FilePath)
	if err != nil {
		if errors.Is(err, gcs.ErrFileNotFound) {
			return permanent(fmt.Sprintf("upload file missing for upload %d", uploadID), err)
		}
		return fmt.Errorf("failed to fetch upload file: %w", err)
	}

	text, err := extraction.Extract(fileBytes, upload.Filename)
	if err != nil {
		if errors.Is(err, extraction.ErrUnsupportedFileType) {
			return permanent("unsupported file type", err)
		}
		return fmt.Errorf("failed to extract text: %w", err)
	}

	wordCount := extraction.WordCount(text)
	requiredWords := p.requiredWordCount(profile)
	if wordCount < requiredWords {
		return permanent(fmt.Sprintf("upload %d has %d words; %d required", uploadID, wordCount, requiredWords), nil)
	}

	// Nothing identifying may cross the AI boundary.
	cleaned := pii.Scrub(text)

	baseline, err := p.profiles.LoadBaselineWords(ctx, profile.GradeLevel, p.analysis.BaselineWordLimit)
	if err != nil {
		return fmt.Errorf("failed to load baseline words: %w", err)
	}

	generated, err := p.generator.Generate(ctx, profile, cleaned, baseline, p.analysis.TargetBatchSize)
	if err != nil {
		// Generator errors are always retryable: transport hiccups clear
		// and a fresh call may produce well-formed output.
		return fmt.Errorf("recommendation generation failed for upload %d: %w", uploadID, err)
	}

	filtered := p.filter.Filter(generated)
	if len(filtered) < p.analysis.MinSafeRecommendations {
		return permanent(fmt.Sprintf(
			"fewer than %d recommendations remained after content filtering",
			p.analysis.MinSafeRecommendations), nil)
	}

	newLevel := domain.ComputeVocabularyLevel(profile, filtered)

	if err := p.recommendations.ReplaceForUpload(ctx, upload.StudentID, uploadID, filtered); err != nil {
		return fmt.Errorf("failed to store recommendations: %w", err)
	}

	if err := p.profiles.UpdateVocabularyLevel(ctx, upload.StudentID, newLevel); err != nil {
		return fmt.Errorf("failed to update vocabulary level: %w", err)
	}

	if err := p.profiles.MarkAnalyzed(ctx, upload.StudentID, p.now()); err != nil {
		return fmt.Errorf("failed to mark student analyzed: %w", err)
	}

	p.logger.InfoContext(ctx, "stored recommendations",
		"upload_id", uploadID,
		"student_id", upload.StudentID,
		"recommendation_count", len(filtered),
		"vocabulary_level", newLevel)

	return nil
}

// requiredWordCount picks the word-count threshold: first-time students
// need a fuller writing sample than students with an analyzed profile.
func (p *Processor) requiredWordCount(profile *domain.StudentProfile) int {
	if profile.HasBeenAnalyzed() {
		return p.analysis.MinUpdateWords
	}
	return p.analysis.MinInitialWords
}
