// Package contentfilter normalizes generator output and strips
// recommendations that fail profanity or basic validity checks before
// they are stored for educator review.
package contentfilter

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"

	goaway "github.com/TwiN/go-away"

	"github.com/wordbridge/wordbridge-api/internal/domain"
)

// Filter screens vocabulary recommendations. When disabled, entries are
// still normalized (trimmed, difficulty clamped) but profanity is not
// checked.
type Filter struct {
	detector *goaway.ProfanityDetector
	enabled  bool
	logger   *slog.Logger
}

// Option configures a Filter.
type Option func(*options)

type options struct {
	enabled        bool
	extraWordsPath string
}

// WithEnabled toggles profanity checking.
func WithEnabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// WithExtraWordsFile loads additional blocked words, one per line.
func WithExtraWordsFile(path string) Option {
	return func(o *options) { o.extraWordsPath = path }
}

// New builds a Filter with the default profanity dictionary plus any
// configured extra words.
func New(logger *slog.Logger, opts ...Option) (*Filter, error) {
	o := options{enabled: true}
	for _, opt := range opts {
		opt(&o)
	}

	detector := goaway.NewProfanityDetector()

	if o.extraWordsPath != "" {
		extra, err := loadExtraWords(o.extraWordsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load extra blocked words: %w", err)
		}
		if len(extra) > 0 {
			profanities := make([]string, 0, len(goaway.DefaultProfanities)+len(extra))
			profanities = append(profanities, goaway.DefaultProfanities...)
			profanities = append(profanities, extra...)
			detector = goaway.NewProfanityDetector().WithCustomDictionary(
				profanities,
				goaway.DefaultFalsePositives,
				goaway.DefaultFalseNegatives,
			)
			logger.Info("loaded extra blocked words", "count", len(extra))
		}
	}

	return &Filter{
		detector: detector,
		enabled:  o.enabled,
		logger:   logger.With("component", "content_filter"),
	}, nil
}

// Filter returns the recommendations that survive normalization and
// screening. Entries with an empty word or definition are dropped; when
// the filter is enabled, entries with blocked language in the word,
// definition, or example sentence are dropped too.
func (f *Filter) Filter(recs []domain.Recommendation) []domain.Recommendation {
	kept := make([]domain.Recommendation, 0, len(recs))

	for _, rec := range recs {
		entry := normalize(rec)

		if !hasContent(entry.Word) || !hasContent(entry.Definition) {
			continue
		}

		if f.enabled && f.containsBlockedLanguage(entry.Word, entry.Definition, entry.ExampleSentence) {
			f.logger.Debug("dropping recommendation with blocked language", "word", entry.Word)
			continue
		}

		kept = append(kept, entry)
	}

	return kept
}

func (f *Filter) containsBlockedLanguage(fields ...string) bool {
	for _, field := range fields {
		if field != "" && f.detector.IsProfane(field) {
			return true
		}
	}
	return false
}

// normalize trims every text field, defaults the review status, and
// clamps the difficulty score into [1,10].
func normalize(rec domain.Recommendation) domain.Recommendation {
	rec.Word = strings.TrimSpace(rec.Word)
	rec.Definition = strings.TrimSpace(rec.Definition)
	rec.Rationale = strings.TrimSpace(rec.Rationale)
	rec.ExampleSentence = strings.TrimSpace(rec.ExampleSentence)
	if rec.Status == "" {
		rec.Status = domain.RecommendationStatusPending
	}
	rec.ClampDifficulty()
	return rec
}

// hasContent reports whether the field carries at least one letter.
func hasContent(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func loadExtraWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if word := strings.TrimSpace(scanner.Text()); word != "" {
			words = append(words, word)
		}
	}
	return words, scanner.Err()
}
