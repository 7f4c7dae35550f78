package gemini

import (
	"fmt"
	"strings"

	"github.com/wordbridge/wordbridge-api/internal/domain"
)

const (
	// maxSampleChars bounds how much of the writing sample is sent to
	// the model; longer samples are truncated with an ellipsis.
	maxSampleChars = 6000

	// baselineSummaryLimit caps how many baseline words are listed as
	// "already familiar" context.
	baselineSummaryLimit = 25

	// minBatchFloor is the smallest batch ever requested from the model,
	// regardless of configuration.
	minBatchFloor = 5
)

const systemPrompt = "You are an expert literacy coach who creates age-appropriate vocabulary suggestions " +
	"for middle school students. Avoid profanity and overly mature language. " +
	"Return JSON with a key 'recommendations' containing a list of objects. " +
	"Each object must include the fields: " +
	"'word' (string), 'definition' (string), 'rationale' (string explaining why " +
	"the student should learn the word), 'difficulty_score' (integer 1-10), " +
	"and 'example_sentence' (string, age-appropriate, using the word correctly). " +
	"Do not include any additional keys or commentary."

// buildPrompt assembles the user-turn prompt from the student's profile,
// the scrubbed writing sample, and the baseline vocabulary summary.
func buildPrompt(
	profile *domain.StudentProfile,
	writingSample string,
	baseline []domain.BaselineWord,
	batchSize int,
) string {
	vocabularyLevel := "unknown"
	if profile.VocabularyLevel != nil {
		vocabularyLevel = fmt.Sprintf("%d", *profile.VocabularyLevel)
	}

	lines := []string{
		fmt.Sprintf("Student grade level: %d", profile.GradeLevel),
		fmt.Sprintf("Current vocabulary level estimate: %s", vocabularyLevel),
		fmt.Sprintf("Target recommendations: %d words", minimumBatch(batchSize)),
	}

	if summary := baselineSummary(baseline); summary != "" {
		lines = append(lines, "Baseline vocabulary already familiar to the student (avoid duplicates): "+summary)
	}

	lines = append(lines, "Student writing sample (cleaned):", truncate(writingSample, maxSampleChars))

	return strings.Join(lines, "\n")
}

// baselineSummary joins up to baselineSummaryLimit distinct baseline
// words, comparing case-insensitively and preserving first-seen order.
func baselineSummary(baseline []domain.BaselineWord) string {
	seen := make(map[string]struct{}, len(baseline))
	words := make([]string, 0, baselineSummaryLimit)

	for _, entry := range baseline {
		word := strings.TrimSpace(entry.Word)
		if word == "" {
			continue
		}
		key := strings.ToLower(word)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		words = append(words, word)
		if len(words) >= baselineSummaryLimit {
			break
		}
	}

	return strings.Join(words, ", ")
}

func minimumBatch(batchSize int) int {
	if batchSize < minBatchFloor {
		return minBatchFloor
	}
	return batchSize
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
