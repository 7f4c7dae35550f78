package gemini

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wordbridge/wordbridge-api/internal/domain"
)

func testProfile(vocabLevel *int) *domain.StudentProfile {
	return &domain.StudentProfile{
		ID:              7,
		EducatorID:      3,
		DisplayName:     "Student A",
		GradeLevel:      7,
		VocabularyLevel: vocabLevel,
	}
}

func TestBuildPrompt_IncludesProfileAndSample(t *testing.T) {
	t.Parallel()

	level := 620
	baseline := []domain.BaselineWord{
		{Word: "journey", GradeLevel: 7, DifficultyScore: 3},
		{Word: "观察", GradeLevel: 7, DifficultyScore: 4},
	}

	prompt := buildPrompt(testProfile(&level), "The fox ran across the field.", baseline, 8)

	assert.Contains(t, prompt, "Student grade level: 7")
	assert.Contains(t, prompt, "Current vocabulary level estimate: 620")
	assert.Contains(t, prompt, "Target recommendations: 8 words")
	assert.Contains(t, prompt, "avoid duplicates): journey, 观察")
	assert.Contains(t, prompt, "The fox ran across the field.")
}

func TestBuildPrompt_UnknownVocabularyLevel(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt(testProfile(nil), "Sample text.", nil, 5)

	assert.Contains(t, prompt, "Current vocabulary level estimate: unknown")
	assert.NotContains(t, prompt, "avoid duplicates")
}

func TestBuildPrompt_EnforcesMinimumBatch(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt(testProfile(nil), "Sample text.", nil, 2)

	assert.Contains(t, prompt, "Target recommendations: 5 words")
}

func TestBuildPrompt_TruncatesLongSamples(t *testing.T) {
	t.Parallel()

	sample := strings.Repeat("a", maxSampleChars+500)
	prompt := buildPrompt(testProfile(nil), sample, nil, 5)

	assert.True(t, strings.HasSuffix(prompt, "..."))
	assert.Less(t, len(prompt), len(sample))
}

func TestBaselineSummary_DeduplicatesAndLimits(t *testing.T) {
	t.Parallel()

	baseline := []domain.BaselineWord{
		{Word: "Echo"},
		{Word: "echo"},
		{Word: "  "},
		{Word: "ripple"},
	}
	assert.Equal(t, "Echo, ripple", baselineSummary(baseline))

	many := make([]domain.BaselineWord, 0, baselineSummaryLimit+10)
	for i := 0; i < baselineSummaryLimit+10; i++ {
		many = append(many, domain.BaselineWord{Word: "word" + string(rune('a'+i%26)) + string(rune('a'+i/26))})
	}
	summary := baselineSummary(many)
	assert.Len(t, strings.Split(summary, ", "), baselineSummaryLimit)
}
