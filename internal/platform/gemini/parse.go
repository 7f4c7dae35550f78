package gemini

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wordbridge/wordbridge-api/internal/domain"
	"github.com/wordbridge/wordbridge-api/internal/generation"
)

// responseJSONKey is the wrapper key the system prompt asks the model to
// use. Bare JSON arrays are also accepted.
const responseJSONKey = "recommendations"

// recommendationPayload mirrors one entry of the model's JSON output.
// DifficultyScore stays raw because models occasionally emit it as a
// float or a quoted string.
type recommendationPayload struct {
	Word            string          `json:"word"`
	Definition      string          `json:"definition"`
	Rationale       string          `json:"rationale"`
	DifficultyScore json.RawMessage `json:"difficulty_score"`
	ExampleSentence string          `json:"example_sentence"`
}

// parseRecommendations converts the model's JSON text into domain
// recommendations. Entries with an empty word are skipped, and duplicate
// words (case-insensitive, first wins) are dropped.
func parseRecommendations(text string) ([]domain.Recommendation, error) {
	items, err := extractItems(text)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(items))
	recs := make([]domain.Recommendation, 0, len(items))

	for _, raw := range items {
		var payload recommendationPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			// Non-object entries are skipped, matching the lenient
			// handling of the rest of the entry fields.
			continue
		}

		word := strings.TrimSpace(payload.Word)
		if word == "" {
			continue
		}

		key := strings.ToLower(word)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		recs = append(recs, domain.Recommendation{
			Word:            word,
			Definition:      strings.TrimSpace(payload.Definition),
			Rationale:       strings.TrimSpace(payload.Rationale),
			DifficultyScore: parseDifficulty(payload.DifficultyScore),
			ExampleSentence: strings.TrimSpace(payload.ExampleSentence),
			Status:          domain.RecommendationStatusPending,
		})
	}

	return recs, nil
}

// extractItems accepts either a bare JSON array or an object wrapping
// the array under the "recommendations" key.
func extractItems(text string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}

	raw, ok := wrapper[responseJSONKey]
	if !ok {
		return nil, fmt.Errorf("%w: response missing %q key", generation.ErrInvalidResponse, responseJSONKey)
	}

	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list: %v", generation.ErrInvalidResponse, responseJSONKey, err)
	}

	return items, nil
}

// parseDifficulty reads a difficulty score from raw JSON, defaulting to
// 1 when the value is missing or unusable. Range clamping happens later
// in the content filter.
func parseDifficulty(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}

	var asInt int
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return asInt
	}

	var asFloat float64
	if err := json.Unmarshal(raw, &asFloat); err == nil {
		return int(math.Round(asFloat))
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(asString)); err == nil {
			return n
		}
	}

	return 1
}
