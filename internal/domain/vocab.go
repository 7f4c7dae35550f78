package domain

import "math"

// Vocabulary level computation constants. The baseline anchors each grade
// to a starting level; the average recommendation difficulty shifts the
// proposal around that anchor, and established profiles blend the proposal
// with the previous level to dampen volatility from any single upload.
const (
	vocabLevelFloor   = 200
	vocabLevelCeiling = 1000
	vocabScoreWeight  = 40
	vocabNeutralScore = 5

	vocabBlendPrevious = 0.7
	vocabBlendProposed = 0.3
)

// BaselineVocabularyLevel returns the starting vocabulary level for a
// grade. Grades outside the supported middle school band fall back to a
// neutral midpoint.
func BaselineVocabularyLevel(gradeLevel int) int {
	switch gradeLevel {
	case 6:
		return 450
	case 7:
		return 550
	case 8:
		return 650
	default:
		return 500
	}
}

// ComputeVocabularyLevel derives a student's updated vocabulary level from
// the filtered recommendations of one processed upload.
//
// Each recommendation's difficulty score is clamped to [1,10] and
// averaged (an empty batch averages to the neutral score 5). The proposed
// level is the grade baseline shifted by 40 points per difficulty point
// above or below neutral, clamped to [200,1000]. A profile with no prior
// level or that has never been analyzed adopts the proposal directly;
// otherwise the proposal is blended 30/70 against the previous level.
func ComputeVocabularyLevel(profile *StudentProfile, recs []Recommendation) int {
	base := BaselineVocabularyLevel(profile.GradeLevel)

	var sum, count int
	for _, rec := range recs {
		score := rec.DifficultyScore
		if score < MinDifficultyScore {
			score = MinDifficultyScore
		}
		if score > MaxDifficultyScore {
			score = MaxDifficultyScore
		}
		sum += score
		count++
	}

	avg := float64(vocabNeutralScore)
	if count > 0 {
		avg = float64(sum) / float64(count)
	}

	proposed := int(math.Round(float64(base) + (avg-vocabNeutralScore)*vocabScoreWeight))
	if proposed < vocabLevelFloor {
		proposed = vocabLevelFloor
	}
	if proposed > vocabLevelCeiling {
		proposed = vocabLevelCeiling
	}

	if profile.VocabularyLevel == nil || !profile.HasBeenAnalyzed() {
		return proposed
	}

	blended := float64(*profile.VocabularyLevel)*vocabBlendPrevious + float64(proposed)*vocabBlendProposed
	return int(math.Round(blended))
}
