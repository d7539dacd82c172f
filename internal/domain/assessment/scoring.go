package assessment

import (
	"errors"
	"fmt"
	"math"
)

// Answers use a five-point scale from 0 (never) to 4 (always).
const MaxAnswerScore = 4

// Stress level bands over the normalized 0-100 score.
const (
	StressLow      = "low"
	StressModerate = "moderate"
	StressHigh     = "high"
)

var ErrNoAnswers = errors.New("assessment must contain at least one answer")

// Score normalizes a set of raw answer scores to a 0-100 total:
//
//	total = round(sum / (n * 4) * 100)
//
// An empty answer set is rejected before any arithmetic so the zero divisor
// can never be hit. Raw scores outside [0,4] are rejected.
func Score(scores []int) (int, error) {
	if len(scores) == 0 {
		return 0, ErrNoAnswers
	}
	sum := 0
	for i, s := range scores {
		if s < 0 || s > MaxAnswerScore {
			return 0, fmt.Errorf("answer %d: score %d out of range [0,%d]", i, s, MaxAnswerScore)
		}
		sum += s
	}
	max := len(scores) * MaxAnswerScore
	return int(math.Round(float64(sum) / float64(max) * 100)), nil
}

// Classify maps a normalized 0-100 score to a stress level. Boundaries are
// inclusive on the low side: 33 is low, 66 is moderate.
func Classify(total int) string {
	switch {
	case total <= 33:
		return StressLow
	case total <= 66:
		return StressModerate
	default:
		return StressHigh
	}
}
