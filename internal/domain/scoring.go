package domain

import (
	"fmt"
	"math"
)

// Score bounds for judge scores. Raw scores outside this range are
// clamped, never rejected.
const (
	MinScore = 1.0
	MaxScore = 10.0
)

// PenaltyScore is the synthetic result assigned to active players who
// never submitted during a round. It equals the panel floor, so a
// no-show is indistinguishable from failing every judge.
const PenaltyScore = 1.0

// ClampScore bounds a raw judge score to [MinScore, MaxScore].
func ClampScore(score float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, score))
}

// RoundScore rounds a score to one decimal, half away from zero on the
// scaled value: RoundScore(7.25) == 7.3.
func RoundScore(score float64) float64 {
	return math.Floor(score*10+0.5) / 10
}

// AggregateScores combines per-judge feedback into the two scores the
// game ranks on: the unweighted arithmetic mean and the weighted
// composite. judges[i].Weight aligns positionally with feedback[i];
// this is a strict positional contract, not a lookup by name.
//
// Both results are rounded to one decimal and, given the input clamp
// invariant, lie in [MinScore, MaxScore]. An empty feedback list is
// invalid input and fails fast.
func AggregateScores(feedback []JudgeFeedback, judges []Judge) (total, weighted float64, err error) {
	if len(feedback) == 0 {
		return 0, 0, ErrNoFeedback
	}
	if len(feedback) != len(judges) {
		return 0, 0, fmt.Errorf("%w: %d feedback entries for %d judges",
			ErrInvalidPanel, len(feedback), len(judges))
	}

	var sum, weightedSum float64
	for i, fb := range feedback {
		sum += fb.Score
		weightedSum += fb.Score * judges[i].Weight
	}

	total = RoundScore(sum / float64(len(feedback)))
	weighted = RoundScore(weightedSum)
	return total, weighted, nil
}
