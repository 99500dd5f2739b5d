package scoring

import "github.com/vytor/learnprogress/internal/models"

const (
	hintPenalty       = 0.75
	retryPenaltyStep  = 0.15
	retryPenaltyLimit = 4
)

// EffortAdjustedRatio derives a score ratio from a completion ratio, taking
// a quarter off when hints were used and 15% per retry, capped at four.
func EffortAdjustedRatio(completion float64, hintsUsed bool, retries int) float64 {
	r := models.ClampRatio(completion)
	if hintsUsed {
		r *= hintPenalty
	}
	if retries > 0 {
		r *= 1 - retryPenaltyStep*float64(min(retries, retryPenaltyLimit))
	}
	return models.ClampRatio(r)
}

// FillScoreRatio sets ScoreRatio from the effort modifiers when the client
// did not send one. Stats that already carry a score ratio are returned as is.
func FillScoreRatio(s models.TaskStats) models.TaskStats {
	if s.ScoreRatio != nil {
		return s
	}
	r := EffortAdjustedRatio(s.ResolveCompletionRatio(), s.UsedHints(), s.RetryCount())
	s.ScoreRatio = &r
	return s
}
