// Package scoring turns recorded task stats into XP.
package scoring

import (
	"math"
	"time"

	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/taskkey"
)

// DefaultRapidGuessThreshold flags answers recorded in under two seconds,
// i.e. "00:00" and "00:01".
const DefaultRapidGuessThreshold = 2 * time.Second

// Calculator scores an activity's tasks against a stats map. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	rapidGuessThreshold time.Duration
}

// NewCalculator returns a Calculator. A non-positive threshold disables
// rapid-guess detection.
func NewCalculator(rapidGuessThreshold time.Duration) *Calculator {
	return &Calculator{rapidGuessThreshold: rapidGuessThreshold}
}

// IsRapidGuess reports whether the recorded time on task is known and below
// the threshold. Unknown time is never a rapid guess.
func (c *Calculator) IsRapidGuess(stats models.TaskStats) bool {
	if c.rapidGuessThreshold <= 0 {
		return false
	}
	d, ok := stats.TimeSpentDuration()
	return ok && d < c.rapidGuessThreshold
}

// Breakdown scores every task in order.
func (c *Calculator) Breakdown(tasks []models.Task, stats map[string]models.TaskStats) []models.TaskScoreBreakdown {
	lookup := taskkey.NewLookup(stats)
	out := make([]models.TaskScoreBreakdown, 0, len(tasks))

	for pos, task := range tasks {
		maxXP := MaxXP(task)
		b := models.TaskScoreBreakdown{Task: task, TotalXP: maxXP}

		s, key, ok := lookup.Find(task, pos)
		if !ok {
			b.LostXP = maxXP
			b.LossReason = models.LossNotAttempted
			out = append(out, b)
			continue
		}

		found := s
		ratio := s.ResolveScoreRatio()
		b.Stats = &found
		b.MatchedKey = key
		b.ScoreRatio = ratio
		b.EarnedXP = int(math.Round(float64(maxXP) * ratio))
		b.LostXP = max(0, maxXP-b.EarnedXP)
		b.LossReason = c.lossReason(s, ratio)
		out = append(out, b)
	}
	return out
}

func (c *Calculator) lossReason(s models.TaskStats, ratio float64) models.LossReason {
	switch {
	case ratio <= 0:
		return models.LossIncorrect
	case ratio < 1:
		return models.LossPartiallyCorrect
	case s.RetryCount() == 0 && c.IsRapidGuess(s):
		return models.LossRapidGuess
	default:
		return models.LossNone
	}
}

// EarnedXP sums the XP earned across tasks.
func (c *Calculator) EarnedXP(tasks []models.Task, stats map[string]models.TaskStats) int {
	total := 0
	for _, b := range c.Breakdown(tasks, stats) {
		total += b.EarnedXP
	}
	return total
}

// TotalXP is the XP available across tasks. stats is accepted for symmetry
// with EarnedXP and does not affect the result.
func (c *Calculator) TotalXP(tasks []models.Task, _ map[string]models.TaskStats) int {
	total := 0
	for _, t := range tasks {
		total += MaxXP(t)
	}
	return total
}

// Summary renders "earned/total XP" for tasks.
func (c *Calculator) Summary(tasks []models.Task, stats map[string]models.TaskStats) string {
	return models.ScoreSummary(c.EarnedXP(tasks, stats), c.TotalXP(tasks, stats))
}
