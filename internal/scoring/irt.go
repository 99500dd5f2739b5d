package scoring

import (
	"math"

	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/taskkey"
)

const (
	irtMaxIterations  = 15
	irtLearningRate   = 0.8
	irtStepTolerance  = 1e-5
	irtDiscrimination = 1.2
	irtDefaultOptions = 4
	irtMinDifficulty  = -2.0
	irtMaxDifficulty  = 2.0
)

// irtItem is one multiple-choice response under a three-parameter logistic model.
type irtItem struct {
	discrimination float64
	difficulty     float64
	guessing       float64
	observed       float64
}

func (it irtItem) logistic(theta float64) float64 {
	return 1 / (1 + math.Exp(-it.discrimination*(theta-it.difficulty)))
}

func (it irtItem) probability(theta float64) float64 {
	return it.guessing + (1-it.guessing)*it.logistic(theta)
}

func (it irtItem) slope(theta float64) float64 {
	l := it.logistic(theta)
	return (1 - it.guessing) * it.discrimination * l * (1 - l)
}

// EstimateAbility fits a learner ability from the multiple-choice tasks that
// have stats, skipping rapid guesses. ok is false when no task qualifies.
// The estimate is informational and never changes earned XP.
func (c *Calculator) EstimateAbility(tasks []models.Task, stats map[string]models.TaskStats) (theta float64, ok bool) {
	items := c.irtItems(tasks, stats)
	if len(items) == 0 {
		return 0, false
	}

	for i := 0; i < irtMaxIterations; i++ {
		gradient := 0.0
		for _, it := range items {
			gradient += (it.observed - it.probability(theta)) * it.slope(theta)
		}
		step := irtLearningRate * gradient
		theta += step
		if math.Abs(step) < irtStepTolerance {
			break
		}
	}
	return theta, true
}

func (c *Calculator) irtItems(tasks []models.Task, stats map[string]models.TaskStats) []irtItem {
	if len(stats) == 0 {
		return nil
	}
	lookup := taskkey.NewLookup(stats)

	var items []irtItem
	for pos, task := range tasks {
		if task.Type != models.TaskMultipleChoice {
			continue
		}
		s, _, found := lookup.Find(task, pos)
		if !found || c.IsRapidGuess(s) {
			continue
		}
		items = append(items, irtItem{
			discrimination: irtDiscrimination,
			difficulty:     estimateDifficulty(task, s),
			guessing:       guessProbability(task),
			observed:       s.ResolveScoreRatio(),
		})
	}
	return items
}

func guessProbability(task models.Task) float64 {
	options := len(task.Options)
	if options == 0 {
		options = irtDefaultOptions
	}
	return 1 / float64(max(options, 2))
}

func estimateDifficulty(task models.Task, s models.TaskStats) float64 {
	d := 0.15 * float64(max(0, len(task.Options)-irtDefaultOptions))
	d += 0.1 * float64(min(s.RetryCount(), 5))
	if s.UsedHints() {
		d += 0.2
	}
	return math.Max(irtMinDifficulty, math.Min(irtMaxDifficulty, d))
}
