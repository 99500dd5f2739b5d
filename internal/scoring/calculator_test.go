package scoring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/scoring"
)

func ptr[T any](v T) *T { return &v }

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "mc", Title: "Pick one", Type: models.TaskMultipleChoice},
		{ID: "tf", Title: "True or false", Type: models.TaskTrueFalse},
		{ID: "code", Title: "Write a loop", Type: models.TaskCodingChallenge},
		{ID: "info", Title: "Read this", Type: models.TaskInfoCard},
	}
}

func TestMaxXP(t *testing.T) {
	tests := []struct {
		task models.Task
		want int
	}{
		{models.Task{Type: models.TaskMultipleChoice}, 20},
		{models.Task{Type: models.TaskTrueFalse}, 10},
		{models.Task{Type: models.TaskFillInTheBlank}, 15},
		{models.Task{Type: models.TaskMatchingPair}, 25},
		{models.Task{Type: models.TaskOrdering}, 25},
		{models.Task{Type: models.TaskSpotTheError}, 30},
		{models.Task{Type: models.TaskCodingChallenge}, 40},
		{models.Task{Type: models.TaskInfoCard}, 5},
		{models.Task{Type: "essay"}, scoring.DefaultTaskXP},
		{models.Task{Type: models.TaskInfoCard, XP: 12}, 12},
		{models.Task{Type: models.TaskInfoCard, XP: -3}, 5},
	}
	for _, tt := range tests {
		t.Run(string(tt.task.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, scoring.MaxXP(tt.task))
		})
	}
}

func TestBreakdown_LossReasons(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultRapidGuessThreshold)
	tasks := sampleTasks()
	stats := map[string]models.TaskStats{
		"mc":   {CompletionRatio: ptr(1.0), ScoreRatio: ptr(0.0), Retries: ptr(2), TimeSpent: ptr("00:40")},
		"tf":   {CompletionRatio: ptr(1.0), Retries: ptr(0), TimeSpent: ptr("00:01")},
		"code": {CompletionRatio: ptr(1.0), ScoreRatio: ptr(0.5), TimeSpent: ptr("03:10")},
	}

	got := calc.Breakdown(tasks, stats)
	require.Len(t, got, 4)

	assert.Equal(t, models.LossIncorrect, got[0].LossReason)
	assert.Equal(t, 0, got[0].EarnedXP)
	assert.Equal(t, 20, got[0].LostXP)
	assert.Equal(t, "mc", got[0].MatchedKey)

	assert.Equal(t, models.LossRapidGuess, got[1].LossReason)
	assert.Equal(t, 10, got[1].EarnedXP)
	assert.Equal(t, 0, got[1].LostXP)

	assert.Equal(t, models.LossPartiallyCorrect, got[2].LossReason)
	assert.Equal(t, 20, got[2].EarnedXP)
	assert.Equal(t, 20, got[2].LostXP)

	assert.Equal(t, models.LossNotAttempted, got[3].LossReason)
	assert.Nil(t, got[3].Stats)
	assert.Equal(t, 0, got[3].EarnedXP)
	assert.Equal(t, 5, got[3].LostXP)
}

func TestBreakdown_FullCreditIsNotRapidWhenSlowOrRetried(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultRapidGuessThreshold)
	tasks := []models.Task{{ID: "a", Type: models.TaskTrueFalse}, {ID: "b", Type: models.TaskTrueFalse}, {ID: "c", Type: models.TaskTrueFalse}}
	stats := map[string]models.TaskStats{
		"a": {Success: ptr(true), TimeSpent: ptr("00:30")},
		"b": {Success: ptr(true), Retries: ptr(1), TimeSpent: ptr("00:01")},
		"c": {Success: ptr(true)},
	}

	for _, b := range calc.Breakdown(tasks, stats) {
		assert.Equal(t, models.LossNone, b.LossReason, b.Task.ID)
		assert.Equal(t, 10, b.EarnedXP)
	}
}

func TestBreakdown_RapidGuessDisabled(t *testing.T) {
	calc := scoring.NewCalculator(0)
	tasks := []models.Task{{ID: "a", Type: models.TaskTrueFalse}}
	stats := map[string]models.TaskStats{"a": {Success: ptr(true), TimeSpent: ptr("00:00")}}

	assert.Equal(t, models.LossNone, calc.Breakdown(tasks, stats)[0].LossReason)
}

func TestNotAttemptedTasksEarnNothing(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultRapidGuessThreshold)
	for _, b := range calc.Breakdown(sampleTasks(), nil) {
		assert.Equal(t, models.LossNotAttempted, b.LossReason)
		assert.Zero(t, b.EarnedXP)
	}
	assert.Zero(t, calc.EarnedXP(sampleTasks(), map[string]models.TaskStats{}))
}

func TestTotalXP_IgnoresStats(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultRapidGuessThreshold)
	tasks := sampleTasks()

	maps := []map[string]models.TaskStats{
		nil,
		{},
		{"mc": {Success: ptr(true)}},
		{"mc": {TimeSpent: ptr("00:00"), Success: ptr(true)}, "tf": {CompletionRatio: ptr(0.2)}, "junk": {}},
	}
	for _, m := range maps {
		assert.Equal(t, 75, calc.TotalXP(tasks, m))
	}
}

func TestEarnedXP_RoundsPerTask(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultRapidGuessThreshold)
	tasks := []models.Task{{ID: "f", Type: models.TaskFillInTheBlank}}
	stats := map[string]models.TaskStats{"f": {ScoreRatio: ptr(0.5)}}

	assert.Equal(t, 8, calc.EarnedXP(tasks, stats))
	assert.Equal(t, "8/15 XP", calc.Summary(tasks, stats))
}

func TestEarnedXP_ResolvesLegacyTitleKeys(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultRapidGuessThreshold)
	tasks := []models.Task{{ID: "mc-1", Title: "Pick one", Type: models.TaskMultipleChoice}}
	stats := map[string]models.TaskStats{"Pick one": {Success: ptr(true)}}

	assert.Equal(t, 20, calc.EarnedXP(tasks, stats))
}

func TestIsRapidGuess(t *testing.T) {
	calc := scoring.NewCalculator(2 * time.Second)
	assert.True(t, calc.IsRapidGuess(models.TaskStats{TimeSpent: ptr("00:00")}))
	assert.True(t, calc.IsRapidGuess(models.TaskStats{TimeSpent: ptr("1")}))
	assert.False(t, calc.IsRapidGuess(models.TaskStats{TimeSpent: ptr("00:02")}))
	assert.False(t, calc.IsRapidGuess(models.TaskStats{TimeSpent: ptr("soon")}))
	assert.False(t, calc.IsRapidGuess(models.TaskStats{}))
}
