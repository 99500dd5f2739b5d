package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/scoring"
)

func TestEffortAdjustedRatio(t *testing.T) {
	tests := []struct {
		name       string
		completion float64
		hints      bool
		retries    int
		want       float64
	}{
		{"clean", 1, false, 0, 1},
		{"hints", 1, true, 0, 0.75},
		{"one retry", 1, false, 1, 0.85},
		{"retries capped at four", 1, false, 9, 0.4},
		{"hints and two retries", 1, true, 2, 0.525},
		{"partial", 0.5, false, 0, 0.5},
		{"negative retries ignored", 1, false, -2, 1},
		{"out of range completion", 3, false, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoring.EffortAdjustedRatio(tt.completion, tt.hints, tt.retries), 1e-9)
		})
	}
}

func TestFillScoreRatio(t *testing.T) {
	filled := scoring.FillScoreRatio(models.TaskStats{CompletionRatio: ptr(1.0), HintsUsed: ptr(true)})
	require.NotNil(t, filled.ScoreRatio)
	assert.InDelta(t, 0.75, *filled.ScoreRatio, 1e-9)
	assert.Equal(t, 1.0, filled.ResolveCompletionRatio())

	kept := scoring.FillScoreRatio(models.TaskStats{CompletionRatio: ptr(1.0), ScoreRatio: ptr(0.9), HintsUsed: ptr(true)})
	assert.Equal(t, 0.9, *kept.ScoreRatio)
}
