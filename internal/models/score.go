package models

type LossReason string

const (
	LossNone             LossReason = "NONE"
	LossNotAttempted     LossReason = "NOT_ATTEMPTED"
	LossIncorrect        LossReason = "INCORRECT"
	LossPartiallyCorrect LossReason = "PARTIALLY_CORRECT"
	LossRapidGuess       LossReason = "RAPID_GUESS"
)

type TaskScoreBreakdown struct {
	Task       Task       `json:"task"`
	Stats      *TaskStats `json:"stats,omitempty"`
	MatchedKey string     `json:"matched_key,omitempty"`
	TotalXP    int        `json:"total_xp"`
	EarnedXP   int        `json:"earned_xp"`
	LostXP     int        `json:"lost_xp"`
	ScoreRatio float64    `json:"score_ratio"`
	LossReason LossReason `json:"loss_reason"`
}

type ActivityReport struct {
	UserID          string               `json:"user_id"`
	CourseID        string               `json:"course_id"`
	ActivityID      string               `json:"activity_id"`
	Tasks           []TaskScoreBreakdown `json:"tasks"`
	EarnedXP        int                  `json:"earned_xp"`
	TotalXP         int                  `json:"total_xp"`
	HighestScore    *int                 `json:"highest_score,omitempty"`
	AbilityEstimate *float64             `json:"ability_estimate,omitempty"`
	Summary         string               `json:"summary"`
	DuplicateTitles map[string][]string  `json:"duplicate_titles,omitempty"`
}
