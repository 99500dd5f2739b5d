package scoring

import "github.com/vytor/learnprogress/internal/models"

const DefaultTaskXP = 10

var xpByType = map[models.TaskType]int{
	models.TaskMultipleChoice:  20,
	models.TaskTrueFalse:       10,
	models.TaskFillInTheBlank:  15,
	models.TaskMatchingPair:    25,
	models.TaskOrdering:        25,
	models.TaskSpotTheError:    30,
	models.TaskCodingChallenge: 40,
	models.TaskInfoCard:        5,
}

// MaxXP is the XP a task is worth: the content-defined value when positive,
// otherwise the default for its type.
func MaxXP(task models.Task) int {
	if task.XP > 0 {
		return task.XP
	}
	if xp, ok := xpByType[task.Type]; ok {
		return xp
	}
	return DefaultTaskXP
}
