package models

type TaskType string

const (
	TaskMultipleChoice  TaskType = "multiple_choice"
	TaskTrueFalse       TaskType = "true_false"
	TaskFillInTheBlank  TaskType = "fill_in_the_blank"
	TaskMatchingPair    TaskType = "matching_pair"
	TaskOrdering        TaskType = "ordering"
	TaskSpotTheError    TaskType = "spot_the_error"
	TaskCodingChallenge TaskType = "coding_challenge"
	TaskInfoCard        TaskType = "info_card"
)

type Task struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Type        TaskType `json:"type" yaml:"type"`
	Status      string   `json:"status,omitempty" yaml:"status"`
	XP          int      `json:"xp,omitempty" yaml:"xp"`
	Options     []string `json:"options,omitempty" yaml:"options"`
}

type Activity struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

type Module struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Activities []Activity `json:"activities" yaml:"activities"`
}

// Course holds its activities in modules. Older courses list activities
// directly on the course; those belong to no module.
type Course struct {
	ID         string     `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Activities []Activity `json:"activities,omitempty" yaml:"activities"`
	Modules    []Module   `json:"modules" yaml:"modules"`
}

// FindActivity looks up an activity by exact id across the course and all
// modules.
func (c *Course) FindActivity(activityID string) (*Activity, bool) {
	if c == nil {
		return nil, false
	}
	for ai := range c.Activities {
		if c.Activities[ai].ID == activityID {
			return &c.Activities[ai], true
		}
	}
	for mi := range c.Modules {
		for ai := range c.Modules[mi].Activities {
			if c.Modules[mi].Activities[ai].ID == activityID {
				return &c.Modules[mi].Activities[ai], true
			}
		}
	}
	return nil, false
}
