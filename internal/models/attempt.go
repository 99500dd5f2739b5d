package models

// AttemptInput is one task result submitted by a client. TaskID may carry
// the task's id or, for content without ids, its title. TaskPosition, when
// set, selects the task by its 0-based position in the activity instead.
type AttemptInput struct {
	UserID       string    `json:"user_id"`
	CourseID     string    `json:"course_id"`
	ActivityID   string    `json:"activity_id"`
	TaskID       string    `json:"task_id,omitempty"`
	TaskPosition *int      `json:"task_position,omitempty"`
	Stats        TaskStats `json:"stats"`
}

type AttemptResult struct {
	TaskKey string    `json:"task_key"`
	Stats   TaskStats `json:"stats"`
}
