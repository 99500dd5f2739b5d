package models

import "fmt"

// ActivitySnapshot is the persisted progress of one learner on one activity.
type ActivitySnapshot struct {
	UserID       string               `json:"userId"`
	CourseID     string               `json:"courseId"`
	ActivityID   string               `json:"activityId"`
	HighestScore *int                 `json:"highestScore,omitempty"`
	TaskStats    map[string]TaskStats `json:"taskStats"`

	Extra map[string]any `json:"-"`
}

// ModuleProgress is the per-module completion counter stored under
// progressSummary.moduleProgress.
type ModuleProgress struct {
	CompletedTasks int `json:"completedTasks"`
	TotalTasks     int `json:"totalTasks"`
}

func (m ModuleProgress) CompletionPercentage() float64 {
	return Percentage(m.CompletedTasks, m.TotalTasks)
}

func (m ModuleProgress) IsCompleted() bool {
	return m.TotalTasks > 0 && m.CompletedTasks >= m.TotalTasks
}

type ProgressSummary struct {
	SchemaVersion     int                       `json:"schemaVersion"`
	ActivitySnapshots []ActivitySnapshot        `json:"activitySnapshots"`
	ModuleProgress    map[string]ModuleProgress `json:"moduleProgress,omitempty"`

	Extra map[string]any `json:"-"`
}

// Enrollment is the per user and course document owning all progress.
type Enrollment struct {
	UserID          string          `json:"userId"`
	CourseID        string          `json:"courseId"`
	EnrollmentDate  string          `json:"enrollmentDate,omitempty"`
	SelfEnrolled    bool            `json:"selfEnrolled"`
	EnrolledBy      string          `json:"enrolledBy,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	ProgressSummary ProgressSummary `json:"progressSummary"`

	Extra map[string]any `json:"-"`
}

// FindSnapshot returns the snapshot for activityID, if any.
func (p *ProgressSummary) FindSnapshot(activityID string) (*ActivitySnapshot, bool) {
	for i := range p.ActivitySnapshots {
		if p.ActivitySnapshots[i].ActivityID == activityID {
			return &p.ActivitySnapshots[i], true
		}
	}
	return nil, false
}

// ActivityTarget names the activity a progress write is for. Match reports
// whether a stored snapshot already holds that activity's progress; when nil
// only a snapshot whose activityId equals ActivityID does.
type ActivityTarget struct {
	ActivityID string
	Match      func(ActivitySnapshot) bool
}

func (t ActivityTarget) Matches(s ActivitySnapshot) bool {
	if t.Match != nil {
		return t.Match(s)
	}
	return s.ActivityID == t.ActivityID
}

// EnrollmentDocID is the document id of a user's enrollment in a course.
func EnrollmentDocID(userID, courseID string) string {
	return userID + "_" + courseID
}

type ActivityProgress struct {
	ActivityID     string `json:"activity_id"`
	Title          string `json:"title,omitempty"`
	ModuleKey      string `json:"module_key,omitempty"`
	TotalTasks     int    `json:"total_tasks"`
	AttemptedTasks int    `json:"attempted_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
	CreditedTasks  int    `json:"credited_tasks"`
	EarnedXP       int    `json:"earned_xp"`
	TotalXP        int    `json:"total_xp"`
	HighestScore   *int   `json:"highest_score,omitempty"`
	Started        bool   `json:"started"`
	Removed        bool   `json:"removed,omitempty"`
}

type CourseProgress struct {
	UserID               string                    `json:"user_id"`
	CourseID             string                    `json:"course_id"`
	TotalTasks           int                       `json:"total_tasks"`
	AttemptedTasks       int                       `json:"attempted_tasks"`
	CompletedTasks       int                       `json:"completed_tasks"`
	CreditedTasks        int                       `json:"credited_tasks"`
	TotalActivities      int                       `json:"total_activities"`
	StartedActivities    int                       `json:"started_activities"`
	EarnedXP             int                       `json:"earned_xp"`
	TotalXP              int                       `json:"total_xp"`
	CompletionPercentage float64                   `json:"completion_percentage"`
	Modules              map[string]ModuleProgress `json:"modules"`
	Activities           []ActivityProgress        `json:"activities"`
	DuplicateTitles      map[string][]string       `json:"duplicate_titles,omitempty"`
}

type EnrollmentProgress struct {
	Enrollment Enrollment     `json:"enrollment"`
	Progress   CourseProgress `json:"progress"`
}

// Percentage returns part/total*100, or 0 when total is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

// ScoreSummary renders "earned/total XP".
func ScoreSummary(earned, total int) string {
	return fmt.Sprintf("%d/%d XP", earned, total)
}
