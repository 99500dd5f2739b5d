package worker

import (
	"context"

	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
)

// RecordAttemptJob stores one task attempt off the request path.
type RecordAttemptJob struct {
	Progress ProgressRecorder
	Input    models.AttemptInput
}

func (j *RecordAttemptJob) Name() string { return "record_attempt" }

func (j *RecordAttemptJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"user_id":     j.Input.UserID,
		"course_id":   j.Input.CourseID,
		"activity_id": j.Input.ActivityID,
	})
	res, err := j.Progress.RecordAttempt(ctx, j.Input)
	if err != nil {
		log.Error("failed to record attempt: %v", err)
		return err
	}
	log.Debug("recorded attempt under key %s", res.TaskKey)
	return nil
}

// CompleteActivityJob scores an activity and raises its highest score.
type CompleteActivityJob struct {
	Progress   ProgressRecorder
	UserID     string
	CourseID   string
	ActivityID string
}

func (j *CompleteActivityJob) Name() string { return "complete_activity" }

func (j *CompleteActivityJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"user_id":     j.UserID,
		"course_id":   j.CourseID,
		"activity_id": j.ActivityID,
	})
	report, err := j.Progress.CompleteActivity(ctx, j.UserID, j.CourseID, j.ActivityID)
	if err != nil {
		log.Error("failed to complete activity: %v", err)
		return err
	}
	log.Info("activity completed: %s", report.Summary)
	return nil
}
