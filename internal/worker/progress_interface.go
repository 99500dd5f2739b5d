package worker

import (
	"context"

	"github.com/vytor/learnprogress/internal/models"
)

// ProgressRecorder is the slice of the progress service that background
// jobs write through. Declared here so worker does not import services.
type ProgressRecorder interface {
	RecordAttempt(ctx context.Context, in models.AttemptInput) (*models.AttemptResult, error)
	CompleteActivity(ctx context.Context, userID, courseID, activityID string) (*models.ActivityReport, error)
}
