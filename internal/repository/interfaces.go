package repository

import (
	"context"
	"errors"

	"github.com/vytor/learnprogress/internal/models"
)

// ErrNotFound is returned when the enrollment document does not exist.
var ErrNotFound = errors.New("enrollment not found")

// EnrollmentRepository handles enrollment documents
type EnrollmentRepository interface {
	// Enroll creates the enrollment if it does not exist yet and returns the
	// stored one either way.
	Enroll(ctx context.Context, e models.Enrollment) (*models.Enrollment, error)
	Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Enrollment, error)
}

// ActivityProgressRepository writes per-activity progress inside the
// enrollment document. Every stored snapshot the target matches is treated
// as the activity's progress. Writes to a missing enrollment are no-ops and
// report applied=false.
type ActivityProgressRepository interface {
	StartActivity(ctx context.Context, userID, courseID string, target models.ActivityTarget) (applied bool, err error)
	AddTaskStats(ctx context.Context, userID, courseID string, target models.ActivityTarget, taskKey string, stats models.TaskStats) (applied bool, err error)
	ResetTaskStats(ctx context.Context, userID, courseID string, target models.ActivityTarget) (applied bool, err error)
	UpdateHighestScoreIfGreater(ctx context.Context, userID, courseID string, target models.ActivityTarget, score int) (updated bool, err error)
}
