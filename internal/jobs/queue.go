package jobs

import "github.com/vytor/learnprogress/internal/models"

// JobQueue provides an abstraction for enqueueing background progress writes
type JobQueue interface {
	EnqueueAttempt(in models.AttemptInput) error
	EnqueueCompletion(userID, courseID, activityID string) error
}
