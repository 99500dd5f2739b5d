package jobs

import (
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	pool     *worker.Pool
	progress worker.ProgressRecorder
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, progress worker.ProgressRecorder) JobQueue {
	return &WorkerQueue{
		pool:     pool,
		progress: progress,
	}
}

func (q *WorkerQueue) EnqueueAttempt(in models.AttemptInput) error {
	return q.pool.Submit(&worker.RecordAttemptJob{
		Progress: q.progress,
		Input:    in,
	})
}

func (q *WorkerQueue) EnqueueCompletion(userID, courseID, activityID string) error {
	return q.pool.Submit(&worker.CompleteActivityJob{
		Progress:   q.progress,
		UserID:     userID,
		CourseID:   courseID,
		ActivityID: activityID,
	})
}
