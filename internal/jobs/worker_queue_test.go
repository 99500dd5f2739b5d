package jobs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/learnprogress/internal/jobs"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/testutil/mocks"
	"github.com/vytor/learnprogress/internal/worker"
)

func TestWorkerQueue_RunsEnqueuedWrites(t *testing.T) {
	progress := &mocks.MockProgressService{}
	in := models.AttemptInput{UserID: "u1", CourseID: "c1", ActivityID: "a1", TaskID: "t1"}
	progress.On("RecordAttempt", mock.Anything, in).Return(&models.AttemptResult{TaskKey: "t1"}, nil).Once()
	progress.On("CompleteActivity", mock.Anything, "u1", "c1", "a1").Return(&models.ActivityReport{Summary: "10/10 XP"}, nil).Once()

	pool := worker.NewPool(1, 4, nil)
	pool.Start(context.Background())
	q := jobs.NewWorkerQueue(pool, progress)

	require.NoError(t, q.EnqueueAttempt(in))
	require.NoError(t, q.EnqueueCompletion("u1", "c1", "a1"))
	pool.Stop()

	progress.AssertExpectations(t)
}

func TestWorkerQueue_StoppedPool(t *testing.T) {
	pool := worker.NewPool(1, 1, nil)
	pool.Start(context.Background())
	pool.Stop()
	q := jobs.NewWorkerQueue(pool, &mocks.MockProgressService{})

	assert.ErrorIs(t, q.EnqueueAttempt(models.AttemptInput{}), worker.ErrPoolStopped)
}
