package worker_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/testutil/mocks"
	"github.com/vytor/learnprogress/internal/worker"
)

type outcomes struct {
	mu   sync.Mutex
	seen map[string]int
}

func (o *outcomes) JobDone(job, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seen == nil {
		o.seen = map[string]int{}
	}
	o.seen[job+"/"+outcome]++
}

func (o *outcomes) count(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seen[key]
}

type blockingJob struct {
	release chan struct{}
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	select {
	case <-j.release:
	case <-ctx.Done():
	}
	return nil
}

func TestPool_RunsJobsAndReportsOutcomes(t *testing.T) {
	progress := &mocks.MockProgressService{}
	in := models.AttemptInput{UserID: "u1", CourseID: "c1", ActivityID: "a1", TaskID: "t1"}
	progress.On("RecordAttempt", mock.Anything, in).Return(&models.AttemptResult{TaskKey: "t1"}, nil)
	progress.On("CompleteActivity", mock.Anything, "u1", "c1", "a1").Return(nil, stderrors.New("boom"))

	rec := &outcomes{}
	pool := worker.NewPool(2, 4, rec)
	pool.Start(context.Background())

	require.NoError(t, pool.Submit(&worker.RecordAttemptJob{Progress: progress, Input: in}))
	require.NoError(t, pool.Submit(&worker.CompleteActivityJob{Progress: progress, UserID: "u1", CourseID: "c1", ActivityID: "a1"}))
	pool.Stop()

	assert.Equal(t, 1, rec.count("record_attempt/succeeded"))
	assert.Equal(t, 1, rec.count("complete_activity/failed"))
	progress.AssertExpectations(t)
}

func TestPool_SubmitRejectsWhenFull(t *testing.T) {
	rec := &outcomes{}
	pool := worker.NewPool(1, 1, rec)
	job := &blockingJob{release: make(chan struct{})}
	pool.Start(context.Background())

	require.NoError(t, pool.Submit(job))
	// wait for the worker to pick up the first job so the queue slot is free
	require.Eventually(t, func() bool { return pool.QueueSize() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, pool.Submit(job))

	assert.ErrorIs(t, pool.Submit(job), worker.ErrQueueFull)
	assert.Equal(t, 1, rec.count("blocking/rejected"))

	close(job.release)
	pool.Stop()
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := worker.NewPool(1, 1, nil)
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()

	assert.ErrorIs(t, pool.Submit(&blockingJob{}), worker.ErrPoolStopped)
}
