package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/learnprogress/internal/models"
)

// MockEnrollmentRepository is a mock implementation of repository.EnrollmentRepository
type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Enroll(ctx context.Context, e models.Enrollment) (*models.Enrollment, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) ListByUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Enrollment), args.Error(1)
}

// MockActivityProgressRepository is a mock implementation of repository.ActivityProgressRepository
type MockActivityProgressRepository struct {
	mock.Mock
}

func (m *MockActivityProgressRepository) StartActivity(ctx context.Context, userID, courseID string, target models.ActivityTarget) (bool, error) {
	args := m.Called(ctx, userID, courseID, target)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivityProgressRepository) AddTaskStats(
	ctx context.Context,
	userID, courseID string,
	target models.ActivityTarget,
	taskKey string,
	stats models.TaskStats,
) (bool, error) {
	args := m.Called(ctx, userID, courseID, target, taskKey, stats)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivityProgressRepository) ResetTaskStats(ctx context.Context, userID, courseID string, target models.ActivityTarget) (bool, error) {
	args := m.Called(ctx, userID, courseID, target)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivityProgressRepository) UpdateHighestScoreIfGreater(
	ctx context.Context,
	userID, courseID string,
	target models.ActivityTarget,
	score int,
) (bool, error) {
	args := m.Called(ctx, userID, courseID, target, score)
	return args.Bool(0), args.Error(1)
}

// MockContentProvider is a mock implementation of content.Provider
type MockContentProvider struct {
	mock.Mock
}

func (m *MockContentProvider) Course(ctx context.Context, courseID string) (*models.Course, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

// MockCacheInvalidator is a mock implementation of services.CacheInvalidator
type MockCacheInvalidator struct {
	mock.Mock
}

func (m *MockCacheInvalidator) Invalidate(ctx context.Context, courseID string) error {
	args := m.Called(ctx, courseID)
	return args.Error(0)
}

func (m *MockCacheInvalidator) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
