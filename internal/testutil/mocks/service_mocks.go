package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/learnprogress/internal/models"
)

// MockEnrollmentService is a mock implementation of services.EnrollmentService
type MockEnrollmentService struct {
	mock.Mock
}

func (m *MockEnrollmentService) Enroll(ctx context.Context, userID, courseID, enrolledBy string) (*models.Enrollment, error) {
	args := m.Called(ctx, userID, courseID, enrolledBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *MockEnrollmentService) GetCourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	args := m.Called(ctx, userID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CourseProgress), args.Error(1)
}

func (m *MockEnrollmentService) ListEnrollments(ctx context.Context, userID string) ([]models.EnrollmentProgress, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EnrollmentProgress), args.Error(1)
}

// MockProgressService is a mock implementation of services.ProgressService
type MockProgressService struct {
	mock.Mock
}

func (m *MockProgressService) StartActivity(ctx context.Context, userID, courseID, activityID string) error {
	args := m.Called(ctx, userID, courseID, activityID)
	return args.Error(0)
}

func (m *MockProgressService) RecordAttempt(ctx context.Context, in models.AttemptInput) (*models.AttemptResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttemptResult), args.Error(1)
}

func (m *MockProgressService) CompleteActivity(ctx context.Context, userID, courseID, activityID string) (*models.ActivityReport, error) {
	args := m.Called(ctx, userID, courseID, activityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActivityReport), args.Error(1)
}

func (m *MockProgressService) ResetActivity(ctx context.Context, userID, courseID, activityID string) error {
	args := m.Called(ctx, userID, courseID, activityID)
	return args.Error(0)
}

func (m *MockProgressService) ActivityReport(ctx context.Context, userID, courseID, activityID string) (*models.ActivityReport, error) {
	args := m.Called(ctx, userID, courseID, activityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActivityReport), args.Error(1)
}

// MockContentService is a mock implementation of services.ContentService
type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) Course(ctx context.Context, courseID string) (*models.Course, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *MockContentService) Reload(ctx context.Context, courseID string) error {
	args := m.Called(ctx, courseID)
	return args.Error(0)
}

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueAttempt(in models.AttemptInput) error {
	args := m.Called(in)
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueCompletion(userID, courseID, activityID string) error {
	args := m.Called(userID, courseID, activityID)
	return args.Error(0)
}
