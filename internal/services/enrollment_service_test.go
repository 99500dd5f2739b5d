package services_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/learnprogress/internal/content"
	"github.com/vytor/learnprogress/internal/errors"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/progress"
	"github.com/vytor/learnprogress/internal/repository"
	"github.com/vytor/learnprogress/internal/scoring"
	"github.com/vytor/learnprogress/internal/services"
	"github.com/vytor/learnprogress/internal/testutil"
	"github.com/vytor/learnprogress/internal/testutil/mocks"
)

type EnrollmentServiceSuite struct {
	suite.Suite
	ctx         context.Context
	enrollments *mocks.MockEnrollmentRepository
	content     *mocks.MockContentProvider
	service     services.EnrollmentService
}

func (s *EnrollmentServiceSuite) SetupTest() {
	s.ctx = logger.NewContext(context.Background(), logger.Discard())
	s.enrollments = &mocks.MockEnrollmentRepository{}
	s.content = &mocks.MockContentProvider{}
	agg := progress.NewAggregator(scoring.NewCalculator(scoring.DefaultRapidGuessThreshold))
	s.service = services.NewEnrollmentService(s.enrollments, s.content, agg)
}

func (s *EnrollmentServiceSuite) TearDownTest() {
	s.enrollments.AssertExpectations(s.T())
	s.content.AssertExpectations(s.T())
}

func (s *EnrollmentServiceSuite) TestEnroll_Self() {
	s.content.On("Course", s.ctx, "c1").Return(testCourse(), nil)
	want := models.Enrollment{UserID: "u1", CourseID: "c1", SelfEnrolled: true, EnrolledBy: "u1"}
	s.enrollments.On("Enroll", s.ctx, want).Return(&want, nil)

	e, err := s.service.Enroll(s.ctx, "u1", "c1", "")
	s.Require().NoError(err)
	s.Assert().True(e.SelfEnrolled)
}

func (s *EnrollmentServiceSuite) TestEnroll_ByInstructor() {
	s.content.On("Course", s.ctx, "c1").Return(testCourse(), nil)
	s.enrollments.On("Enroll", s.ctx, mock.MatchedBy(func(e models.Enrollment) bool {
		return !e.SelfEnrolled && e.EnrolledBy == "instructor-7"
	})).Return(&models.Enrollment{UserID: "u1", CourseID: "c1", EnrolledBy: "instructor-7"}, nil)

	e, err := s.service.Enroll(s.ctx, "u1", "c1", "instructor-7")
	s.Require().NoError(err)
	s.Assert().Equal("instructor-7", e.EnrolledBy)
}

func (s *EnrollmentServiceSuite) TestEnroll_UnknownCourse() {
	s.content.On("Course", s.ctx, "c9").Return(nil, content.ErrCourseNotFound)

	_, err := s.service.Enroll(s.ctx, "u1", "c9", "")
	s.Assert().True(errors.IsCode(err, errors.ErrCodeNotFound))
}

func (s *EnrollmentServiceSuite) TestEnroll_Validation() {
	_, err := s.service.Enroll(s.ctx, "", "c1", "")
	s.Assert().True(errors.IsCode(err, errors.ErrCodeValidation))
}

func (s *EnrollmentServiceSuite) TestGetCourseProgress() {
	s.enrollments.On("Get", s.ctx, "u1", "c1").Return(enrollmentWithStats(map[string]models.TaskStats{
		"t1": {Success: testutil.Ptr(true)},
	}), nil)
	s.content.On("Course", s.ctx, "c1").Return(testCourse(), nil)

	p, err := s.service.GetCourseProgress(s.ctx, "u1", "c1")
	s.Require().NoError(err)
	s.Assert().Equal(2, p.TotalTasks)
	s.Assert().Equal(1, p.CompletedTasks)
	s.Assert().Equal(50.0, p.CompletionPercentage)
	s.Assert().Equal(20, p.EarnedXP)
}

func (s *EnrollmentServiceSuite) TestGetCourseProgress_NotEnrolled() {
	s.enrollments.On("Get", s.ctx, "u1", "c1").Return(nil, repository.ErrNotFound)

	_, err := s.service.GetCourseProgress(s.ctx, "u1", "c1")
	s.Assert().True(errors.IsCode(err, errors.ErrCodeNotFound))
}

func (s *EnrollmentServiceSuite) TestGetCourseProgress_StoreFailure() {
	s.enrollments.On("Get", s.ctx, "u1", "c1").Return(nil, stderrors.New("disk on fire"))

	_, err := s.service.GetCourseProgress(s.ctx, "u1", "c1")
	s.Assert().True(errors.IsCode(err, errors.ErrCodeInternal))
}

func (s *EnrollmentServiceSuite) TestListEnrollments() {
	gone := models.Enrollment{
		UserID:   "u1",
		CourseID: "old",
		ProgressSummary: models.ProgressSummary{ActivitySnapshots: []models.ActivitySnapshot{{
			ActivityID: "x",
			TaskStats:  map[string]models.TaskStats{"k": {Success: testutil.Ptr(true)}},
		}}},
	}
	s.enrollments.On("ListByUser", s.ctx, "u1").Return([]models.Enrollment{
		*enrollmentWithStats(map[string]models.TaskStats{"t1": {Success: testutil.Ptr(true)}}),
		gone,
	}, nil)
	s.content.On("Course", mock.Anything, "c1").Return(testCourse(), nil)
	s.content.On("Course", mock.Anything, "old").Return(nil, content.ErrCourseNotFound)

	list, err := s.service.ListEnrollments(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Assert().Equal("c1", list[0].Enrollment.CourseID)
	s.Assert().Equal(1, list[0].Progress.CompletedTasks)
	s.Assert().Equal("old", list[1].Progress.CourseID)
	s.Assert().Equal(1, list[1].Progress.TotalTasks)
	s.Assert().Equal(100.0, list[1].Progress.CompletionPercentage)
}

func (s *EnrollmentServiceSuite) TestListEnrollments_ContentFailure() {
	s.enrollments.On("ListByUser", s.ctx, "u1").Return([]models.Enrollment{{UserID: "u1", CourseID: "c1"}}, nil)
	s.content.On("Course", mock.Anything, "c1").Return(nil, stderrors.New("content store down"))

	_, err := s.service.ListEnrollments(s.ctx, "u1")
	s.Assert().True(errors.IsCode(err, errors.ErrCodeInternal))
}

func TestEnrollmentServiceSuite(t *testing.T) {
	suite.Run(t, new(EnrollmentServiceSuite))
}

func TestContentService_Reload(t *testing.T) {
	ctx := logger.NewContext(context.Background(), logger.Discard())
	provider := &mocks.MockContentProvider{}
	invalidator := &mocks.MockCacheInvalidator{}
	invalidator.On("Invalidate", ctx, "c1").Return(nil)
	invalidator.On("Clear", ctx).Return(stderrors.New("redis down"))
	svc := services.NewContentService(provider, invalidator)

	assert.NoError(t, svc.Reload(ctx, "c1"))
	assert.True(t, errors.IsCode(svc.Reload(ctx, ""), errors.ErrCodeUnavailable))
	invalidator.AssertExpectations(t)

	assert.NoError(t, services.NewContentService(provider, nil).Reload(ctx, "c1"))
}
