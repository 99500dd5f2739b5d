package services

import (
	"context"

	"github.com/vytor/learnprogress/internal/content"
	"github.com/vytor/learnprogress/internal/errors"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/progress"
	"github.com/vytor/learnprogress/internal/repository"
	"golang.org/x/sync/errgroup"
)

// listConcurrency bounds the course loads ListEnrollments runs at once.
const listConcurrency = 4

// EnrollmentService handles enrollments and course-level progress
type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID, enrolledBy string) (*models.Enrollment, error)
	GetCourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error)
	ListEnrollments(ctx context.Context, userID string) ([]models.EnrollmentProgress, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	content     content.Provider
	aggregator  *progress.Aggregator
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(
	enrollments repository.EnrollmentRepository,
	provider content.Provider,
	aggregator *progress.Aggregator,
) EnrollmentService {
	return &enrollmentService{enrollments: enrollments, content: provider, aggregator: aggregator}
}

func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID, enrolledBy string) (*models.Enrollment, error) {
	log := logger.FromContext(ctx)
	log.Debug("enrolling user=%s course=%s by=%s", userID, courseID, enrolledBy)

	if err := requireIDs("user_id", userID, "course_id", courseID); err != nil {
		return nil, err
	}
	if _, err := loadCourse(ctx, s.content, courseID); err != nil {
		return nil, err
	}

	if enrolledBy == "" {
		enrolledBy = userID
	}
	e, err := s.enrollments.Enroll(ctx, models.Enrollment{
		UserID:       userID,
		CourseID:     courseID,
		SelfEnrolled: enrolledBy == userID,
		EnrolledBy:   enrolledBy,
	})
	if err != nil {
		log.Error("failed to enroll: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return e, nil
}

func (s *enrollmentService) GetCourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	log := logger.FromContext(ctx)
	log.Debug("computing course progress user=%s course=%s", userID, courseID)

	if err := requireIDs("user_id", userID, "course_id", courseID); err != nil {
		return nil, err
	}
	e, err := loadEnrollment(ctx, s.enrollments, userID, courseID)
	if err != nil {
		return nil, err
	}
	course, err := loadCourse(ctx, s.content, courseID)
	if err != nil {
		return nil, err
	}

	p := s.aggregator.Aggregate(course, *e)
	if len(p.DuplicateTitles) > 0 {
		log.Warn("course %s has activities with duplicate task titles: %v", courseID, p.DuplicateTitles)
	}
	return &p, nil
}

// ListEnrollments returns every enrollment of the user with its progress.
// A course whose content is gone is reported with all its snapshots counted
// as removed activities.
func (s *enrollmentService) ListEnrollments(ctx context.Context, userID string) ([]models.EnrollmentProgress, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing enrollments user=%s", userID)

	if err := requireIDs("user_id", userID); err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		log.Error("failed to list enrollments: %v", err)
		return nil, errors.NewInternalError(err)
	}

	out := make([]models.EnrollmentProgress, len(enrollments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i := range enrollments {
		g.Go(func() error {
			e := enrollments[i]
			course, err := loadCourse(gctx, s.content, e.CourseID)
			if err != nil {
				if !errors.IsCode(err, errors.ErrCodeNotFound) {
					return err
				}
				log.Warn("course %s no longer exists, reporting stored progress only", e.CourseID)
				course = nil
			}
			out[i] = models.EnrollmentProgress{
				Enrollment: e,
				Progress:   s.aggregator.Aggregate(course, e),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
