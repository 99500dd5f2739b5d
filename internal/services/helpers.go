package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/vytor/learnprogress/internal/content"
	"github.com/vytor/learnprogress/internal/docstore"
	"github.com/vytor/learnprogress/internal/errors"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/repository"
)

func requireIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return errors.NewValidationError(pairs[i], "cannot be empty")
		}
	}
	return nil
}

func loadCourse(ctx context.Context, provider content.Provider, courseID string) (*models.Course, error) {
	course, err := provider.Course(ctx, courseID)
	if err != nil {
		if stderrors.Is(err, content.ErrCourseNotFound) {
			return nil, errors.NewNotFoundError("course", courseID)
		}
		logger.FromContext(ctx).Error("failed to load course %s: %v", courseID, err)
		return nil, errors.NewInternalError(err)
	}
	return course, nil
}

func loadActivity(ctx context.Context, provider content.Provider, courseID, activityID string) (*models.Course, *models.Activity, error) {
	course, err := loadCourse(ctx, provider, courseID)
	if err != nil {
		return nil, nil, err
	}
	activity, ok := course.FindActivity(activityID)
	if !ok {
		return nil, nil, errors.NewNotFoundError("activity", activityID)
	}
	return course, activity, nil
}

func loadEnrollment(ctx context.Context, repo repository.EnrollmentRepository, userID, courseID string) (*models.Enrollment, error) {
	e, err := repo.Get(ctx, userID, courseID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFoundError("enrollment", models.EnrollmentDocID(userID, courseID))
		}
		logger.FromContext(ctx).Error("failed to load enrollment: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return e, nil
}

// findTask picks the submitted task. A position wins over the id; ids match
// exactly, then titles exactly, then titles ignoring case and surrounding
// space.
func findTask(activity *models.Activity, taskID string, position *int) (models.Task, int, bool) {
	tasks := activity.Tasks
	if position != nil {
		if *position < 0 || *position >= len(tasks) {
			return models.Task{}, 0, false
		}
		return tasks[*position], *position, true
	}
	if taskID == "" {
		return models.Task{}, 0, false
	}
	for i, t := range tasks {
		if t.ID != "" && t.ID == taskID {
			return t, i, true
		}
	}
	for i, t := range tasks {
		if t.Title == taskID {
			return t, i, true
		}
	}
	folded := strings.ToLower(strings.TrimSpace(taskID))
	for i, t := range tasks {
		if strings.ToLower(strings.TrimSpace(t.Title)) == folded {
			return t, i, true
		}
	}
	return models.Task{}, 0, false
}

// storeError maps a failed progress write. Writes that kept losing the
// optimistic race surface as conflicts the client may retry.
func storeError(resource string, err error) error {
	if stderrors.Is(err, docstore.ErrConflict) {
		return errors.NewConflictError(resource, err)
	}
	return errors.NewInternalError(err)
}
