// Package content loads course definitions: modules, activities and tasks.
package content

import (
	"context"
	"errors"

	"github.com/vytor/learnprogress/internal/models"
)

// ErrCourseNotFound is returned when no definition exists for a course id.
var ErrCourseNotFound = errors.New("course not found")

// Provider returns the current content of a course.
type Provider interface {
	Course(ctx context.Context, courseID string) (*models.Course, error)
}
