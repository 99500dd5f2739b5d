package services

import (
	"context"

	"github.com/vytor/learnprogress/internal/content"
	"github.com/vytor/learnprogress/internal/errors"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
)

// CacheInvalidator drops cached course content.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, courseID string) error
	Clear(ctx context.Context) error
}

// ContentService serves course content and its cache invalidation events
type ContentService interface {
	Course(ctx context.Context, courseID string) (*models.Course, error)
	// Reload drops the cached copy of courseID, or of every course when
	// courseID is empty.
	Reload(ctx context.Context, courseID string) error
}

type contentService struct {
	provider    content.Provider
	invalidator CacheInvalidator
}

// NewContentService creates a new ContentService. invalidator may be nil
// when content is not cached.
func NewContentService(provider content.Provider, invalidator CacheInvalidator) ContentService {
	return &contentService{provider: provider, invalidator: invalidator}
}

func (s *contentService) Course(ctx context.Context, courseID string) (*models.Course, error) {
	if err := requireIDs("course_id", courseID); err != nil {
		return nil, err
	}
	return loadCourse(ctx, s.provider, courseID)
}

func (s *contentService) Reload(ctx context.Context, courseID string) error {
	log := logger.FromContext(ctx)
	if s.invalidator == nil {
		log.Debug("content is not cached, nothing to reload")
		return nil
	}

	var err error
	if courseID == "" {
		err = s.invalidator.Clear(ctx)
	} else {
		err = s.invalidator.Invalidate(ctx, courseID)
	}
	if err != nil {
		log.Error("failed to invalidate course cache: %v", err)
		return errors.NewUnavailableError("course cache unavailable", err)
	}
	return nil
}
