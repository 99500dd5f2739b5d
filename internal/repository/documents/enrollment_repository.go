package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/vytor/learnprogress/internal/docstore"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/progress"
	"github.com/vytor/learnprogress/internal/repository"
)

type enrollmentRepository struct {
	store docstore.Store
	now   func() time.Time
}

// NewEnrollmentRepository creates a new EnrollmentRepository implementation
func NewEnrollmentRepository(store docstore.Store) repository.EnrollmentRepository {
	return &enrollmentRepository{store: store, now: time.Now}
}

func (r *enrollmentRepository) Enroll(ctx context.Context, e models.Enrollment) (*models.Enrollment, error) {
	log := logger.FromContext(ctx).WithPrefix("enrollment_repo")
	log.Debug("enrolling user=%s course=%s", e.UserID, e.CourseID)

	id := models.EnrollmentDocID(e.UserID, e.CourseID)
	var stored *models.Enrollment
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Transaction) error {
		snap, err := tx.Get(ctx, EnrollmentsCollection, id)
		if err != nil {
			return err
		}
		if snap.Exists {
			stored = decodeSnapshot(snap)
			return nil
		}

		now := r.now().UTC()
		created := e
		if created.EnrollmentDate == "" {
			created.EnrollmentDate = now.Format(time.DateOnly)
		}
		if created.CreatedAt == "" {
			created.CreatedAt = now.Format(time.RFC3339)
		}
		created.ProgressSummary.SchemaVersion = progress.SchemaVersion
		tx.Set(EnrollmentsCollection, id, progress.EncodeEnrollment(created))
		stored = &created
		return nil
	})
	if err != nil {
		log.Error("failed to enroll user=%s course=%s: %v", e.UserID, e.CourseID, err)
		return nil, fmt.Errorf("enroll %s: %w", id, err)
	}
	return stored, nil
}

func (r *enrollmentRepository) Get(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	log := logger.FromContext(ctx).WithPrefix("enrollment_repo")
	log.Debug("getting enrollment user=%s course=%s", userID, courseID)

	snap, err := r.store.Get(ctx, EnrollmentsCollection, models.EnrollmentDocID(userID, courseID))
	if err != nil {
		log.Error("failed to get enrollment: %v", err)
		return nil, err
	}
	if !snap.Exists {
		return nil, repository.ErrNotFound
	}
	return decodeSnapshot(snap), nil
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	log := logger.FromContext(ctx).WithPrefix("enrollment_repo")
	log.Debug("listing enrollments for user=%s", userID)

	snaps, err := r.store.Query(ctx, EnrollmentsCollection, progress.FieldUserID, userID)
	if err != nil {
		log.Error("failed to list enrollments: %v", err)
		return nil, err
	}
	out := make([]models.Enrollment, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, *decodeSnapshot(snap))
	}
	log.Debug("found %d enrollments", len(out))
	return out, nil
}
