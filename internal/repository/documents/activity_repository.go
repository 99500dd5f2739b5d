package documents

import (
	"context"
	"fmt"

	"github.com/vytor/learnprogress/internal/docstore"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/repository"
)

type activityProgressRepository struct {
	store docstore.Store
}

// NewActivityProgressRepository creates a new ActivityProgressRepository implementation
func NewActivityProgressRepository(store docstore.Store) repository.ActivityProgressRepository {
	return &activityProgressRepository{store: store}
}

// updateSnapshot runs mutate on the target's snapshot inside a transaction
// and writes the whole progressSummary back with a merge. A missing
// enrollment leaves the store untouched.
func (r *activityProgressRepository) updateSnapshot(
	ctx context.Context,
	userID, courseID string,
	target models.ActivityTarget,
	mutate func(s *models.ActivitySnapshot),
) (bool, error) {
	id := models.EnrollmentDocID(userID, courseID)
	var applied bool
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Transaction) error {
		applied = false
		snap, err := tx.Get(ctx, EnrollmentsCollection, id)
		if err != nil {
			return err
		}
		if !snap.Exists {
			return nil
		}
		e := decodeSnapshot(snap)
		mutate(findOrCreateSnapshot(&e.ProgressSummary, userID, courseID, target))
		tx.Set(EnrollmentsCollection, id, summaryPatch(e.ProgressSummary), docstore.Merge())
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update %s activity %s: %w", id, target.ActivityID, err)
	}
	return applied, nil
}

func (r *activityProgressRepository) StartActivity(ctx context.Context, userID, courseID string, target models.ActivityTarget) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("starting activity user=%s course=%s activity=%s", userID, courseID, target.ActivityID)

	applied, err := r.updateSnapshot(ctx, userID, courseID, target, func(*models.ActivitySnapshot) {})
	if err != nil {
		log.Error("failed to start activity: %v", err)
		return false, err
	}
	if !applied {
		log.Warn("no enrollment for user=%s course=%s, activity not started", userID, courseID)
	}
	return applied, nil
}

func (r *activityProgressRepository) AddTaskStats(
	ctx context.Context,
	userID, courseID string,
	target models.ActivityTarget,
	taskKey string,
	stats models.TaskStats,
) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("adding task stats user=%s course=%s activity=%s task=%s", userID, courseID, target.ActivityID, taskKey)

	applied, err := r.updateSnapshot(ctx, userID, courseID, target, func(s *models.ActivitySnapshot) {
		s.TaskStats[taskKey] = stats
	})
	if err != nil {
		log.Error("failed to add task stats: %v", err)
		return false, err
	}
	if !applied {
		log.Warn("no enrollment for user=%s course=%s, task stats dropped", userID, courseID)
	}
	return applied, nil
}

// ResetTaskStats clears every snapshot that holds the target's progress;
// they are folded into one empty snapshot.
func (r *activityProgressRepository) ResetTaskStats(ctx context.Context, userID, courseID string, target models.ActivityTarget) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("resetting task stats user=%s course=%s activity=%s", userID, courseID, target.ActivityID)

	applied, err := r.updateSnapshot(ctx, userID, courseID, target, func(s *models.ActivitySnapshot) {
		s.TaskStats = map[string]models.TaskStats{}
		s.HighestScore = nil
	})
	if err != nil {
		log.Error("failed to reset task stats: %v", err)
		return false, err
	}
	return applied, nil
}

// UpdateHighestScoreIfGreater is a plain read followed by a conditional
// write; concurrent callers may both read the old score.
func (r *activityProgressRepository) UpdateHighestScoreIfGreater(
	ctx context.Context,
	userID, courseID string,
	target models.ActivityTarget,
	score int,
) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("raising highest score user=%s course=%s activity=%s score=%d", userID, courseID, target.ActivityID, score)

	id := models.EnrollmentDocID(userID, courseID)
	snap, err := r.store.Get(ctx, EnrollmentsCollection, id)
	if err != nil {
		log.Error("failed to read enrollment: %v", err)
		return false, fmt.Errorf("read %s: %w", id, err)
	}
	if !snap.Exists {
		log.Warn("no enrollment for user=%s course=%s, score dropped", userID, courseID)
		return false, nil
	}

	e := decodeSnapshot(snap)
	s := findOrCreateSnapshot(&e.ProgressSummary, userID, courseID, target)
	if s.HighestScore != nil && *s.HighestScore >= score {
		log.Debug("highest score %d already >= %d", *s.HighestScore, score)
		return false, nil
	}
	s.HighestScore = &score

	if err := r.store.Set(ctx, EnrollmentsCollection, id, summaryPatch(e.ProgressSummary), docstore.Merge()); err != nil {
		log.Error("failed to write highest score: %v", err)
		return false, fmt.Errorf("write %s: %w", id, err)
	}
	return true, nil
}
