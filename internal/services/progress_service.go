package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vytor/learnprogress/internal/content"
	"github.com/vytor/learnprogress/internal/errors"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/progress"
	"github.com/vytor/learnprogress/internal/repository"
	"github.com/vytor/learnprogress/internal/scoring"
	"github.com/vytor/learnprogress/internal/taskkey"
)

// ProgressService handles activity-level progress: recording attempts,
// completing and resetting activities, and scoring them
type ProgressService interface {
	StartActivity(ctx context.Context, userID, courseID, activityID string) error
	RecordAttempt(ctx context.Context, in models.AttemptInput) (*models.AttemptResult, error)
	CompleteActivity(ctx context.Context, userID, courseID, activityID string) (*models.ActivityReport, error)
	ResetActivity(ctx context.Context, userID, courseID, activityID string) error
	ActivityReport(ctx context.Context, userID, courseID, activityID string) (*models.ActivityReport, error)
}

type progressService struct {
	enrollments repository.EnrollmentRepository
	activities  repository.ActivityProgressRepository
	content     content.Provider
	aggregator  *progress.Aggregator
	calc        *scoring.Calculator
	now         func() time.Time
}

// NewProgressService creates a new ProgressService
func NewProgressService(
	enrollments repository.EnrollmentRepository,
	activities repository.ActivityProgressRepository,
	provider content.Provider,
	aggregator *progress.Aggregator,
	calc *scoring.Calculator,
) ProgressService {
	return &progressService{
		enrollments: enrollments,
		activities:  activities,
		content:     provider,
		aggregator:  aggregator,
		calc:        calc,
		now:         time.Now,
	}
}

func (s *progressService) StartActivity(ctx context.Context, userID, courseID, activityID string) error {
	log := logger.FromContext(ctx)
	log.Debug("starting activity user=%s course=%s activity=%s", userID, courseID, activityID)

	if err := requireIDs("user_id", userID, "course_id", courseID, "activity_id", activityID); err != nil {
		return err
	}
	course, activity, err := loadActivity(ctx, s.content, courseID, activityID)
	if err != nil {
		return err
	}

	applied, err := s.activities.StartActivity(ctx, userID, courseID, s.aggregator.Target(course, activity.ID))
	if err != nil {
		log.Error("failed to start activity: %v", err)
		return storeError("enrollment", err)
	}
	if !applied {
		return errors.NewNotFoundError("enrollment", models.EnrollmentDocID(userID, courseID))
	}
	return nil
}

// RecordAttempt stores the attempt under the task's canonical key, replacing
// any earlier result for that task. A missing score ratio is derived from
// the effort modifiers and a missing attempt time is stamped with now.
func (s *progressService) RecordAttempt(ctx context.Context, in models.AttemptInput) (*models.AttemptResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("recording attempt user=%s course=%s activity=%s task=%s", in.UserID, in.CourseID, in.ActivityID, in.TaskID)

	if err := requireIDs("user_id", in.UserID, "course_id", in.CourseID, "activity_id", in.ActivityID); err != nil {
		return nil, err
	}
	if in.TaskID == "" && in.TaskPosition == nil {
		return nil, errors.NewValidationError("task_id", "task_id or task_position is required")
	}
	if r := in.Stats.Retries; r != nil && *r < 0 {
		return nil, errors.NewValidationError("retries", "cannot be negative")
	}
	if ts := in.Stats.TimeSpent; ts != nil && models.ParseTimeSpent(*ts) < 0 {
		return nil, errors.NewValidationError("timeSpent", "must be mm:ss or seconds")
	}

	course, activity, err := loadActivity(ctx, s.content, in.CourseID, in.ActivityID)
	if err != nil {
		return nil, err
	}
	task, pos, ok := findTask(activity, in.TaskID, in.TaskPosition)
	if !ok {
		id := in.TaskID
		if in.TaskPosition != nil {
			id = fmt.Sprintf("#%d", *in.TaskPosition)
		}
		return nil, errors.NewNotFoundError("task", id)
	}

	stats := normaliseStats(in.Stats)
	stats = scoring.FillScoreRatio(stats)
	if stats.AttemptDateTime == nil {
		now := s.now().UTC().Format(time.RFC3339)
		stats.AttemptDateTime = &now
	}

	key := taskkey.CanonicalKey(task, pos)
	target := s.aggregator.Target(course, activity.ID)
	applied, err := s.activities.AddTaskStats(ctx, in.UserID, in.CourseID, target, key, stats)
	if err != nil {
		log.Error("failed to record attempt: %v", err)
		return nil, storeError("enrollment", err)
	}
	if !applied {
		return nil, errors.NewNotFoundError("enrollment", models.EnrollmentDocID(in.UserID, in.CourseID))
	}
	log.Debug("attempt stored under key %s", key)
	return &models.AttemptResult{TaskKey: key, Stats: stats}, nil
}

func normaliseStats(s models.TaskStats) models.TaskStats {
	if s.CompletionRatio != nil {
		v := models.ClampRatio(*s.CompletionRatio)
		s.CompletionRatio = &v
	}
	if s.ScoreRatio != nil {
		v := models.ClampRatio(*s.ScoreRatio)
		s.ScoreRatio = &v
	}
	s.Extra = nil
	return s
}

// CompleteActivity requires every task of the activity to have a recorded
// result, then raises the stored highest score to the earned XP.
func (s *progressService) CompleteActivity(ctx context.Context, userID, courseID, activityID string) (*models.ActivityReport, error) {
	log := logger.FromContext(ctx)
	log.Debug("completing activity user=%s course=%s activity=%s", userID, courseID, activityID)

	report, course, err := s.buildReport(ctx, userID, courseID, activityID)
	if err != nil {
		return nil, err
	}

	missing := 0
	for _, b := range report.Tasks {
		if b.Stats == nil {
			missing++
		}
	}
	if missing > 0 {
		return nil, errors.NewPreconditionError(fmt.Sprintf(
			"activity %s is not complete: %d of %d tasks have no result", activityID, missing, len(report.Tasks)))
	}

	target := s.aggregator.Target(course, report.ActivityID)
	updated, err := s.activities.UpdateHighestScoreIfGreater(ctx, userID, courseID, target, report.EarnedXP)
	if err != nil {
		log.Error("failed to update highest score: %v", err)
		return nil, storeError("enrollment", err)
	}
	if updated || report.HighestScore == nil || *report.HighestScore < report.EarnedXP {
		earned := report.EarnedXP
		report.HighestScore = &earned
	}
	log.Info("activity %s completed by %s: %s", activityID, userID, report.Summary)
	return report, nil
}

// ResetActivity clears every stored snapshot of the activity. Activities no
// longer in the course can still be reset by their stored id.
func (s *progressService) ResetActivity(ctx context.Context, userID, courseID, activityID string) error {
	log := logger.FromContext(ctx)
	log.Debug("resetting activity user=%s course=%s activity=%s", userID, courseID, activityID)

	if err := requireIDs("user_id", userID, "course_id", courseID, "activity_id", activityID); err != nil {
		return err
	}
	course, err := loadCourse(ctx, s.content, courseID)
	if err != nil {
		return err
	}

	applied, err := s.activities.ResetTaskStats(ctx, userID, courseID, s.aggregator.Target(course, activityID))
	if err != nil {
		log.Error("failed to reset activity: %v", err)
		return storeError("enrollment", err)
	}
	if !applied {
		return errors.NewNotFoundError("enrollment", models.EnrollmentDocID(userID, courseID))
	}
	return nil
}

// ActivityReport scores one activity of the learner against current content.
func (s *progressService) ActivityReport(ctx context.Context, userID, courseID, activityID string) (*models.ActivityReport, error) {
	report, _, err := s.buildReport(ctx, userID, courseID, activityID)
	return report, err
}

func (s *progressService) buildReport(ctx context.Context, userID, courseID, activityID string) (*models.ActivityReport, *models.Course, error) {
	log := logger.FromContext(ctx)
	log.Debug("building activity report user=%s course=%s activity=%s", userID, courseID, activityID)

	if err := requireIDs("user_id", userID, "course_id", courseID, "activity_id", activityID); err != nil {
		return nil, nil, err
	}
	course, activity, err := loadActivity(ctx, s.content, courseID, activityID)
	if err != nil {
		return nil, nil, err
	}
	e, err := loadEnrollment(ctx, s.enrollments, userID, courseID)
	if err != nil {
		return nil, nil, err
	}

	snap, _ := s.aggregator.ActivitySnapshot(course, *e, activity.ID)
	stats := taskkey.Enrich(snap.TaskStats, activity.Tasks)

	report := &models.ActivityReport{
		UserID:       userID,
		CourseID:     courseID,
		ActivityID:   activity.ID,
		Tasks:        s.calc.Breakdown(activity.Tasks, stats),
		TotalXP:      s.calc.TotalXP(activity.Tasks, stats),
		HighestScore: snap.HighestScore,
	}
	for _, b := range report.Tasks {
		report.EarnedXP += b.EarnedXP
	}
	report.Summary = models.ScoreSummary(report.EarnedXP, report.TotalXP)
	if theta, ok := s.calc.EstimateAbility(activity.Tasks, stats); ok {
		report.AbilityEstimate = &theta
	}
	if dups := taskkey.DuplicateTitles(activity.Tasks); dups != nil {
		report.DuplicateTitles = make(map[string][]string, len(dups))
		for title, positions := range dups {
			keys := make([]string, 0, len(positions))
			for _, pos := range positions {
				keys = append(keys, taskkey.CanonicalKey(activity.Tasks[pos], pos))
			}
			sort.Strings(keys)
			report.DuplicateTitles[title] = keys
		}
		log.Warn("activity %s has duplicate task titles: %v", activity.ID, report.DuplicateTitles)
	}
	return report, course, nil
}
