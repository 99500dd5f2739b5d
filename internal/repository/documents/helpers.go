// Package documents implements the repositories on top of a docstore.Store.
// Each enrollment is one document in the COURSE_ENROLLMENTS collection.
package documents

import (
	"github.com/vytor/learnprogress/internal/docstore"
	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/progress"
)

const EnrollmentsCollection = "COURSE_ENROLLMENTS"

func decodeSnapshot(snap *docstore.Snapshot) *models.Enrollment {
	e := progress.DecodeEnrollment(snap.Data)
	return &e
}

// findOrCreateSnapshot returns the snapshot holding target's progress,
// appending an empty one when the learner has none yet. When several stored
// snapshots match, the later ones are folded into the first and dropped:
// earlier snapshots win per task key and the highest score is kept, the same
// precedence reads use. The identifiers are re-seeded either way so older
// snapshots missing them get repaired on write.
func findOrCreateSnapshot(ps *models.ProgressSummary, userID, courseID string, target models.ActivityTarget) *models.ActivitySnapshot {
	kept := make([]models.ActivitySnapshot, 0, len(ps.ActivitySnapshots)+1)
	first := -1
	for _, snap := range ps.ActivitySnapshots {
		if !target.Matches(snap) {
			kept = append(kept, snap)
			continue
		}
		if first < 0 {
			first = len(kept)
			kept = append(kept, snap)
			continue
		}
		dst := &kept[first]
		if dst.TaskStats == nil {
			dst.TaskStats = map[string]models.TaskStats{}
		}
		for k, v := range snap.TaskStats {
			if _, ok := dst.TaskStats[k]; !ok {
				dst.TaskStats[k] = v
			}
		}
		if snap.HighestScore != nil && (dst.HighestScore == nil || *snap.HighestScore > *dst.HighestScore) {
			hs := *snap.HighestScore
			dst.HighestScore = &hs
		}
	}
	if first < 0 {
		first = len(kept)
		kept = append(kept, models.ActivitySnapshot{ActivityID: target.ActivityID})
	}
	ps.ActivitySnapshots = kept

	s := &ps.ActivitySnapshots[first]
	s.UserID = userID
	s.CourseID = courseID
	if s.TaskStats == nil {
		s.TaskStats = map[string]models.TaskStats{}
	}
	return s
}

// summaryPatch is the merge payload that writes progressSummary back.
func summaryPatch(ps models.ProgressSummary) docstore.Document {
	return docstore.Document{progress.FieldProgressSummary: progress.EncodeProgressSummary(ps)}
}
