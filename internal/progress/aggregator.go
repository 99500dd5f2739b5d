package progress

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/vytor/learnprogress/internal/models"
	"github.com/vytor/learnprogress/internal/scoring"
	"github.com/vytor/learnprogress/internal/taskkey"
)

// Aggregator rolls an enrollment's snapshots up into course progress. It is
// pure and safe for concurrent use.
type Aggregator struct {
	calc *scoring.Calculator
}

func NewAggregator(calc *scoring.Calculator) *Aggregator {
	return &Aggregator{calc: calc}
}

type activityRef struct {
	activity  *models.Activity
	moduleKey string
	index     int
}

type activityIndex struct {
	byKey map[string]activityRef
	order []activityRef
}

// ModuleKey is the module's trimmed id, else its trimmed title, else
// "module_<index>".
func ModuleKey(m models.Module, index int) string {
	if id := strings.TrimSpace(m.ID); id != "" {
		return id
	}
	if title := strings.TrimSpace(m.Title); title != "" {
		return title
	}
	return "module_" + strconv.Itoa(index)
}

func buildIndex(course *models.Course) activityIndex {
	idx := activityIndex{byKey: make(map[string]activityRef)}
	if course == nil {
		return idx
	}
	put := func(k string, ref activityRef) {
		if k == "" {
			return
		}
		if _, ok := idx.byKey[k]; !ok {
			idx.byKey[k] = ref
		}
	}

	// Course-level activities belong to no module.
	for ai := range course.Activities {
		ref := activityRef{activity: &course.Activities[ai], index: len(idx.order)}
		idx.order = append(idx.order, ref)
	}
	for mi := range course.Modules {
		moduleKey := ModuleKey(course.Modules[mi], mi)
		for ai := range course.Modules[mi].Activities {
			a := &course.Modules[mi].Activities[ai]
			ref := activityRef{activity: a, moduleKey: moduleKey, index: len(idx.order)}
			idx.order = append(idx.order, ref)
		}
	}
	// Ids first so an id always beats another activity's title.
	for _, ref := range idx.order {
		id := strings.TrimSpace(ref.activity.ID)
		put(id, ref)
		put(strings.ToLower(id), ref)
	}
	for _, ref := range idx.order {
		title := strings.TrimSpace(ref.activity.Title)
		put(title, ref)
		put(strings.ToLower(title), ref)
	}
	return idx
}

func (idx activityIndex) resolve(s models.ActivitySnapshot) (activityRef, bool) {
	names := []string{s.ActivityID}
	for _, legacy := range []string{legacyFieldActivityTitle, legacyFieldActivityName} {
		if v, ok := s.Extra[legacy].(string); ok {
			names = append(names, v)
		}
	}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if ref, ok := idx.byKey[n]; ok {
			return ref, true
		}
		if ref, ok := idx.byKey[strings.ToLower(n)]; ok {
			return ref, true
		}
	}
	return activityRef{}, false
}

// fold groups snapshots by the content activity they resolve to. Several
// snapshots can point at the same activity (renamed, re-keyed); earlier
// snapshots win per task key and the highest score is kept. Snapshots that
// match no activity are returned as removed.
func (idx activityIndex) fold(snaps []models.ActivitySnapshot) (map[int]*models.ActivitySnapshot, []models.ActivitySnapshot) {
	matched := make(map[int]*models.ActivitySnapshot)
	var removed []models.ActivitySnapshot
	for _, s := range snaps {
		ref, ok := idx.resolve(s)
		if !ok {
			removed = append(removed, s)
			continue
		}
		existing, seen := matched[ref.index]
		if !seen {
			cp := s
			cp.TaskStats = make(map[string]models.TaskStats, len(s.TaskStats))
			for k, v := range s.TaskStats {
				cp.TaskStats[k] = v
			}
			matched[ref.index] = &cp
			continue
		}
		for k, v := range s.TaskStats {
			if _, ok := existing.TaskStats[k]; !ok {
				existing.TaskStats[k] = v
			}
		}
		if s.HighestScore != nil && (existing.HighestScore == nil || *s.HighestScore > *existing.HighestScore) {
			hs := *s.HighestScore
			existing.HighestScore = &hs
		}
	}
	return matched, removed
}

// ActivitySnapshot returns the learner's folded snapshot for one content
// activity, matched the same way Aggregate matches them. The bool is false
// when the activity is not in the course or the learner has no snapshot.
func (a *Aggregator) ActivitySnapshot(course *models.Course, e models.Enrollment, activityID string) (models.ActivitySnapshot, bool) {
	idx := buildIndex(course)
	target, ok := idx.resolve(models.ActivitySnapshot{ActivityID: activityID})
	if !ok {
		return models.ActivitySnapshot{}, false
	}
	matched, _ := idx.fold(e.ProgressSummary.ActivitySnapshots)
	snap, ok := matched[target.index]
	if !ok {
		return models.ActivitySnapshot{}, false
	}
	return *snap, true
}

// Target returns the write target for a content activity. A stored snapshot
// matches it exactly when Aggregate would attribute that snapshot to the
// activity. An activity missing from the course matches by exact id only.
func (a *Aggregator) Target(course *models.Course, activityID string) models.ActivityTarget {
	idx := buildIndex(course)
	ref, ok := idx.resolve(models.ActivitySnapshot{ActivityID: activityID})
	if !ok {
		return models.ActivityTarget{ActivityID: activityID}
	}
	id := strings.TrimSpace(ref.activity.ID)
	if id == "" {
		id = activityID
	}
	return models.ActivityTarget{
		ActivityID: id,
		Match: func(s models.ActivitySnapshot) bool {
			got, ok := idx.resolve(s)
			return ok && got.index == ref.index
		},
	}
}

type taskCounts struct {
	attempted, completed, credited int
}

func (c *taskCounts) add(s models.TaskStats) {
	if s.IsAttempted() {
		c.attempted++
	}
	if s.IsCompleted() {
		c.completed++
	}
	if s.ResolveCompletionRatio() > 0 {
		c.credited++
	}
}

// AggregateDocument decodes a stored enrollment document and aggregates it.
func (a *Aggregator) AggregateDocument(course *models.Course, doc map[string]any) models.CourseProgress {
	return a.Aggregate(course, DecodeEnrollment(doc))
}

// Aggregate computes course progress from the current content and the
// learner's stored snapshots. The enrollment is not modified.
//
// Snapshots of activities that no longer exist in the content still count
// toward course totals, one task per distinct stats record, but belong to no
// module and earn no XP. Content activities without a snapshot contribute
// their full task count and XP to the totals.
func (a *Aggregator) Aggregate(course *models.Course, e models.Enrollment) models.CourseProgress {
	idx := buildIndex(course)

	p := models.CourseProgress{
		UserID:   e.UserID,
		CourseID: e.CourseID,
		Modules:  map[string]models.ModuleProgress{},
	}
	if course != nil && p.CourseID == "" {
		p.CourseID = course.ID
	}

	rows := make([]models.ActivityProgress, len(idx.order))
	for i, ref := range idx.order {
		tasks := ref.activity.Tasks
		rows[i] = models.ActivityProgress{
			ActivityID: ref.activity.ID,
			Title:      ref.activity.Title,
			ModuleKey:  ref.moduleKey,
			TotalTasks: len(tasks),
			TotalXP:    a.calc.TotalXP(tasks, nil),
		}
		if ref.moduleKey != "" {
			mp := p.Modules[ref.moduleKey]
			mp.TotalTasks += len(tasks)
			p.Modules[ref.moduleKey] = mp
		}

		if dups := taskkey.DuplicateTitles(tasks); dups != nil {
			if p.DuplicateTitles == nil {
				p.DuplicateTitles = map[string][]string{}
			}
			titles := make([]string, 0, len(dups))
			for title := range dups {
				titles = append(titles, title)
			}
			sort.Strings(titles)
			p.DuplicateTitles[ref.activity.ID] = titles
		}
	}
	p.TotalActivities = len(idx.order)
	if course != nil {
		for mi, m := range course.Modules {
			key := ModuleKey(m, mi)
			if _, ok := p.Modules[key]; !ok {
				p.Modules[key] = models.ModuleProgress{}
			}
		}
	}

	matched, removed := idx.fold(e.ProgressSummary.ActivitySnapshots)

	for i, ref := range idx.order {
		row := &rows[i]
		snap, ok := matched[i]
		if !ok {
			continue
		}
		tasks := ref.activity.Tasks
		stats := taskkey.Enrich(snap.TaskStats, tasks)
		lookup := taskkey.NewLookup(stats)

		var counts taskCounts
		for pos, task := range tasks {
			if s, _, found := lookup.Find(task, pos); found {
				counts.add(s)
			}
		}
		row.AttemptedTasks = counts.attempted
		row.CompletedTasks = counts.completed
		row.CreditedTasks = counts.credited
		row.EarnedXP = a.calc.EarnedXP(tasks, stats)
		row.HighestScore = snap.HighestScore
		row.Started = counts.attempted > 0

		if ref.moduleKey != "" {
			mp := p.Modules[ref.moduleKey]
			mp.CompletedTasks += counts.completed
			p.Modules[ref.moduleKey] = mp
		}
	}

	for _, s := range removed {
		records := distinctRecords(s.TaskStats)
		var counts taskCounts
		for _, ts := range records {
			counts.add(ts)
		}
		rows = append(rows, models.ActivityProgress{
			ActivityID:     s.ActivityID,
			TotalTasks:     len(records),
			AttemptedTasks: counts.attempted,
			CompletedTasks: counts.completed,
			CreditedTasks:  counts.credited,
			HighestScore:   s.HighestScore,
			Started:        counts.attempted > 0,
			Removed:        true,
		})
	}

	for _, row := range rows {
		p.TotalTasks += row.TotalTasks
		p.AttemptedTasks += row.AttemptedTasks
		p.CompletedTasks += row.CompletedTasks
		p.CreditedTasks += row.CreditedTasks
		p.EarnedXP += row.EarnedXP
		p.TotalXP += row.TotalXP
		if row.Started {
			p.StartedActivities++
		}
	}

	for key, legacy := range e.ProgressSummary.ModuleProgress {
		if _, ok := p.Modules[key]; !ok {
			p.Modules[key] = legacy
		}
	}

	p.Activities = rows
	p.CompletionPercentage = models.Percentage(p.CompletedTasks, p.TotalTasks)
	return p
}

// distinctRecords returns the snapshot's stats records in key order, dropping
// timestamped records that repeat an earlier one. The same attempt is stored
// under more than one key once a task has been re-keyed. Records without an
// attempt time cannot be told apart and are all kept.
func distinctRecords(stats map[string]models.TaskStats) []models.TaskStats {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.TaskStats, 0, len(keys))
	for _, k := range keys {
		rec := stats[k]
		dup := false
		if rec.AttemptDateTime != nil {
			for _, seen := range out {
				if seen.AttemptDateTime != nil && reflect.DeepEqual(seen, rec) {
					dup = true
					break
				}
			}
		}
		if !dup {
			out = append(out, rec)
		}
	}
	return out
}
