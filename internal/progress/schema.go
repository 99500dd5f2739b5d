// Package progress decodes stored enrollment documents and rolls them up
// into course progress.
package progress

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vytor/learnprogress/internal/models"
)

// SchemaVersion is written into progressSummary on every save. Documents
// without it predate module-keyed tracking.
const SchemaVersion = 2

// Field names of the stored enrollment document.
const (
	FieldUserID            = "userId"
	FieldCourseID          = "courseId"
	FieldActivityID        = "activityId"
	FieldEnrollmentDate    = "enrollmentDate"
	FieldSelfEnrolled      = "selfEnrolled"
	FieldEnrolledBy        = "enrolledBy"
	FieldCreatedAt         = "createdAt"
	FieldProgressSummary   = "progressSummary"
	FieldSchemaVersion     = "schemaVersion"
	FieldActivitySnapshots = "activitySnapshots"
	FieldModuleProgress    = "moduleProgress"
	FieldTaskStats         = "taskStats"
	FieldHighestScore      = "highestScore"
	FieldCompletedTasks    = "completedTasks"
	FieldTotalTasks        = "totalTasks"

	FieldAttemptDateTime = "attemptDateTime"
	FieldTimeSpent       = "timeSpent"
	FieldRetries         = "retries"
	FieldSuccess         = "success"
	FieldHintsUsed       = "hintsUsed"
	FieldCompletionRatio = "completionRatio"
	FieldScoreRatio      = "scoreRatio"

	// Written by early clients instead of activityId.
	legacyFieldActivityTitle = "activityTitle"
	legacyFieldActivityName  = "activityName"
)

var (
	enrollmentFields = fieldSet(FieldUserID, FieldCourseID, FieldEnrollmentDate, FieldSelfEnrolled,
		FieldEnrolledBy, FieldCreatedAt, FieldProgressSummary)
	summaryFields  = fieldSet(FieldSchemaVersion, FieldActivitySnapshots, FieldModuleProgress)
	snapshotFields = fieldSet(FieldUserID, FieldCourseID, FieldActivityID, FieldHighestScore, FieldTaskStats)
	statsFields    = fieldSet(FieldAttemptDateTime, FieldTimeSpent, FieldRetries, FieldSuccess,
		FieldHintsUsed, FieldCompletionRatio, FieldScoreRatio)
)

func fieldSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// DecodeEnrollment turns a stored document into its typed form. It never
// fails: values of the wrong type fall back to zero values, and unknown
// fields are kept in Extra so they survive a write-back.
func DecodeEnrollment(doc map[string]any) models.Enrollment {
	e := models.Enrollment{
		UserID:         str(doc[FieldUserID]),
		CourseID:       str(doc[FieldCourseID]),
		EnrollmentDate: str(doc[FieldEnrollmentDate]),
		SelfEnrolled:   boolean(doc[FieldSelfEnrolled]),
		EnrolledBy:     str(doc[FieldEnrolledBy]),
		CreatedAt:      str(doc[FieldCreatedAt]),
		Extra:          extra(doc, enrollmentFields),
	}
	summary, _ := doc[FieldProgressSummary].(map[string]any)
	e.ProgressSummary = DecodeProgressSummary(summary)
	return e
}

// DecodeProgressSummary decodes progressSummary, migrating older layouts.
func DecodeProgressSummary(raw map[string]any) models.ProgressSummary {
	ps := models.ProgressSummary{
		SchemaVersion: SchemaVersion,
		Extra:         extra(raw, summaryFields),
	}

	for _, entry := range list(raw[FieldActivitySnapshots]) {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		ps.ActivitySnapshots = append(ps.ActivitySnapshots, DecodeSnapshot(m))
	}

	if modules, ok := raw[FieldModuleProgress].(map[string]any); ok {
		ps.ModuleProgress = make(map[string]models.ModuleProgress, len(modules))
		for key, v := range modules {
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			completed, _ := integer(m[FieldCompletedTasks])
			total, _ := integer(m[FieldTotalTasks])
			ps.ModuleProgress[key] = models.ModuleProgress{
				CompletedTasks: max(0, completed),
				TotalTasks:     max(0, total),
			}
		}
	}
	return ps
}

// DecodeSnapshot decodes one activity snapshot. Snapshots from early clients
// that identify the activity by title are normalised onto ActivityID.
func DecodeSnapshot(raw map[string]any) models.ActivitySnapshot {
	s := models.ActivitySnapshot{
		UserID:     str(raw[FieldUserID]),
		CourseID:   str(raw[FieldCourseID]),
		ActivityID: str(raw[FieldActivityID]),
		TaskStats:  map[string]models.TaskStats{},
		Extra:      extra(raw, snapshotFields),
	}
	if s.ActivityID == "" {
		for _, legacy := range []string{legacyFieldActivityTitle, legacyFieldActivityName} {
			if v := str(raw[legacy]); v != "" {
				s.ActivityID = v
				break
			}
		}
	}
	if hs, ok := integer(raw[FieldHighestScore]); ok {
		s.HighestScore = &hs
	}
	if stats, ok := raw[FieldTaskStats].(map[string]any); ok {
		for key, v := range stats {
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			s.TaskStats[key] = DecodeTaskStats(m)
		}
	}
	return s
}

// DecodeTaskStats decodes one stats record. Numbers stored as strings are
// parsed, ratios are clamped to [0,1] and negative retries become 0.
func DecodeTaskStats(raw map[string]any) models.TaskStats {
	var s models.TaskStats
	if v, ok := optStr(raw[FieldAttemptDateTime]); ok {
		s.AttemptDateTime = &v
	}
	if v, ok := optStr(raw[FieldTimeSpent]); ok {
		s.TimeSpent = &v
	}
	if v, ok := integer(raw[FieldRetries]); ok {
		v = max(0, v)
		s.Retries = &v
	}
	if v, ok := optBool(raw[FieldSuccess]); ok {
		s.Success = &v
	}
	if v, ok := optBool(raw[FieldHintsUsed]); ok {
		s.HintsUsed = &v
	}
	if v, ok := number(raw[FieldCompletionRatio]); ok {
		v = models.ClampRatio(v)
		s.CompletionRatio = &v
	}
	if v, ok := number(raw[FieldScoreRatio]); ok {
		v = models.ClampRatio(v)
		s.ScoreRatio = &v
	}
	s.Extra = extra(raw, statsFields)
	return s
}

// EncodeEnrollment renders a whole enrollment document.
func EncodeEnrollment(e models.Enrollment) map[string]any {
	out := withExtra(e.Extra)
	out[FieldUserID] = e.UserID
	out[FieldCourseID] = e.CourseID
	out[FieldEnrollmentDate] = e.EnrollmentDate
	out[FieldSelfEnrolled] = e.SelfEnrolled
	out[FieldEnrolledBy] = e.EnrolledBy
	out[FieldCreatedAt] = e.CreatedAt
	out[FieldProgressSummary] = EncodeProgressSummary(e.ProgressSummary)
	return out
}

// EncodeProgressSummary renders ps for storage, stamping the current schema
// version and re-attaching unknown fields.
func EncodeProgressSummary(ps models.ProgressSummary) map[string]any {
	out := withExtra(ps.Extra)
	out[FieldSchemaVersion] = SchemaVersion

	snapshots := make([]any, 0, len(ps.ActivitySnapshots))
	for _, s := range ps.ActivitySnapshots {
		snapshots = append(snapshots, EncodeSnapshot(s))
	}
	out[FieldActivitySnapshots] = snapshots

	if ps.ModuleProgress != nil {
		modules := make(map[string]any, len(ps.ModuleProgress))
		for k, m := range ps.ModuleProgress {
			modules[k] = map[string]any{
				FieldCompletedTasks: m.CompletedTasks,
				FieldTotalTasks:     m.TotalTasks,
			}
		}
		out[FieldModuleProgress] = modules
	}
	return out
}

func EncodeSnapshot(s models.ActivitySnapshot) map[string]any {
	out := withExtra(s.Extra)
	out[FieldUserID] = s.UserID
	out[FieldCourseID] = s.CourseID
	out[FieldActivityID] = s.ActivityID
	if s.HighestScore != nil {
		out[FieldHighestScore] = *s.HighestScore
	}
	stats := make(map[string]any, len(s.TaskStats))
	for k, ts := range s.TaskStats {
		stats[k] = EncodeTaskStats(ts)
	}
	out[FieldTaskStats] = stats
	return out
}

// EncodeTaskStats writes only the fields that are set.
func EncodeTaskStats(s models.TaskStats) map[string]any {
	out := withExtra(s.Extra)
	if s.AttemptDateTime != nil {
		out[FieldAttemptDateTime] = *s.AttemptDateTime
	}
	if s.TimeSpent != nil {
		out[FieldTimeSpent] = *s.TimeSpent
	}
	if s.Retries != nil {
		out[FieldRetries] = *s.Retries
	}
	if s.Success != nil {
		out[FieldSuccess] = *s.Success
	}
	if s.HintsUsed != nil {
		out[FieldHintsUsed] = *s.HintsUsed
	}
	if s.CompletionRatio != nil {
		out[FieldCompletionRatio] = *s.CompletionRatio
	}
	if s.ScoreRatio != nil {
		out[FieldScoreRatio] = *s.ScoreRatio
	}
	return out
}

func withExtra(extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra)+8)
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func extra(raw map[string]any, known map[string]bool) map[string]any {
	var out map[string]any
	for k, v := range raw {
		if known[k] {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	return out
}

func list(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	case map[string]any:
		// Some writers stored the list as an index-keyed object.
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, 0, len(t))
		for _, k := range keys {
			out = append(out, t[k])
		}
		return out
	}
	return nil
}

func str(v any) string {
	s, _ := optStr(v)
	return s
}

func optStr(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

func boolean(v any) bool {
	b, _ := optBool(v)
	return b
}

func optBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return b, err == nil
	}
	if n, ok := number(v); ok {
		return n != 0, true
	}
	return false, false
}

func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, true
	}
	return f, true
}

func integer(v any) (int, bool) {
	f, ok := number(v)
	if !ok || math.IsInf(f, 0) {
		return 0, false
	}
	switch {
	case f >= float64(math.MaxInt):
		return math.MaxInt, true
	case f <= float64(math.MinInt):
		return math.MinInt, true
	}
	return int(f), true
}
