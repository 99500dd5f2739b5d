// Package taskkey maps tasks to the keys their stats are stored under.
//
// Stats written by different client generations use different keys: the task
// id, the task title, a title-prefixed content fingerprint, or the task
// position. Lookups walk every known form so a content edit does not orphan
// previously recorded attempts.
package taskkey

import (
	"crypto/md5"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/vytor/learnprogress/internal/models"
)

const (
	positionalPrefix = "task_"
	fingerprintSep   = "::"
	defaultPrefix    = "task"
)

// CanonicalKey is the key new stats are written under: the trimmed id, else
// the trimmed title, else "task_<position>".
func CanonicalKey(task models.Task, position int) string {
	if id := strings.TrimSpace(task.ID); id != "" {
		return id
	}
	if title := strings.TrimSpace(task.Title); title != "" {
		return title
	}
	return PositionalKey(position)
}

// PositionalKey is the key used for tasks that carry neither id nor title.
func PositionalKey(position int) string {
	return positionalPrefix + strconv.Itoa(position)
}

// FingerprintKey reproduces the key an earlier client generation used for
// tasks without an id: "<title>::<uuid>" where uuid is the name-based (v3)
// UUID of "title|description|type|status".
func FingerprintKey(task models.Task) string {
	source := strings.TrimSpace(task.Title) + "|" + strings.TrimSpace(task.Description) + "|" +
		strings.TrimSpace(string(task.Type)) + "|" + strings.TrimSpace(task.Status)

	prefix := strings.TrimSpace(task.Title)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return prefix + fingerprintSep + nameUUID([]byte(source)).String()
}

// nameUUID builds a version 3 UUID straight from the MD5 of data, without a
// namespace, matching the bytes older clients persisted.
func nameUUID(data []byte) uuid.UUID {
	sum := md5.Sum(data)
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	u, _ := uuid.FromBytes(sum[:])
	return u
}

// Lookup resolves tasks against one stats map. It precomputes the
// case-insensitive index so resolving every task of an activity stays linear.
type Lookup struct {
	stats  map[string]models.TaskStats
	folded map[string]string
}

// NewLookup indexes stats. A nil map is treated as empty.
func NewLookup(stats map[string]models.TaskStats) *Lookup {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	folded := make(map[string]string, len(keys))
	for _, k := range keys {
		f := fold(k)
		if _, ok := folded[f]; !ok {
			folded[f] = k
		}
	}
	return &Lookup{stats: stats, folded: folded}
}

// Find returns the stats recorded for task and the stored key they were found
// under. The first match wins, in this order: canonical key, raw id, trimmed
// id, id ignoring case, title, trimmed title, title ignoring case, legacy
// fingerprint key, positional key. Case-insensitive matches pick the
// lexicographically smallest stored key.
func (l *Lookup) Find(task models.Task, position int) (models.TaskStats, string, bool) {
	if len(l.stats) == 0 {
		return models.TaskStats{}, "", false
	}

	for _, key := range candidates(task, position) {
		if key.fold {
			stored, ok := l.folded[fold(key.value)]
			if !ok {
				continue
			}
			return l.stats[stored], stored, true
		}
		if s, ok := l.stats[key.value]; ok {
			return s, key.value, true
		}
	}
	return models.TaskStats{}, "", false
}

type candidate struct {
	value string
	fold  bool
}

func candidates(task models.Task, position int) []candidate {
	out := make([]candidate, 0, 9)
	add := func(v string, folded bool) {
		if strings.TrimSpace(v) == "" {
			return
		}
		out = append(out, candidate{value: v, fold: folded})
	}

	add(CanonicalKey(task, position), false)
	add(task.ID, false)
	add(strings.TrimSpace(task.ID), false)
	add(task.ID, true)
	add(task.Title, false)
	add(strings.TrimSpace(task.Title), false)
	add(task.Title, true)
	if strings.TrimSpace(task.ID) == "" {
		add(FingerprintKey(task), false)
	}
	add(PositionalKey(position), false)
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Find is a one-off lookup. Prefer NewLookup when resolving many tasks
// against the same map.
func Find(stats map[string]models.TaskStats, task models.Task, position int) (models.TaskStats, string, bool) {
	return NewLookup(stats).Find(task, position)
}

// Put stores record under the task's canonical key. It returns the key used.
func Put(stats map[string]models.TaskStats, task models.Task, position int, record models.TaskStats) string {
	key := CanonicalKey(task, position)
	stats[key] = record
	return key
}

// Enrich returns a copy of stats where every task that resolves also appears
// under its canonical key. Existing entries are never overwritten.
func Enrich(stats map[string]models.TaskStats, tasks []models.Task) map[string]models.TaskStats {
	out := make(map[string]models.TaskStats, len(stats)+len(tasks))
	for k, v := range stats {
		out[k] = v
	}
	lookup := NewLookup(stats)
	for pos, task := range tasks {
		canonical := CanonicalKey(task, pos)
		if _, ok := out[canonical]; ok {
			continue
		}
		if s, _, ok := lookup.Find(task, pos); ok {
			out[canonical] = s
		}
	}
	return out
}

// DuplicateTitles reports titles shared by more than one task, keyed by the
// folded title, with the positions carrying it. Such tasks can resolve to the
// same stats record when they have no id.
func DuplicateTitles(tasks []models.Task) map[string][]int {
	positions := make(map[string][]int)
	for pos, task := range tasks {
		f := fold(task.Title)
		if f == "" {
			continue
		}
		positions[f] = append(positions[f], pos)
	}
	for title, ps := range positions {
		if len(ps) < 2 {
			delete(positions, title)
		}
	}
	if len(positions) == 0 {
		return nil
	}
	return positions
}
