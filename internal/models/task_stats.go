package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TaskStats is one learner's recorded attempt on one task. Every field is
// optional; records written by older clients may only carry Success.
type TaskStats struct {
	AttemptDateTime *string  `json:"attemptDateTime,omitempty"`
	TimeSpent       *string  `json:"timeSpent,omitempty"`
	Retries         *int     `json:"retries,omitempty"`
	Success         *bool    `json:"success,omitempty"`
	HintsUsed       *bool    `json:"hintsUsed,omitempty"`
	CompletionRatio *float64 `json:"completionRatio,omitempty"`
	ScoreRatio      *float64 `json:"scoreRatio,omitempty"`

	// Extra holds stored fields this version does not know about.
	Extra map[string]any `json:"-"`
}

// ResolveCompletionRatio returns the clamped completion ratio, falling back to
// the legacy success flag.
func (s TaskStats) ResolveCompletionRatio() float64 {
	if s.CompletionRatio != nil {
		return ClampRatio(*s.CompletionRatio)
	}
	if s.Success != nil && *s.Success {
		return 1
	}
	return 0
}

// ResolveScoreRatio returns the clamped score ratio, falling back to the
// completion ratio.
func (s TaskStats) ResolveScoreRatio() float64 {
	if s.ScoreRatio != nil {
		return ClampRatio(*s.ScoreRatio)
	}
	return s.ResolveCompletionRatio()
}

func (s TaskStats) IsCompleted() bool {
	if s.Success != nil && *s.Success {
		return true
	}
	return s.ResolveCompletionRatio() >= 1.0
}

func (s TaskStats) IsAttempted() bool {
	if s.ResolveCompletionRatio() > 0 {
		return true
	}
	if s.Retries != nil {
		return true
	}
	if s.TimeSpent != nil && strings.TrimSpace(*s.TimeSpent) != "" {
		return true
	}
	return s.AttemptDateTime != nil && strings.TrimSpace(*s.AttemptDateTime) != ""
}

// RetryCount returns retries with negative values clamped to zero.
func (s TaskStats) RetryCount() int {
	if s.Retries == nil || *s.Retries < 0 {
		return 0
	}
	return *s.Retries
}

func (s TaskStats) UsedHints() bool {
	return s.HintsUsed != nil && *s.HintsUsed
}

// TimeSpentDuration parses TimeSpent. ok is false when the value is absent or
// cannot be read.
func (s TaskStats) TimeSpentDuration() (d time.Duration, ok bool) {
	if s.TimeSpent == nil {
		return 0, false
	}
	secs := ParseTimeSpent(*s.TimeSpent)
	if secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// ParseTimeSpent reads "MM:SS" or a bare number of seconds. Non-digit noise
// around a bare number is ignored ("12s" is 12). Returns -1 when unreadable.
func ParseTimeSpent(raw string) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return -1
	}

	if strings.Contains(trimmed, ":") {
		parts := strings.Split(trimmed, ":")
		if len(parts) == 2 {
			minutes, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
			seconds, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err1 != nil || err2 != nil {
				return -1
			}
			return max(0, minutes*60+seconds)
		}
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, trimmed)
	if digits == "" {
		return -1
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return -1
	}
	return n
}

// FormatTimeSpent renders d as "MM:SS".
func FormatTimeSpent(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// ClampRatio bounds v to [0,1]; NaN becomes 0.
func ClampRatio(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
