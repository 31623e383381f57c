// Package timer derives running-task progress from a sampled wall clock and
// drives the periodic sampling that detects expiry.
package timer

import (
	"math"
	"time"

	"github.com/kingrea/timebox/internal/task"
)

// Elapsed is the time since a running task started. It is zero for tasks
// that are not running and never negative.
func Elapsed(t task.Task, now time.Time) time.Duration {
	if !t.Running {
		return 0
	}
	started, ok := t.Started()
	if !ok {
		return 0
	}
	d := now.Sub(started)
	if d < 0 {
		return 0
	}
	return d
}

// Progress is elapsed/allocation as a percentage clamped to [0, 100].
// Completed tasks report 100; idle tasks report 0.
func Progress(t task.Task, now time.Time) float64 {
	if t.Completed {
		return 100
	}
	total := t.Allocation().Seconds()
	if total <= 0 {
		return 0
	}
	pct := Elapsed(t, now).Seconds() / total * 100
	return math.Min(pct, 100)
}

// MinutesLeft is allocation minus whole elapsed minutes, never negative.
func MinutesLeft(t task.Task, now time.Time) int {
	if t.Completed {
		return 0
	}
	elapsedMins := int(math.Floor(Elapsed(t, now).Seconds() / 60))
	left := t.AllocatedMins - elapsedMins
	if left < 0 {
		return 0
	}
	return left
}

// Remaining is the unrounded time left, for second-level countdown display.
func Remaining(t task.Task, now time.Time) time.Duration {
	if t.Completed {
		return 0
	}
	left := t.Allocation() - Elapsed(t, now)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether a running, uncompleted task has used its whole
// allocation at now.
func Expired(t task.Task, now time.Time) bool {
	if !t.Running || t.Completed || t.StartedAt == nil {
		return false
	}
	return Elapsed(t, now) >= t.Allocation()
}

// AnyRunning reports whether at least one task is running.
func AnyRunning(tasks []task.Task) bool {
	for _, t := range tasks {
		if t.Running {
			return true
		}
	}
	return false
}
