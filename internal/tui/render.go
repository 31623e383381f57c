package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/timebox/internal/task"
	"github.com/kingrea/timebox/internal/timer"
)

var (
	barRunning   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	barCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	barEmpty     = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

// renderBar draws a fixed-width progress bar for pct in [0, 100].
func renderBar(pct float64, width int, state task.State) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(pct / 100 * float64(width)))
	filled = min(max(filled, 0), width)
	style := barRunning
	if state == task.StateCompleted {
		style = barCompleted
	}
	return style.Render(strings.Repeat("█", filled)) + barEmpty.Render(strings.Repeat("░", width-filled))
}

func stateIcon(t task.Task) string {
	switch t.State() {
	case task.StateCompleted:
		return "✓"
	case task.StateRunning:
		return "▶"
	default:
		return "○"
	}
}

// formatMinutes renders 90 as "1h 30m".
func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	h, m := mins/60, mins%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

func formatDays(days []task.Weekday) string {
	if len(days) == 0 {
		return "no days"
	}
	if len(days) == len(task.Weekdays()) {
		return "every day"
	}
	names := make([]string, len(days))
	for i, day := range days {
		names[i] = day.Title()
	}
	return strings.Join(names, " ")
}

// describeRemaining is the right-hand label of a task row.
func describeRemaining(t task.Task, now time.Time) string {
	switch t.State() {
	case task.StateCompleted:
		return "done"
	case task.StateRunning:
		left := timer.Remaining(t, now)
		return fmt.Sprintf("%d min left (%s)", timer.MinutesLeft(t, now), formatClock(left))
	default:
		return fmt.Sprintf("%d min left", t.AllocatedMins)
	}
}

// formatClock renders a duration as mm:ss, or h:mm:ss past an hour.
func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// describeAddError turns a validation failure into form feedback.
func describeAddError(err error) string {
	switch {
	case errors.Is(err, task.ErrEmptyText):
		return "Task text is required"
	case errors.Is(err, task.ErrNoDays):
		return "Pick at least one day for a routine"
	case errors.Is(err, task.ErrAllocationRange):
		return fmt.Sprintf("Allocation must be between %s and %s",
			formatMinutes(task.MinAllocatedMins), formatMinutes(task.MaxAllocatedMins))
	}
	return err.Error()
}
