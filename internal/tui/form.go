package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/timebox/internal/task"
)

// formField identifies which part of the add form has focus.
type formField int

const (
	fieldText formField = iota
	fieldKind
	fieldDays
	fieldHours
	fieldMinutes
	fieldNotes
	fieldCount
)

const (
	defaultFormHours   = "0"
	defaultFormMinutes = "30"
)

// taskForm owns the add-task form state. The core only sees the Input it
// produces on submit.
type taskForm struct {
	text    textinput.Model
	hours   textinput.Model
	minutes textinput.Model
	notes   textinput.Model

	kind      task.Kind
	days      map[task.Weekday]bool
	dayCursor int
	focus     formField
	err       string
}

func newTaskForm() *taskForm {
	text := textinput.New()
	text.Placeholder = "What are you working on?"
	text.CharLimit = 200
	text.Prompt = ""

	hours := textinput.New()
	hours.CharLimit = 2
	hours.Prompt = ""
	hours.Width = 3

	minutes := textinput.New()
	minutes.CharLimit = 3
	minutes.Prompt = ""
	minutes.Width = 4

	notes := textinput.New()
	notes.Placeholder = "optional"
	notes.CharLimit = 500
	notes.Prompt = ""

	f := &taskForm{text: text, hours: hours, minutes: minutes, notes: notes}
	f.reset()
	return f
}

// reset clears every field and focuses the text input.
func (f *taskForm) reset() {
	f.text.SetValue("")
	f.hours.SetValue(defaultFormHours)
	f.minutes.SetValue(defaultFormMinutes)
	f.notes.SetValue("")
	f.kind = task.KindOneTime
	f.days = map[task.Weekday]bool{}
	f.dayCursor = 0
	f.err = ""
	f.setFocus(fieldText)
}

func (f *taskForm) setFocus(field formField) {
	if field == fieldDays && f.kind != task.KindRoutine {
		// Days only apply to routines; skip in the direction of travel.
		if f.focus < field {
			field = fieldHours
		} else {
			field = fieldKind
		}
	}
	f.focus = field
	f.text.Blur()
	f.hours.Blur()
	f.minutes.Blur()
	f.notes.Blur()
	switch field {
	case fieldText:
		f.text.Focus()
	case fieldHours:
		f.hours.Focus()
	case fieldMinutes:
		f.minutes.Focus()
	case fieldNotes:
		f.notes.Focus()
	}
}

func (f *taskForm) next() {
	f.setFocus((f.focus + 1) % fieldCount)
}

func (f *taskForm) prev() {
	f.setFocus((f.focus + fieldCount - 1) % fieldCount)
}

func (f *taskForm) toggleKind() {
	if f.kind == task.KindRoutine {
		f.kind = task.KindOneTime
	} else {
		f.kind = task.KindRoutine
	}
}

func (f *taskForm) toggleDay() {
	day := task.Weekdays()[f.dayCursor]
	f.days[day] = !f.days[day]
}

func (f *taskForm) selectedDays() []task.Weekday {
	var out []task.Weekday
	for _, day := range task.Weekdays() {
		if f.days[day] {
			out = append(out, day)
		}
	}
	return out
}

// update routes a key to the focused field.
func (f *taskForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		f.next()
		return nil
	case "shift+tab", "up":
		f.prev()
		return nil
	}
	switch f.focus {
	case fieldKind:
		switch msg.String() {
		case " ", "left", "right", "h", "l":
			f.toggleKind()
		}
		return nil
	case fieldDays:
		switch msg.String() {
		case "left", "h":
			if f.dayCursor > 0 {
				f.dayCursor--
			}
		case "right", "l":
			if f.dayCursor < len(task.Weekdays())-1 {
				f.dayCursor++
			}
		case " ", "x":
			f.toggleDay()
		}
		return nil
	}
	var cmd tea.Cmd
	switch f.focus {
	case fieldText:
		f.text, cmd = f.text.Update(msg)
	case fieldHours:
		f.hours, cmd = f.hours.Update(msg)
	case fieldMinutes:
		f.minutes, cmd = f.minutes.Update(msg)
	case fieldNotes:
		f.notes, cmd = f.notes.Update(msg)
	}
	return cmd
}

// input converts the form into creation input. Only the hour and minute
// pickers are checked here; everything else is the controller's call.
func (f *taskForm) input() (task.Input, error) {
	hours, err := parsePicker(f.hours.Value(), "hours")
	if err != nil {
		return task.Input{}, err
	}
	minutes, err := parsePicker(f.minutes.Value(), "minutes")
	if err != nil {
		return task.Input{}, err
	}
	in := task.Input{
		Text:          f.text.Value(),
		Kind:          f.kind,
		AllocatedMins: hours*60 + minutes,
		Notes:         f.notes.Value(),
	}
	if f.kind == task.KindRoutine {
		in.Days = f.selectedDays()
	}
	return in, nil
}

func parsePicker(value, name string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a whole number", name)
	}
	return n, nil
}

func (f *taskForm) view(width int) string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(10)
	focused := lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true).Width(10)
	row := func(field formField, name, value string) string {
		style := label
		if f.focus == field {
			style = focused
		}
		return style.Render(name) + value
	}

	kind := "(•) one-time  ( ) routine"
	if f.kind == task.KindRoutine {
		kind = "( ) one-time  (•) routine"
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).Render("New task"),
		"",
		row(fieldText, "Task", f.text.View()),
		row(fieldKind, "Type", kind),
	}
	if f.kind == task.KindRoutine {
		lines = append(lines, row(fieldDays, "Days", f.renderDays()))
	}
	lines = append(lines,
		row(fieldHours, "Hours", f.hours.View()),
		row(fieldMinutes, "Minutes", f.minutes.View()),
		row(fieldNotes, "Notes", f.notes.View()),
	)
	if f.err != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render("⚠ "+f.err))
	}
	lines = append(lines, "", lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render("tab/shift+tab move · space toggles · enter adds · esc cancels"))
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (f *taskForm) renderDays() string {
	var parts []string
	for i, day := range task.Weekdays() {
		mark := " "
		if f.days[day] {
			mark = "x"
		}
		cell := fmt.Sprintf("[%s]%s", mark, day.Title())
		if f.focus == fieldDays && i == f.dayCursor {
			cell = lipgloss.NewStyle().Underline(true).Render(cell)
		}
		parts = append(parts, cell)
	}
	return strings.Join(parts, " ")
}
