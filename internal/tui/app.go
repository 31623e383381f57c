// internal/tui/app.go
//
// The timebox board. It follows The Elm Architecture like every bubbletea
// program: keys become messages, Update applies them through the lifecycle
// controller, and View renders the refreshed snapshot. A one-second tick is
// scheduled only while some task is running.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/timebox/internal/lifecycle"
	"github.com/kingrea/timebox/internal/logbook"
	"github.com/kingrea/timebox/internal/task"
	"github.com/kingrea/timebox/internal/timer"
)

// appState represents which screen we're on
type appState int

const (
	stateBoard        appState = iota // task list
	stateAddForm                      // add-task form
	stateConfirmClear                 // "clear everything?" prompt
)

const logPanelLines = 8

// tickMsg carries one sampler reading into Update.
type tickMsg time.Time

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithTickInterval sets the refresh cadence while a task runs.
func WithTickInterval(interval time.Duration) AppOption {
	return func(a *App) {
		if interval > 0 {
			a.interval = interval
		}
	}
}

// WithLogbook shows the activity log under the board.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// App is the main application model.
type App struct {
	state    appState
	ctrl     *lifecycle.Controller
	logbook  *logbook.Logbook
	clock    func() time.Time
	interval time.Duration

	tasks    []task.Task
	now      time.Time
	selected int
	ticking  bool

	form      *taskForm
	keys      keyMap
	help      help.Model
	statusMsg string

	width  int
	height int
}

// NewApp creates the board on top of a lifecycle controller.
func NewApp(ctrl *lifecycle.Controller, opts ...AppOption) (*App, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("tui: lifecycle controller is required")
	}
	app := &App{
		state:    stateBoard,
		ctrl:     ctrl,
		clock:    time.Now,
		interval: timer.DefaultInterval,
		form:     newTaskForm(),
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.refresh()
	return app, nil
}

// Init checks for anything that expired while timebox was closed and starts
// the tick if a task is still running.
func (a *App) Init() tea.Cmd {
	a.applyTick()
	return a.scheduleTick()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case tickMsg:
		a.ticking = false
		a.applyTick()
		return a, a.scheduleTick()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.state {
		case stateAddForm:
			return a.updateForm(msg)
		case stateConfirmClear:
			return a.updateConfirmClear(msg)
		default:
			return a.updateBoard(msg)
		}
	}
	return a, nil
}

func (a *App) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Up):
		if a.selected > 0 {
			a.selected--
		}
	case key.Matches(msg, a.keys.Down):
		if a.selected < len(a.tasks)-1 {
			a.selected++
		}
	case key.Matches(msg, a.keys.Add):
		a.form.reset()
		a.state = stateAddForm
		a.statusMsg = ""
	case key.Matches(msg, a.keys.Start):
		if t, ok := a.current(); ok {
			if a.ctrl.Start(t.ID) {
				a.statusMsg = fmt.Sprintf("Started %q", t.Text)
			} else if t.Completed {
				a.statusMsg = fmt.Sprintf("%q is already done", t.Text)
			}
			a.refresh()
			return a, a.scheduleTick()
		}
	case key.Matches(msg, a.keys.Stop):
		if t, ok := a.current(); ok && a.ctrl.Stop(t.ID) {
			a.statusMsg = fmt.Sprintf("Stopped %q", t.Text)
			a.refresh()
		}
	case key.Matches(msg, a.keys.Finish):
		if t, ok := a.current(); ok && a.ctrl.Finish(t.ID) {
			a.statusMsg = fmt.Sprintf("Finished %q", t.Text)
			a.refresh()
		}
	case key.Matches(msg, a.keys.Clear):
		if len(a.tasks) > 0 {
			a.state = stateConfirmClear
		}
	}
	return a, nil
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.state = stateBoard
		a.statusMsg = "Add cancelled"
		return a, nil
	case "enter":
		return a.submitForm()
	}
	return a, a.form.update(msg)
}

func (a *App) submitForm() (tea.Model, tea.Cmd) {
	in, err := a.form.input()
	if err != nil {
		a.form.err = err.Error()
		return a, nil
	}
	created, err := a.ctrl.Add(in)
	if err != nil {
		a.form.err = describeAddError(err)
		return a, nil
	}
	a.form.reset()
	a.state = stateBoard
	a.refresh()
	a.selectID(created.ID)
	a.statusMsg = fmt.Sprintf("Added %q (%s)", created.Text, formatMinutes(created.AllocatedMins))
	return a, nil
}

func (a *App) updateConfirmClear(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if err := a.ctrl.ClearAll(); err != nil {
			a.statusMsg = fmt.Sprintf("Clear failed: %v", err)
		} else {
			a.statusMsg = "All tasks cleared"
		}
		a.refresh()
	default:
		a.statusMsg = "Clear cancelled"
	}
	a.state = stateBoard
	return a, nil
}

// applyTick samples the clock and lets the controller complete anything
// that ran out of time.
func (a *App) applyTick() {
	now := a.clock()
	expired := a.ctrl.Tick(now)
	a.refresh()
	if len(expired) == 0 {
		return
	}
	names := make([]string, len(expired))
	for i, t := range expired {
		names[i] = fmt.Sprintf("%q", t.Text)
	}
	a.statusMsg = fmt.Sprintf("⏰ Time is up: %s", strings.Join(names, ", "))
}

// scheduleTick arms the next tick while a task is running. At most one tick
// is in flight.
func (a *App) scheduleTick() tea.Cmd {
	if a.ticking || !timer.AnyRunning(a.tasks) {
		return nil
	}
	a.ticking = true
	return tea.Tick(a.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) refresh() {
	a.tasks = a.ctrl.Tasks()
	a.now = a.clock()
	if a.selected >= len(a.tasks) {
		a.selected = max(0, len(a.tasks)-1)
	}
}

func (a *App) current() (task.Task, bool) {
	if a.selected < 0 || a.selected >= len(a.tasks) {
		return task.Task{}, false
	}
	return a.tasks[a.selected], true
}

func (a *App) selectID(id int64) {
	for i, t := range a.tasks {
		if t.ID == id {
			a.selected = i
			return
		}
	}
}

// View renders the current screen.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(28, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}

	var content string
	switch a.state {
	case stateAddForm:
		content = a.form.view(leftWidth - 4)
	case stateConfirmClear:
		content = lipgloss.JoinVertical(lipgloss.Left,
			a.renderTaskList(leftWidth-4),
			"",
			lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).
				Render(fmt.Sprintf("Delete all %d tasks? (y/N)", len(a.tasks))),
		)
	default:
		content = a.renderTaskList(leftWidth - 4)
	}
	return a.renderBoard(content, leftWidth, rightWidth)
}

func (a *App) renderBoard(mainContent string, leftWidth, rightWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⏱ TIMEBOX")
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, leftWidth)).
		Render(mainContent)
	body := leftBox
	if rightWidth > 0 {
		rightBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(max(20, rightWidth)).
			Render(a.renderSummaryPanel(rightWidth - 4))
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	if a.state == stateBoard {
		sections = append(sections, a.help.View(a.keys))
	}
	return strings.Join(sections, "\n")
}

func (a *App) renderTaskList(width int) string {
	if len(a.tasks) == 0 {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(max(20, width)).
			Render("No tasks yet. Press a to add one.")
	}
	rows := make([]string, 0, len(a.tasks))
	for i, t := range a.tasks {
		rows = append(rows, a.renderTaskRow(t, i == a.selected, width))
	}
	return strings.Join(rows, "\n")
}

func (a *App) renderTaskRow(t task.Task, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	title := fmt.Sprintf("%s%s %s", cursor, stateIcon(t), t.Text)
	meta := formatMinutes(t.AllocatedMins)
	if t.Kind == task.KindRoutine {
		meta = fmt.Sprintf("%s · %s", meta, formatDays(t.Days))
	}
	barWidth := min(30, max(10, width-24))
	progress := timer.Progress(t, a.now)
	line := fmt.Sprintf("   %s %3.0f%%  %s", renderBar(progress, barWidth, t.State()), progress, describeRemaining(t, a.now))

	titleStyle := lipgloss.NewStyle().Width(max(20, width))
	switch {
	case selected:
		titleStyle = titleStyle.Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	case t.Completed:
		titleStyle = titleStyle.Foreground(lipgloss.Color("#666666")).Strikethrough(true)
	}
	metaStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		metaStyle.Render("   "+meta),
		line,
	)
}

func (a *App) renderSummaryPanel(width int) string {
	s := a.ctrl.Summary(a.now)
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("TODAY")
	lines := []string{
		title,
		fmt.Sprintf("Tasks:     %d", s.Total),
		fmt.Sprintf("Running:   %d", s.Running),
		fmt.Sprintf("Idle:      %d", s.Idle),
		fmt.Sprintf("Done:      %d", s.Completed),
		"",
		fmt.Sprintf("Allocated: %s", formatMinutes(s.AllocatedMins)),
		fmt.Sprintf("Left:      %s", formatMinutes(s.RemainingMins)),
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	entries, total, err := a.logbook.Recent(logPanelLines)
	if err != nil || len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Time.IsZero() {
			lines = append(lines, e.Message)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %-5s %s", e.Time.Local().Format("15:04:05"), e.Level, e.Message))
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d entries)", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}
