package task

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes one-time tasks from routines.
type Kind string

const (
	KindOneTime Kind = "one-time"
	KindRoutine Kind = "routine"
)

// ParseKind accepts the wire tokens plus a few shorthands. An empty value is
// a one-time task.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "one-time", "onetime", "once":
		return KindOneTime, nil
	case "routine", "recurring":
		return KindRoutine, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, value)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindOneTime || k == KindRoutine
}

// Allocation bounds in minutes, inclusive.
const (
	MinAllocatedMins = 5
	MaxAllocatedMins = 720
)

// Millis is a unix timestamp in milliseconds, the resolution tasks are
// persisted with.
type Millis int64

// MillisOf converts a wall-clock reading.
func MillisOf(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

// Time converts back to a time.Time in UTC.
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

// State is the derived lifecycle position of a task.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// Task is a single tracked item. Tasks are owned by the store and handled by
// value everywhere else.
type Task struct {
	ID            int64     `json:"id"`
	Text          string    `json:"text"`
	Kind          Kind      `json:"type"`
	Days          []Weekday `json:"daysOfWeek"`
	AllocatedMins int       `json:"allocatedMins"`
	Completed     bool      `json:"completed"`
	Running       bool      `json:"running"`
	StartedAt     *Millis   `json:"startedAt"`
	CreatedAt     Millis    `json:"createdAt,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// Input carries the fields a user supplies when creating a task.
type Input struct {
	Text          string
	Kind          Kind
	Days          []Weekday
	AllocatedMins int
	Notes         string
}

// Validate applies the creation rules: non-blank text, at least one day for
// routines, and an allocation inside [MinAllocatedMins, MaxAllocatedMins].
func (in Input) Validate() error {
	if strings.TrimSpace(in.Text) == "" {
		return &ValidationError{Field: "text", Err: ErrEmptyText}
	}
	kind := in.Kind
	if kind == "" {
		kind = KindOneTime
	}
	if !kind.Valid() {
		return &ValidationError{Field: "type", Err: fmt.Errorf("%w: %q", ErrUnknownKind, in.Kind)}
	}
	if kind == KindRoutine && len(in.Days) == 0 {
		return &ValidationError{Field: "daysOfWeek", Err: ErrNoDays}
	}
	for _, day := range in.Days {
		if !day.Valid() {
			return &ValidationError{Field: "daysOfWeek", Err: fmt.Errorf("%w: %q", ErrUnknownWeekday, day)}
		}
	}
	if in.AllocatedMins < MinAllocatedMins || in.AllocatedMins > MaxAllocatedMins {
		return &ValidationError{Field: "allocatedMins", Err: ErrAllocationRange}
	}
	return nil
}

// New builds an idle task from validated input. Days are kept only for
// routines.
func New(id int64, in Input, now time.Time) Task {
	kind := in.Kind
	if kind == "" {
		kind = KindOneTime
	}
	t := Task{
		ID:            id,
		Text:          strings.TrimSpace(in.Text),
		Kind:          kind,
		AllocatedMins: in.AllocatedMins,
		CreatedAt:     MillisOf(now),
		Notes:         strings.TrimSpace(in.Notes),
	}
	if kind == KindRoutine {
		t.Days = SortWeekdays(in.Days)
	}
	return t
}

// Clone returns a deep copy.
func (t Task) Clone() Task {
	out := t
	if t.Days != nil {
		out.Days = make([]Weekday, len(t.Days))
		copy(out.Days, t.Days)
	}
	if t.StartedAt != nil {
		started := *t.StartedAt
		out.StartedAt = &started
	}
	return out
}

// State derives the lifecycle position from the flags.
func (t Task) State() State {
	switch {
	case t.Completed:
		return StateCompleted
	case t.Running:
		return StateRunning
	default:
		return StateIdle
	}
}

// Allocation returns the time budget.
func (t Task) Allocation() time.Duration {
	return time.Duration(t.AllocatedMins) * time.Minute
}

// Started returns the start time of a running task.
func (t Task) Started() (time.Time, bool) {
	if t.StartedAt == nil {
		return time.Time{}, false
	}
	return t.StartedAt.Time(), true
}

// Validate checks the invariants every stored record must satisfy. Routine
// days are checked for well-formedness only; emptiness is a creation rule.
func (t Task) Validate() error {
	if t.ID <= 0 {
		return &ValidationError{Field: "id", Err: ErrInvalidID}
	}
	if strings.TrimSpace(t.Text) == "" {
		return &ValidationError{Field: "text", Err: ErrEmptyText}
	}
	if !t.Kind.Valid() {
		return &ValidationError{Field: "type", Err: fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)}
	}
	for _, day := range t.Days {
		if !day.Valid() {
			return &ValidationError{Field: "daysOfWeek", Err: fmt.Errorf("%w: %q", ErrUnknownWeekday, day)}
		}
	}
	if t.AllocatedMins < MinAllocatedMins || t.AllocatedMins > MaxAllocatedMins {
		return &ValidationError{Field: "allocatedMins", Err: ErrAllocationRange}
	}
	if t.Running && t.StartedAt == nil {
		return &ValidationError{Field: "startedAt", Err: ErrRunningWithoutStart}
	}
	if t.Running && t.Completed {
		return &ValidationError{Field: "running", Err: ErrCompletedAndRunning}
	}
	return nil
}

// Label is the short human form used in logs.
func (t Task) Label() string {
	return fmt.Sprintf("#%d %q", t.ID, t.Text)
}
