// Package notify delivers fire-and-forget alerts when a running task uses up
// its allocation.
package notify

import (
	"io"
	"sync"

	"github.com/kingrea/timebox/internal/task"
)

// Notifier is told about each expired task exactly once. Implementations must
// not block and never report failure to the caller.
type Notifier interface {
	Expired(t task.Task)
}

// Func adapts a plain function to Notifier.
type Func func(task.Task)

// Expired implements Notifier.
func (f Func) Expired(t task.Task) {
	if f != nil {
		f(t)
	}
}

// Nop discards every notification.
type Nop struct{}

// Expired implements Notifier.
func (Nop) Expired(task.Task) {}

// Bell rings the terminal bell on the provided writer.
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

// NewBell returns a bell writing to out. A nil writer yields a silent bell.
func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

// Expired implements Notifier.
func (b *Bell) Expired(task.Task) {
	if b == nil || b.out == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _ = io.WriteString(b.out, "\a")
}

// Journal is the subset of logbook.Logbook the activity notifier needs.
type Journal interface {
	Info(format string, args ...any)
}

// Activity records expiries in the activity log.
type Activity struct {
	journal Journal
}

// NewActivity returns a notifier that writes to j.
func NewActivity(j Journal) *Activity {
	return &Activity{journal: j}
}

// Expired implements Notifier.
func (a *Activity) Expired(t task.Task) {
	if a == nil || a.journal == nil {
		return
	}
	a.journal.Info("time is up for %s (%d min)", t.Label(), t.AllocatedMins)
}

// Multi fans a notification out to every non-nil notifier in order.
type Multi []Notifier

// Expired implements Notifier.
func (m Multi) Expired(t task.Task) {
	for _, n := range m {
		if n != nil {
			n.Expired(t)
		}
	}
}
