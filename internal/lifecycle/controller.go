// Package lifecycle owns every task state transition. Operations compute a
// new collection from the store snapshot and commit it with one ReplaceAll,
// so persistence observes each mutation whole and in order.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/kingrea/timebox/internal/notify"
	"github.com/kingrea/timebox/internal/store"
	"github.com/kingrea/timebox/internal/task"
	"github.com/kingrea/timebox/internal/timer"
)

// Clearer empties the store and its durable copy together.
type Clearer interface {
	Clear() error
}

// Journal receives one line per user-visible transition.
type Journal interface {
	Info(format string, args ...any)
}

type nopJournal struct{}

func (nopJournal) Info(string, ...any) {}

// Controller applies lifecycle operations to a store.Store.
type Controller struct {
	tasks        *store.Store
	clearer      Clearer
	clock        func() time.Time
	notifier     notify.Notifier
	journal      Journal
	allowRestart bool
}

// Option customizes the controller.
type Option func(*Controller)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithNotifier sets who hears about expiries.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithJournal records transitions in an activity log.
func WithJournal(j Journal) Option {
	return func(c *Controller) {
		if j != nil {
			c.journal = j
		}
	}
}

// WithAllowRestart controls whether Start begins a fresh run on a completed
// task. It is on by default; passing false makes completion final.
func WithAllowRestart(allow bool) Option {
	return func(c *Controller) {
		c.allowRestart = allow
	}
}

// New wires a controller. clearer may be nil, in which case ClearAll only
// empties the store.
func New(tasks *store.Store, clearer Clearer, opts ...Option) (*Controller, error) {
	if tasks == nil {
		return nil, fmt.Errorf("lifecycle: task store is required")
	}
	c := &Controller{
		tasks:        tasks,
		clearer:      clearer,
		clock:        time.Now,
		notifier:     notify.Nop{},
		journal:      nopJournal{},
		allowRestart: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Tasks returns the current collection.
func (c *Controller) Tasks() []task.Task {
	return c.tasks.All()
}

// Lookup finds a task by id.
func (c *Controller) Lookup(id int64) (task.Task, bool) {
	return c.tasks.Lookup(id)
}

// Running reports whether any task is running, which is when the sampler
// needs to tick.
func (c *Controller) Running() bool {
	return timer.AnyRunning(c.tasks.All())
}

// Add validates in and appends a new idle task. On error the store is left
// unchanged and the error is a *task.ValidationError.
func (c *Controller) Add(in task.Input) (task.Task, error) {
	if err := in.Validate(); err != nil {
		return task.Task{}, err
	}
	now := c.clock()
	tasks := c.tasks.All()
	created := task.New(nextID(tasks, now), in, now)
	c.tasks.ReplaceAll(append(tasks, created))
	c.journal.Info("added %s (%s, %d min)", created.Label(), created.Kind, created.AllocatedMins)
	return created, nil
}

// Start moves an idle task to running. Starting a running task keeps its
// original start time. Starting a completed task clears the completion and
// begins a fresh run unless restarts were disabled.
func (c *Controller) Start(id int64) bool {
	now := c.clock()
	return c.update(id, func(t *task.Task) bool {
		if t.Running {
			return false
		}
		if t.Completed && !c.allowRestart {
			return false
		}
		started := task.MillisOf(now)
		t.Running = true
		t.Completed = false
		t.StartedAt = &started
		c.journal.Info("started %s", t.Label())
		return true
	})
}

// Stop returns a running task to idle without completing it.
func (c *Controller) Stop(id int64) bool {
	return c.update(id, func(t *task.Task) bool {
		if !t.Running {
			return false
		}
		t.Running = false
		t.StartedAt = nil
		c.journal.Info("stopped %s", t.Label())
		return true
	})
}

// Finish completes a task regardless of elapsed time.
func (c *Controller) Finish(id int64) bool {
	return c.update(id, func(t *task.Task) bool {
		if t.Completed {
			return false
		}
		complete(t)
		c.journal.Info("finished %s", t.Label())
		return true
	})
}

// ClearAll empties the store and the persisted copy.
func (c *Controller) ClearAll() error {
	n := c.tasks.Len()
	if c.clearer == nil {
		c.tasks.ReplaceAll(nil)
	} else if err := c.clearer.Clear(); err != nil {
		return fmt.Errorf("lifecycle: clear: %w", err)
	}
	c.journal.Info("cleared %d tasks", n)
	return nil
}

// Tick completes every running task whose allocation is used up at now and
// notifies once per task. All expiries in a tick are committed together.
func (c *Controller) Tick(now time.Time) []task.Task {
	tasks := c.tasks.All()
	var expired []task.Task
	for i := range tasks {
		if !timer.Expired(tasks[i], now) {
			continue
		}
		complete(&tasks[i])
		expired = append(expired, tasks[i].Clone())
	}
	if len(expired) == 0 {
		return nil
	}
	c.tasks.ReplaceAll(tasks)
	for _, t := range expired {
		c.notifier.Expired(t)
	}
	return expired
}

// Progress is the percentage of the allocation used by task id at now.
func (c *Controller) Progress(id int64, now time.Time) (float64, bool) {
	t, ok := c.tasks.Lookup(id)
	if !ok {
		return 0, false
	}
	return timer.Progress(t, now), true
}

// MinutesLeft is the whole minutes remaining for task id at now.
func (c *Controller) MinutesLeft(id int64, now time.Time) (int, bool) {
	t, ok := c.tasks.Lookup(id)
	if !ok {
		return 0, false
	}
	return timer.MinutesLeft(t, now), true
}

// Summary aggregates the collection for status lines.
type Summary struct {
	Total         int
	Idle          int
	Running       int
	Completed     int
	AllocatedMins int
	RemainingMins int
}

// Summary counts tasks by state at now. RemainingMins sums minutes left on
// every task that is not completed.
func (c *Controller) Summary(now time.Time) Summary {
	var s Summary
	for _, t := range c.tasks.All() {
		s.Total++
		s.AllocatedMins += t.AllocatedMins
		switch t.State() {
		case task.StateCompleted:
			s.Completed++
			continue
		case task.StateRunning:
			s.Running++
		default:
			s.Idle++
		}
		s.RemainingMins += timer.MinutesLeft(t, now)
	}
	return s
}

func (c *Controller) update(id int64, mutate func(*task.Task) bool) bool {
	tasks := c.tasks.All()
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		if !mutate(&tasks[i]) {
			return false
		}
		c.tasks.ReplaceAll(tasks)
		return true
	}
	return false
}

func complete(t *task.Task) {
	t.Completed = true
	t.Running = false
	t.StartedAt = nil
}

// nextID uses the creation time in millis, bumped past the largest existing
// id so ids stay unique when two tasks are added within the same millisecond.
func nextID(tasks []task.Task, now time.Time) int64 {
	id := now.UnixMilli()
	for _, t := range tasks {
		if t.ID >= id {
			id = t.ID + 1
		}
	}
	if id <= 0 {
		id = 1
	}
	return id
}

// IsValidation reports whether err came from input validation.
func IsValidation(err error) bool {
	var verr *task.ValidationError
	return errors.As(err, &verr)
}
