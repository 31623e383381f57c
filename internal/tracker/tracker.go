// Package tracker assembles the task store, its durable backend, the
// persistence adapter and the lifecycle controller from project
// configuration, and tears them down again.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kingrea/timebox/internal/config"
	"github.com/kingrea/timebox/internal/kv"
	"github.com/kingrea/timebox/internal/lifecycle"
	"github.com/kingrea/timebox/internal/logbook"
	"github.com/kingrea/timebox/internal/logging"
	"github.com/kingrea/timebox/internal/notify"
	"github.com/kingrea/timebox/internal/persist"
	"github.com/kingrea/timebox/internal/store"
	"github.com/kingrea/timebox/internal/task"
	"github.com/kingrea/timebox/internal/timer"
)

// Options adjust how a tracker is assembled.
type Options struct {
	// Ephemeral swaps the configured backend for an in-memory one.
	Ephemeral bool
	// Bell receives the terminal bell on expiry. Nil disables it.
	Bell io.Writer
	// Notifier is added after the bell and the activity log.
	Notifier notify.Notifier
	// Clock overrides time.Now for the controller and the sampler.
	Clock func() time.Time
}

// Tracker is the running core of timebox.
type Tracker struct {
	cfg        *config.Config
	backend    kv.Store
	tasks      *store.Store
	adapter    *persist.Adapter
	controller *lifecycle.Controller
	journal    *logbook.Logbook
	logger     *logging.Logger
	clock      func() time.Time

	mu        sync.Mutex
	cancel    context.CancelFunc
	watchDone chan struct{}
	closed    bool
}

// Open builds a tracker and loads persisted tasks. Corrupt stored data is
// logged and discarded; only backend construction failures are returned.
func Open(cfg *config.Config, opts Options) (*Tracker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tracker: config is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	logger, err := logging.New(cfg.DebugLogPath())
	if err != nil {
		return nil, fmt.Errorf("tracker: open debug log: %w", err)
	}
	journal, err := logbook.Open(cfg.ActivityLogPath(), logbook.WithClock(clock))
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("tracker: open activity log: %w", err)
	}

	backendName, path := cfg.Backend(), cfg.StorePath()
	if opts.Ephemeral {
		backendName, path = kv.BackendMemory, ""
	}
	backend, err := kv.Open(backendName, path)
	if err != nil {
		_ = journal.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("tracker: open %s backend: %w", backendName, err)
	}

	tasks := store.New()
	adapter, err := persist.New(backend, tasks, persist.WithLogger(logger))
	if err != nil {
		_ = backend.Close()
		_ = journal.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("tracker: %w", err)
	}

	notifiers := notify.Multi{notify.NewActivity(journal)}
	if opts.Bell != nil && cfg.BellEnabled() {
		notifiers = append(notifiers, notify.NewBell(opts.Bell))
	}
	if opts.Notifier != nil {
		notifiers = append(notifiers, opts.Notifier)
	}

	controller, err := lifecycle.New(tasks, adapter,
		lifecycle.WithClock(clock),
		lifecycle.WithNotifier(notifiers),
		lifecycle.WithJournal(journal),
		lifecycle.WithAllowRestart(cfg.AllowRestart()),
	)
	if err != nil {
		_ = backend.Close()
		_ = journal.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("tracker: %w", err)
	}

	adapter.Load()
	if loadErr := adapter.LoadError(); loadErr != nil {
		journal.Warn("stored tasks were unreadable and have been discarded")
	}
	logger.Printf("tracker: opened %s backend with %d tasks", backendName, tasks.Len())

	return &Tracker{
		cfg:        cfg,
		backend:    backend,
		tasks:      tasks,
		adapter:    adapter,
		controller: controller,
		journal:    journal,
		logger:     logger,
		clock:      clock,
	}, nil
}

// Controller exposes the lifecycle operations.
func (t *Tracker) Controller() *lifecycle.Controller {
	return t.controller
}

// Adapter exposes persistence diagnostics.
func (t *Tracker) Adapter() *persist.Adapter {
	return t.adapter
}

// Logbook exposes the activity log.
func (t *Tracker) Logbook() *logbook.Logbook {
	return t.journal
}

// Config returns the configuration the tracker was built from.
func (t *Tracker) Config() *config.Config {
	return t.cfg
}

// Now reads the tracker's clock.
func (t *Tracker) Now() time.Time {
	return t.clock()
}

// Watch samples the clock every configured tick while a task is running,
// completing expired tasks, until ctx is cancelled or the tracker is closed.
// onTick, if set, sees every sample together with what expired in it. Watch
// runs on the caller's goroutine. onTick must not call Close.
func (t *Tracker) Watch(ctx context.Context, onTick func(now time.Time, expired []task.Task)) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("tracker: closed")
	}
	if t.cancel != nil {
		t.mu.Unlock()
		return fmt.Errorf("tracker: already watching")
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.watchDone = done
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.cancel = nil
		t.watchDone = nil
		t.mu.Unlock()
		cancel()
		close(done)
	}()

	sampler, err := timer.NewSampler(t.cfg.TickInterval(), func(now time.Time) {
		expired := t.controller.Tick(now)
		if onTick != nil {
			onTick(now, expired)
		}
	}, timer.WithClock(t.clock), timer.WithActive(t.controller.Running))
	if err != nil {
		return fmt.Errorf("tracker: %w", err)
	}
	// Catch anything that expired while nobody was sampling.
	sampler.Sample()

	err = sampler.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close cancels an active Watch, waits for it to return, and then releases
// the backend and logs.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	watching := t.watchDone
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()

	if watching != nil {
		<-watching
	}

	if err := t.adapter.LastError(); err != nil {
		t.journal.Error("last save failed, recent changes may be lost: %v", err)
	}

	var errs []error
	if err := t.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("tracker: close backend: %w", err))
	}
	if err := t.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("tracker: close activity log: %w", err))
	}
	if err := t.logger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("tracker: close debug log: %w", err))
	}
	return errors.Join(errs...)
}
