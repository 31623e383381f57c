// Package persist keeps the task store and the durable key-value store in
// sync. The adapter reads the persisted collection once at startup and then
// writes the full collection after every store mutation, but only once that
// first read has finished so an empty startup state can never overwrite
// previously saved tasks.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kingrea/timebox/internal/kv"
	"github.com/kingrea/timebox/internal/store"
	"github.com/kingrea/timebox/internal/task"
)

// Key is the single key the task collection lives under.
const Key = "todos"

// Logger matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Adapter synchronizes a store.Store with a kv.Store.
type Adapter struct {
	backend kv.Store
	tasks   *store.Store
	logger  Logger

	ready      bool
	loading    bool
	clearing   bool
	loadErr    error
	lastErr    error
	writes     int
	suppressed int
}

// Option customizes the adapter.
type Option func(*Adapter)

// WithLogger routes load and write failures to l.
func WithLogger(l Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// New wires the adapter to the store. The adapter is not ready until Load
// has been called.
func New(backend kv.Store, tasks *store.Store, opts ...Option) (*Adapter, error) {
	if backend == nil {
		return nil, fmt.Errorf("persist: key-value store is required")
	}
	if tasks == nil {
		return nil, fmt.Errorf("persist: task store is required")
	}
	a := &Adapter{backend: backend, tasks: tasks, logger: nopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	tasks.Observe(a.save)
	return a, nil
}

// Load reads the persisted collection into the store. A missing key leaves
// the store untouched; unreadable data is logged and discarded whole. Either
// way the adapter is ready afterwards.
func (a *Adapter) Load() {
	a.ready = false
	a.loadErr = nil
	defer func() { a.ready = true }()

	raw, err := a.backend.Get(Key)
	if errors.Is(err, kv.ErrNotFound) {
		return
	}
	if err != nil {
		a.loadErr = err
		a.logger.Printf("persist: read %s: %v", Key, err)
		return
	}
	tasks, err := Decode(raw)
	if err != nil {
		a.loadErr = err
		a.logger.Printf("persist: discarding stored %s: %v", Key, err)
		return
	}
	a.loading = true
	a.tasks.ReplaceAll(tasks)
	a.loading = false
}

// Ready reports whether Load has completed.
func (a *Adapter) Ready() bool {
	return a.ready
}

// LoadError is the reason stored data was discarded during the last Load.
func (a *Adapter) LoadError() error {
	return a.loadErr
}

// LastError is the most recent write failure, cleared by the next success.
func (a *Adapter) LastError() error {
	return a.lastErr
}

// Writes counts successful writes to the backend.
func (a *Adapter) Writes() int {
	return a.writes
}

// Suppressed counts mutations that were not written because Load had not
// finished yet.
func (a *Adapter) Suppressed() int {
	return a.suppressed
}

// Clear removes the persisted key and then empties the store. If the delete
// fails the store is left as it was.
func (a *Adapter) Clear() error {
	if err := a.backend.Delete(Key); err != nil {
		a.lastErr = err
		a.logger.Printf("persist: clear %s: %v", Key, err)
		return fmt.Errorf("persist: clear: %w", err)
	}
	a.clearing = true
	a.tasks.ReplaceAll(nil)
	a.clearing = false
	a.lastErr = nil
	return nil
}

func (a *Adapter) save(tasks []task.Task) {
	if a.clearing || a.loading {
		return
	}
	if !a.ready {
		a.suppressed++
		return
	}
	encoded, err := Encode(tasks)
	if err != nil {
		a.lastErr = err
		a.logger.Printf("persist: encode %s: %v", Key, err)
		return
	}
	if err := a.backend.Set(Key, encoded); err != nil {
		a.lastErr = err
		a.logger.Printf("persist: write %s: %v", Key, err)
		return
	}
	a.lastErr = nil
	a.writes++
}

// Encode renders the collection as a JSON array (never null).
func Encode(tasks []task.Task) (string, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses and validates a persisted collection. Any invalid record or
// duplicate id rejects the whole payload.
func Decode(raw string) ([]task.Task, error) {
	var tasks []task.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	seen := make(map[int64]struct{}, len(tasks))
	for i, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %d", i, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return tasks, nil
}
