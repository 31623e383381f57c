// Package store holds the in-memory, ordered task collection that every other
// component reads from. Mutation is whole-collection replacement only; higher
// level operations compute a new collection from All() and hand it to
// ReplaceAll, which then notifies observers such as the persistence adapter.
package store

import "github.com/kingrea/timebox/internal/task"

// Observer receives a snapshot of the collection after every ReplaceAll.
type Observer func([]task.Task)

// Store is the single source of truth for tasks. It is not safe for
// concurrent use; callers drive it from one goroutine.
type Store struct {
	tasks     []task.Task
	observers []Observer
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// All returns a deep copy of the collection in insertion order.
func (s *Store) All() []task.Task {
	return cloneAll(s.tasks)
}

// Len reports the number of tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Lookup finds a task by id.
func (s *Store) Lookup(id int64) (task.Task, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return task.Task{}, false
}

// ReplaceAll swaps in a new collection and notifies observers in the order
// they were registered.
func (s *Store) ReplaceAll(tasks []task.Task) {
	s.tasks = cloneAll(tasks)
	for _, observe := range s.observers {
		observe(cloneAll(s.tasks))
	}
}

// Observe registers fn for change notifications.
func (s *Store) Observe(fn Observer) {
	if fn == nil {
		return
	}
	s.observers = append(s.observers, fn)
}

func cloneAll(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
