package store

import (
	"testing"

	"github.com/kingrea/timebox/internal/task"
)

func sampleTasks() []task.Task {
	return []task.Task{
		{ID: 1, Text: "alpha", Kind: task.KindOneTime, AllocatedMins: 10},
		{ID: 2, Text: "beta", Kind: task.KindRoutine, Days: []task.Weekday{task.Monday}, AllocatedMins: 20},
	}
}

func TestReplaceAllNotifiesObserversInOrder(t *testing.T) {
	s := New()
	var calls []string
	var seen []task.Task
	s.Observe(func(tasks []task.Task) {
		calls = append(calls, "first")
		seen = tasks
	})
	s.Observe(func([]task.Task) { calls = append(calls, "second") })
	s.Observe(nil)
	s.ReplaceAll(sampleTasks())
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected observer calls: %v", calls)
	}
	if len(seen) != 2 || seen[1].Text != "beta" {
		t.Fatalf("observer got %+v", seen)
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
}

func TestAllReturnsSnapshot(t *testing.T) {
	s := New()
	input := sampleTasks()
	s.ReplaceAll(input)
	input[0].Text = "mutated by caller"
	snap := s.All()
	if snap[0].Text != "alpha" {
		t.Fatalf("store aliased caller slice: %q", snap[0].Text)
	}
	snap[1].Days[0] = task.Sunday
	again := s.All()
	if again[1].Days[0] != task.Monday {
		t.Fatalf("snapshot mutation leaked into store")
	}
}

func TestLookup(t *testing.T) {
	s := New()
	s.ReplaceAll(sampleTasks())
	got, ok := s.Lookup(2)
	if !ok || got.Text != "beta" {
		t.Fatalf("lookup 2 = %+v, %v", got, ok)
	}
	if _, ok := s.Lookup(99); ok {
		t.Fatalf("lookup of missing id should miss")
	}
}

func TestReplaceAllWithNilEmpties(t *testing.T) {
	s := New()
	s.ReplaceAll(sampleTasks())
	s.ReplaceAll(nil)
	if s.Len() != 0 || len(s.All()) != 0 {
		t.Fatalf("expected empty store")
	}
}
