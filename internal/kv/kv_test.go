package kv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	file, err := Open(BackendFile, filepath.Join(dir, "store.json"))
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	db, err := Open(BackendSQLite, filepath.Join(dir, "store.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	mem, err := Open(BackendMemory, "")
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	stores := map[string]Store{"file": file, "sqlite": db, "memory": mem}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestBackendsSetGetDelete(t *testing.T) {
	for name, s := range openBackends(t) {
		if _, err := s.Get("todos"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound on empty store, got %v", name, err)
		}
		if err := s.Set("todos", `[{"id":1}]`); err != nil {
			t.Fatalf("%s: set: %v", name, err)
		}
		if err := s.Set("todos", `[]`); err != nil {
			t.Fatalf("%s: overwrite: %v", name, err)
		}
		got, err := s.Get("todos")
		if err != nil || got != `[]` {
			t.Fatalf("%s: get = %q, %v", name, got, err)
		}
		if err := s.Delete("todos"); err != nil {
			t.Fatalf("%s: delete: %v", name, err)
		}
		if _, err := s.Get("todos"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound after delete, got %v", name, err)
		}
		if err := s.Delete("todos"); err != nil {
			t.Fatalf("%s: deleting a missing key should be a no-op: %v", name, err)
		}
		if err := s.Set(" ", "x"); err == nil {
			t.Fatalf("%s: expected blank key to be rejected", name)
		}
	}
}

func TestDurableBackendsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{BackendFile, BackendSQLite} {
		path := filepath.Join(dir, "store-"+backend)
		first, err := Open(backend, path)
		if err != nil {
			t.Fatalf("%s: open: %v", backend, err)
		}
		if err := first.Set("todos", "payload"); err != nil {
			t.Fatalf("%s: set: %v", backend, err)
		}
		if err := first.Close(); err != nil {
			t.Fatalf("%s: close: %v", backend, err)
		}
		second, err := Open(backend, path)
		if err != nil {
			t.Fatalf("%s: reopen: %v", backend, err)
		}
		got, err := second.Get("todos")
		if err != nil || got != "payload" {
			t.Fatalf("%s: value after reopen = %q, %v", backend, got, err)
		}
		_ = second.Close()
	}
}

func TestFileQuarantinesCorruptFileOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewFile(path)
	if err != nil {
		t.Fatalf("new file: %v", err)
	}
	if _, err := store.Get("todos"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if err := store.Set("todos", "[]"); err != nil {
		t.Fatalf("set over corrupt file: %v", err)
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Fatalf("expected corrupt copy to be kept: %v", err)
	}
	if got, err := store.Get("todos"); err != nil || got != "[]" {
		t.Fatalf("get after quarantine = %q, %v", got, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(BackendFile, ""); err == nil {
		t.Fatal("expected empty path error for file backend")
	}
	if _, err := Open(BackendSQLite, ""); err == nil {
		t.Fatal("expected empty path error for sqlite backend")
	}
	if _, err := Open("tape", "x"); err == nil {
		t.Fatal("expected unknown backend error")
	}
}

func TestMemoryCountsWrites(t *testing.T) {
	m := NewMemory()
	_ = m.Set("a", "1")
	_ = m.Set("a", "2")
	if m.Writes() != 2 {
		t.Fatalf("writes = %d, want 2", m.Writes())
	}
}
