package logbook

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openBook(t *testing.T, path string) *Logbook {
	t.Helper()
	at := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)
	book, err := Open(path, WithClock(func() time.Time {
		at = at.Add(time.Second)
		return at
	}))
	if err != nil {
		t.Fatalf("open logbook: %v", err)
	}
	t.Cleanup(func() { _ = book.Close() })
	return book
}

func TestRecentReturnsNewestEntriesAndTotal(t *testing.T) {
	book := openBook(t, filepath.Join(t.TempDir(), "activity.log"))
	for i := 0; i < 7; i++ {
		book.Info("entry-%d", i)
	}
	entries, total, err := book.Recent(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if total != 7 {
		t.Fatalf("total = %d, want 7", total)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for idx, want := range []string{"entry-4", "entry-5", "entry-6"} {
		if entries[idx].Message != want || entries[idx].Level != LevelInfo {
			t.Fatalf("entry %d = %+v, want %s", idx, entries[idx], want)
		}
	}
	if !entries[0].Time.Before(entries[2].Time) {
		t.Fatalf("entries should be oldest first: %+v", entries)
	}

	all, total, _ := book.Recent(50)
	if len(all) != 7 || total != 7 {
		t.Fatalf("asking for more than exists should return everything, got %d/%d", len(all), total)
	}
}

func TestLevelsAndLineFolding(t *testing.T) {
	book := openBook(t, filepath.Join(t.TempDir(), "nested", "activity.log"))
	book.Warn("careful")
	book.Error("broken:\n  %s", "disk")
	entries, total, err := book.Recent(10)
	if err != nil || total != 2 {
		t.Fatalf("expected 2 entries, got %d (%v)", total, err)
	}
	if entries[0].Level != LevelWarn || entries[1].Level != LevelError {
		t.Fatalf("levels missing: %+v", entries)
	}
	if entries[1].Message != "broken: disk" {
		t.Fatalf("multi-line message should be folded, got %q", entries[1].Message)
	}
}

func TestEntryStringParsesBack(t *testing.T) {
	e := Entry{Time: time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC), Level: LevelInfo, Message: "started #1 Write report"}
	line := e.String()
	if line != "2026-10-18T09:30:00Z INFO  started #1 Write report" {
		t.Fatalf("unexpected line %q", line)
	}
	back, err := ParseEntry(line)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !back.Time.Equal(e.Time) || back.Level != e.Level || back.Message != e.Message {
		t.Fatalf("parsed %+v, want %+v", back, e)
	}
	for _, bad := range []string{"", "not-a-time INFO x", "2026-10-18T09:30:00Z DEBUG x"} {
		if _, err := ParseEntry(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestForeignLinesAreKeptAsMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	if err := os.WriteFile(path, []byte("hand-written note\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	book := openBook(t, path)
	book.Info("after")
	entries, total, err := book.Recent(5)
	if err != nil || total != 2 {
		t.Fatalf("recent: %d %v", total, err)
	}
	if entries[0].Message != "hand-written note" || !entries[0].Time.IsZero() {
		t.Fatalf("foreign line should be kept verbatim: %+v", entries[0])
	}
	if entries[0].String() != "hand-written note" {
		t.Fatalf("foreign line should render verbatim, got %q", entries[0].String())
	}
}

func TestRecordAfterClose(t *testing.T) {
	book := openBook(t, filepath.Join(t.TempDir(), "activity.log"))
	book.Info("before")
	if err := book.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := book.Record(LevelInfo, "after"); err == nil {
		t.Fatalf("writes after close should fail")
	}
	if err := book.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	entries, total, err := book.Recent(5)
	if err != nil || total != 1 || entries[0].Message != "before" {
		t.Fatalf("journal should stay readable after close: %+v %d %v", entries, total, err)
	}
}

func TestRecentOnMissingFile(t *testing.T) {
	book := openBook(t, filepath.Join(t.TempDir(), "activity.log"))
	if err := os.Remove(book.Path()); err != nil {
		t.Fatal(err)
	}
	entries, total, err := book.Recent(3)
	if entries != nil || total != 0 || err != nil {
		t.Fatalf("expected empty journal, got %v/%d/%v", entries, total, err)
	}
	var nilBook *Logbook
	if entries, _, _ := nilBook.Recent(3); entries != nil {
		t.Fatalf("nil logbook should read as empty")
	}
}
