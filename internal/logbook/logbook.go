// Package logbook keeps the user-facing activity journal: one timestamped
// line per task transition, appended to a file under .timebox/logs and read
// back by `timebox status` and the TUI log panel.
package logbook

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the severity column of an entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const timeLayout = time.RFC3339

// Entry is one journal line.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// String renders the entry the way it is stored.
func (e Entry) String() string {
	if e.Time.IsZero() {
		return e.Message
	}
	return fmt.Sprintf("%s %-5s %s", e.Time.UTC().Format(timeLayout), e.Level, e.Message)
}

// ParseEntry reads a stored line back into an Entry.
func ParseEntry(line string) (Entry, error) {
	stamp, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Entry{}, fmt.Errorf("logbook: malformed entry %q", line)
	}
	at, err := time.Parse(timeLayout, stamp)
	if err != nil {
		return Entry{}, fmt.Errorf("logbook: entry time: %w", err)
	}
	level, message, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
	switch Level(level) {
	case LevelInfo, LevelWarn, LevelError:
	default:
		return Entry{}, fmt.Errorf("logbook: unknown level %q", level)
	}
	return Entry{Time: at, Level: Level(level), Message: strings.TrimLeft(message, " ")}, nil
}

// Option customizes a Logbook.
type Option func(*Logbook)

// WithClock stamps entries with clock instead of time.Now.
func WithClock(clock func() time.Time) Option {
	return func(l *Logbook) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// Logbook appends entries to a single open file.
type Logbook struct {
	path  string
	clock func() time.Time

	mu   sync.Mutex
	file *os.File
}

// Open creates the parent directory and opens path for appending.
func Open(path string, opts ...Option) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logbook: %w", err)
	}
	l := &Logbook{path: path, clock: time.Now, file: file}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record appends one entry. Embedded newlines are folded so every entry
// stays on one line.
func (l *Logbook) Record(level Level, format string, args ...any) error {
	if l == nil {
		return nil
	}
	message := strings.Join(strings.Fields(fmt.Sprintf(format, args...)), " ")
	entry := Entry{Level: level, Message: message}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("logbook: closed")
	}
	entry.Time = l.clock()
	if _, err := l.file.WriteString(entry.String() + "\n"); err != nil {
		return fmt.Errorf("logbook: write: %w", err)
	}
	return nil
}

// Info records a transition.
func (l *Logbook) Info(format string, args ...any) {
	_ = l.Record(LevelInfo, format, args...)
}

// Warn records something the user should look at.
func (l *Logbook) Warn(format string, args ...any) {
	_ = l.Record(LevelWarn, format, args...)
}

// Error records a failure.
func (l *Logbook) Error(format string, args ...any) {
	_ = l.Record(LevelError, format, args...)
}

// Recent returns up to n of the newest entries, oldest first, and the total
// number of entries in the file. Lines that do not parse come back with only
// Message set. A missing file is an empty journal.
func (l *Logbook) Recent(n int) ([]Entry, int, error) {
	if l == nil || n <= 0 {
		return nil, 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("logbook: %w", err)
	}
	defer file.Close()

	ring := make([]string, n)
	total := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		ring[total%n] = scanner.Text()
		total++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("logbook: read: %w", err)
	}

	kept := min(total, n)
	entries := make([]Entry, 0, kept)
	for i := total - kept; i < total; i++ {
		line := ring[i%n]
		entry, err := ParseEntry(line)
		if err != nil {
			entry = Entry{Message: line}
		}
		entries = append(entries, entry)
	}
	return entries, total, nil
}

// Close releases the file. Later writes fail; Recent keeps working.
func (l *Logbook) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
