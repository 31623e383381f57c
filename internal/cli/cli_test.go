package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/kingrea/timebox/internal/task"
)

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--dir", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func listTasks(t *testing.T, dir string) []task.Task {
	t.Helper()
	out, err := run(t, dir, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var tasks []task.Task
	if err := json.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("decode list output: %v\n%s", err, out)
	}
	return tasks
}

func TestAddListAcrossInvocations(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "add", "Write", "report", "--mins", "30")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, `"Write report"`) {
		t.Fatalf("unexpected add output %q", out)
	}
	if _, err := run(t, dir, "add", "Gym", "--type", "routine", "--days", "thu,mon", "--hours", "1"); err != nil {
		t.Fatalf("add routine: %v", err)
	}
	tasks := listTasks(t, dir)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	gym := tasks[1]
	if gym.Kind != task.KindRoutine || gym.AllocatedMins != 60 || len(gym.Days) != 2 || gym.Days[0] != task.Monday {
		t.Fatalf("unexpected routine %+v", gym)
	}
	table, err := run(t, dir, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(table, "routine(mon,thu)") || !strings.Contains(table, "idle") {
		t.Fatalf("unexpected table:\n%s", table)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	cases := [][]string{
		{"add", "   ", "--mins", "30"},
		{"add", "Gym", "--type", "routine", "--mins", "30"},
		{"add", "Quick", "--mins", "4"},
		{"add", "Long", "--hours", "13"},
		{"add", "Odd", "--type", "weekly", "--mins", "30"},
		{"add", "Odd", "--days", "funday", "--mins", "30"},
	}
	for _, args := range cases {
		if _, err := run(t, dir, args...); err == nil {
			t.Fatalf("%v: expected an error", args)
		}
	}
	if n := len(listTasks(t, dir)); n != 0 {
		t.Fatalf("invalid adds must not create tasks, got %d", n)
	}
}

func TestStartStopFinish(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "add", "Read", "--mins", "15"); err != nil {
		t.Fatal(err)
	}
	id := listTasks(t, dir)[0].ID
	idArg := strconv.FormatInt(id, 10)

	if out, err := run(t, dir, "start", idArg); err != nil || !strings.Contains(out, "Started") {
		t.Fatalf("start: %q %v", out, err)
	}
	if got := listTasks(t, dir)[0]; !got.Running || got.StartedAt == nil {
		t.Fatalf("task should be running after restart of the process: %+v", got)
	}
	if out, err := run(t, dir, "stop", idArg); err != nil || !strings.Contains(out, "Stopped") {
		t.Fatalf("stop: %q %v", out, err)
	}
	if out, _ := run(t, dir, "stop", idArg); !strings.Contains(out, "already idle") {
		t.Fatalf("second stop should be a no-op, got %q", out)
	}
	if out, err := run(t, dir, "finish", idArg); err != nil || !strings.Contains(out, "Finished") {
		t.Fatalf("finish: %q %v", out, err)
	}
	if out, err := run(t, dir, "start", idArg); err != nil || !strings.Contains(out, "Started") {
		t.Fatalf("starting a completed task should begin a fresh run, got %q %v", out, err)
	}
	if got := listTasks(t, dir)[0]; got.Completed || !got.Running {
		t.Fatalf("restart should clear completion: %+v", got)
	}
	if _, err := run(t, dir, "finish", idArg); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TIMEBOX_ALLOW_RESTART", "false")
	if out, _ := run(t, dir, "start", idArg); !strings.Contains(out, "already completed") {
		t.Fatalf("completed tasks should not restart when disabled, got %q", out)
	}
	if out, err := run(t, dir, "start", "12345"); err != nil || !strings.Contains(out, "No task") {
		t.Fatalf("unknown id should be reported, got %q %v", out, err)
	}
	if _, err := run(t, dir, "start", "abc"); err == nil {
		t.Fatalf("non-numeric id should fail")
	}
}

func TestClearNeedsConfirmation(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "add", "a", "--mins", "5"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, dir, "clear"); err == nil {
		t.Fatalf("clear without --yes should fail")
	}
	if out, err := run(t, dir, "clear", "--yes"); err != nil || !strings.Contains(out, "Cleared 1") {
		t.Fatalf("clear: %q %v", out, err)
	}
	if n := len(listTasks(t, dir)); n != 0 {
		t.Fatalf("expected no tasks after clear, got %d", n)
	}
}

func TestStatusAndWatchWithNothingRunning(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "add", "a", "--mins", "20"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, dir, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Tasks: 1 (1 idle, 0 running, 0 done)", "Allocated: 20 min", "Recent activity"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status missing %q:\n%s", want, out)
		}
	}
	out, err = run(t, dir, "watch")
	if err != nil || !strings.Contains(out, "No task is running") {
		t.Fatalf("watch: %q %v", out, err)
	}
}

func TestEphemeralLeavesNoState(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "--ephemeral", "add", "scratch", "--mins", "5"); err != nil {
		t.Fatal(err)
	}
	if n := len(listTasks(t, dir)); n != 0 {
		t.Fatalf("ephemeral tasks leaked into the file store: %d", n)
	}
}

func TestConfigBackendSwitch(t *testing.T) {
	dir := t.TempDir()
	if out, err := run(t, dir, "config", "backend", "sqlite"); err != nil || !strings.Contains(out, "sqlite") {
		t.Fatalf("config backend: %q %v", out, err)
	}
	if _, err := run(t, dir, "add", "Stored in sqlite", "--mins", "10"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".timebox", "state", "store.db")); err != nil {
		t.Fatalf("expected sqlite database: %v", err)
	}
	out, err := run(t, dir, "config", "show")
	if err != nil || !strings.Contains(out, "backend: sqlite") {
		t.Fatalf("config show: %q %v", out, err)
	}
	if _, err := run(t, dir, "config", "backend", "postgres"); err == nil {
		t.Fatalf("unknown backend should fail")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	if err != nil || strings.TrimSpace(out) != "timebox test" {
		t.Fatalf("version: %q %v", out, err)
	}
}
