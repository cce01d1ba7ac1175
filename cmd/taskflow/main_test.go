package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TaskFlow/internal/adapter/tiered"
	"github.com/Strob0t/TaskFlow/internal/domain/task"
)

// parsed returns a command with the global flags registered and args parsed.
func parsed(t *testing.T, args ...string) (*cobra.Command, *globalFlags) {
	t.Helper()
	g := &globalFlags{}
	cmd := &cobra.Command{Use: "test"}
	g.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd, g
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TASKFLOW_STORAGE_BACKEND", "TASKFLOW_STORAGE_CACHE", "TASKFLOW_SQLITE_PATH",
		"TASKFLOW_NATS_PUBLISH", "TASKFLOW_LOG_ASYNC",
	} {
		t.Setenv(k, "")
	}
}

func TestOverridesOnlyChangedFlags(t *testing.T) {
	cmd, g := parsed(t, "--port", "9999", "--backend", "memory")
	o := g.overrides(cmd)

	if o.Port == nil || *o.Port != "9999" {
		t.Errorf("Port override = %v", o.Port)
	}
	if o.Backend == nil || *o.Backend != "memory" {
		t.Errorf("Backend override = %v", o.Backend)
	}
	if o.LogLevel != nil || o.DSN != nil || o.Model != nil || o.NatsURL != nil || o.SQLitePath != nil {
		t.Error("unset flags must not produce overrides")
	}
	if o.ConfigPath == nil || *o.ConfigPath != "taskflow.yaml" {
		t.Errorf("ConfigPath = %v", o.ConfigPath)
	}
}

func TestBootstrapSQLitePersists(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	args := []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--backend", "sqlite",
		"--sqlite-path", filepath.Join(dir, "tasks.db"),
	}
	ctx := context.Background()

	cmd, g := parsed(t, args...)
	a, err := bootstrap(ctx, cmd, g, io.Discard)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	added := a.store.Add(ctx, task.Draft{Title: "persist me", Importance: task.ImportanceHigh})
	a.close()

	cmd, g = parsed(t, args...)
	b, err := bootstrap(ctx, cmd, g, io.Discard)
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	defer b.close()

	got, ok := b.store.Get(added.ID)
	if !ok || got.Title != "persist me" {
		t.Fatalf("task not reloaded: %+v ok=%v", got, ok)
	}
}

func TestBootstrapCacheUsesTieredStore(t *testing.T) {
	isolateEnv(t)
	t.Setenv("TASKFLOW_STORAGE_CACHE", "true")
	dir := t.TempDir()

	cmd, g := parsed(t,
		"--config", filepath.Join(dir, "missing.yaml"),
		"--backend", "sqlite",
		"--sqlite-path", filepath.Join(dir, "tasks.db"),
	)
	a, err := bootstrap(context.Background(), cmd, g, io.Discard)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer a.close()

	if _, ok := a.slots.(*tiered.Store); !ok {
		t.Fatalf("slots = %T, want *tiered.Store", a.slots)
	}
}

func TestBootstrapRejectsUnknownBackend(t *testing.T) {
	isolateEnv(t)
	cmd, g := parsed(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--backend", "redis")
	if _, err := bootstrap(context.Background(), cmd, g, io.Discard); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestOriginHost(t *testing.T) {
	tests := map[string]string{
		"http://localhost:3000":    "localhost:3000",
		"https://tasks.example.io": "tasks.example.io",
		"*":                        "*",
	}
	for in, want := range tests {
		if got := originHost(in); got != want {
			t.Errorf("originHost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDescribeError(t *testing.T) {
	_, err := task.Form{Title: "", Importance: "urgent"}.ValidateEdit()
	msg := describeError(err)
	if !strings.Contains(msg, "title: Title cannot be empty.") || !strings.Contains(msg, "importance:") {
		t.Fatalf("unexpected message %q", msg)
	}

	if got := describeError(errors.New("boom")); got != "boom" {
		t.Fatalf("plain error = %q", got)
	}
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf}
	score := 87.5
	tasks := []task.Task{
		{ID: "a1", Title: "Write report", Importance: task.ImportanceHigh, PriorityScore: &score, Reasoning: "due soon"},
		{ID: "b2", Title: "Water plants", Importance: task.ImportanceLow, Completed: true},
	}
	if err := p.tasks(tasks, task.Count(tasks)); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"TITLE", "Write report", "87.5", "due soon", "1 pending, 1 completed, 2 total"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf, json: true}
	if err := p.task(task.Task{ID: "a1", Title: "x", Importance: task.ImportanceLow}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"title": "x"`) {
		t.Fatalf("unexpected JSON %s", buf.String())
	}
}
