package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "pipeline.log")
	var out bytes.Buffer

	logger, closer, err := New(Options{Level: "debug", Format: "console", FilePath: logPath, Out: &out})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.With("component", "test").Info("stage done", "work_item", "abc")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if !strings.Contains(out.String(), "stage done") || !strings.Contains(out.String(), "component=test") {
		t.Fatalf("console output missing record: %q", out.String())
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("log file is not JSON lines: %v (%q)", err, data)
	}
	if rec["work_item"] != "abc" || rec["component"] != "test" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewAutoFormatForNonTerminal(t *testing.T) {
	var out bytes.Buffer
	logger, _, err := New(Options{Format: "auto", Out: &out})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello")
	if !strings.HasPrefix(strings.TrimSpace(out.String()), "{") {
		t.Fatalf("auto format on a buffer should be JSON, got %q", out.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := New(Options{Format: "xml", Out: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	write := func(name string, age time.Duration) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		mt := now.Add(-age)
		if err := os.Chtimes(p, mt, mt); err != nil {
			t.Fatal(err)
		}
		return p
	}
	old := write("old.log", 30*24*time.Hour)
	fresh := write("fresh.log", time.Hour)
	active := write("pipeline.log", 30*24*time.Hour)
	hashes := write("script_hashes.txt", 30*24*time.Hour)

	removed := CleanupOldLogs(Discard(), dir, 14, active, now)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("old log should be removed")
	}
	for _, keep := range []string{fresh, active, hashes} {
		if _, err := os.Stat(keep); err != nil {
			t.Fatalf("%s should be kept: %v", keep, err)
		}
	}
}
