package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eppdetect/internal/config"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	dir := t.TempDir()
	return NewLogger(&config.Config{LogDirectory: dir, LogLevel: "debug"}), dir
}

func readLog(t *testing.T, dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	l, dir := newTestLogger(t)

	l.Info("camera %s connected", "cam1")
	l.Warning("queue full for %s", "cam2")
	l.Error("detector failed: %v", "boom")

	if s := readLog(t, dir, "info.log"); !strings.Contains(s, "camera cam1 connected") {
		t.Errorf("info.log missing entry: %q", s)
	}
	if s := readLog(t, dir, "warning.log"); !strings.Contains(s, "queue full for cam2") || strings.Contains(s, "cam1") {
		t.Errorf("warning.log unexpected content: %q", s)
	}
	if s := readLog(t, dir, "error.log"); !strings.Contains(s, "detector failed: boom") {
		t.Errorf("error.log missing entry: %q", s)
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	l, dir := newTestLogger(t)
	l.Warning("something odd")

	if err := l.CleanLogs("warning.log"); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}
	if s := readLog(t, dir, "warning.log"); s != "" {
		t.Errorf("Expected empty warning.log, got %q", s)
	}
}

func TestLogger_With(t *testing.T) {
	l, dir := newTestLogger(t)
	l.With("camera", "gate").Info("frame evaluated")

	if s := readLog(t, dir, "info.log"); !strings.Contains(s, "gate") {
		t.Errorf("Expected child fields in output, got %q", s)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored")
	if err := l.CleanLogs("info.log"); err != nil {
		t.Errorf("Nop CleanLogs should not fail: %v", err)
	}
}
