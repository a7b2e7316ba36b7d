package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_WritesPerLevelFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	l, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.Info("hello %s", "info")
	l.Warning("hello %s", "warning")
	l.Error("hello %s", "error")

	for file, want := range map[string]string{
		InfoFile:    "hello info",
		WarningFile: "hello warning",
		ErrorFile:   "hello error",
	} {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", file, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected %s to contain %q, got %q", file, want, data)
		}
	}
}

func TestCleanLogs(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.Error("something broke")
	if err := l.CleanLogs(ErrorFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ErrorFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("Expected empty error.log, got %q", data)
	}
}

func TestCleanLogs_ConsoleLogger(t *testing.T) {
	if err := Discard().CleanLogs(InfoFile); err == nil {
		t.Error("Expected error when cleaning logs of a console logger")
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsole(&buf)

	l.Warning("camera %d unavailable", 2)

	if !strings.Contains(buf.String(), "WARNING") || !strings.Contains(buf.String(), "camera 2 unavailable") {
		t.Errorf("Unexpected console output: %q", buf.String())
	}
	if l.Dir() != "" {
		t.Errorf("Expected no log dir, got %q", l.Dir())
	}
}
