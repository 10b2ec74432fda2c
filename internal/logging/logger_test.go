package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates log file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "nested", "statusbar.log")

		logger, err := NewLogger(logPath, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		logger.Info("hello")

		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("writes to stderr when path is empty", func(t *testing.T) {
		logger, err := NewLogger("", LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if logger.file != nil {
			t.Error("expected file to be nil when path is empty")
		}
	})
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	for _, msg := range []string{"debug message", "info message"} {
		if strings.Contains(out, msg) {
			t.Errorf("%q logged below WARN", msg)
		}
	}
	for _, msg := range []string{"warn message", "error message"} {
		if !strings.Contains(out, msg) {
			t.Errorf("%q missing from output", msg)
		}
	}
}

func TestWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelDebug).WithComponent("supervisor").With("pid", 42)

	logger.Info("spawned", "binary", "i3status")

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}

	want := map[string]any{
		"component": "supervisor",
		"pid":       float64(42),
		"binary":    "i3status",
		"msg":       "spawned",
	}
	for key, value := range want {
		if entry[key] != value {
			t.Errorf("%s = %v, want %v", key, entry[key], value)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Error("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
