package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestInitAndLog(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelDebug, &buf, false)

	Info("TestSubsystem", "hello %s", "world")

	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Errorf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, "TestSubsystem") {
		t.Errorf("expected subsystem in output, got: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelWarn, &buf, false)

	Debug("Test", "should not appear")
	Info("Test", "should not appear either")
	Warn("Test", "warning message")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("debug/info output leaked through warn filter: %s", out)
	}
	if !strings.Contains(out, "warning message") {
		t.Errorf("expected warning in output, got: %s", out)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf, true)

	Info("Test", "structured entry")

	out := buf.String()
	if !strings.Contains(out, `"subsystem":"Test"`) {
		t.Errorf("expected JSON subsystem attribute, got: %s", out)
	}
}

func TestTruncateSessionID(t *testing.T) {
	if got := TruncateSessionID("short"); got != "short" {
		t.Errorf("short IDs should pass through, got %q", got)
	}
	if got := TruncateSessionID("0123456789abcdef"); got != "01234567..." {
		t.Errorf("long IDs should truncate, got %q", got)
	}
}
