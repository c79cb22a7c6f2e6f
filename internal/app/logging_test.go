package app

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer, level LogLevel) *Logger {
	l := NewLogger(LoggerConfig{Level: level, Output: buf, Prefix: "test"})
	l.core.now = func() time.Time {
		return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	return l
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"WARNING", LogLevelWarn},
		{"error", LogLevelError},
		{"unknown", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestValidLogLevel(t *testing.T) {
	if !ValidLogLevel("Warn") {
		t.Error("ValidLogLevel(Warn) should be true")
	}
	if ValidLogLevel("loud") {
		t.Error("ValidLogLevel(loud) should be false")
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LogLevelDebug)

	l.WithComponent("resolver").WithField("mode", "mode_normal").Info("lone motion: %s", "vi_j")

	want := "2024-01-02T03:04:05.000 [INFO] test: lone motion: vi_j {component=resolver, mode=mode_normal}\n"
	if got := buf.String(); got != want {
		t.Errorf("log line = %q, want %q", got, want)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LogLevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered messages: %q", out)
	}
	if !strings.Contains(out, "[WARN]") {
		t.Errorf("output missing warn line: %q", out)
	}
}

func TestLogger_DerivedSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LogLevelInfo)
	child := l.WithComponent("child")

	l.SetLevel(LogLevelError)
	child.Info("dropped")

	if buf.Len() != 0 {
		t.Errorf("derived logger ignored parent level: %q", buf.String())
	}
	if child.Level() != LogLevelError {
		t.Errorf("child.Level() = %v, want %v", child.Level(), LogLevelError)
	}
}

func TestLogger_WithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LogLevelInfo).WithField("a", 1)
	_ = l.WithField("b", 2)

	l.Info("x")
	if strings.Contains(buf.String(), "b=2") {
		t.Errorf("parent logger picked up child field: %q", buf.String())
	}
}

func TestLogger_DisableEnable(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LogLevelDebug)

	l.Disable()
	l.Error("nope")
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}

	l.Enable()
	l.Error("yes")
	if !strings.Contains(buf.String(), "yes") {
		t.Errorf("enabled logger did not write: %q", buf.String())
	}
}

func TestNullLogger(t *testing.T) {
	NullLogger.Error("discarded %d", 1)
	NullLogger.WithComponent("x").Info("discarded")

	var nilLogger *Logger
	nilLogger.Info("nil receiver must not panic")
}
