package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decodeEntry(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("failed to parse JSON log entry: %v (raw: %s)", err, data)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"not-a-level", LevelInfo}, // default
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf), WithLevel(LevelDebug), WithFormat(FormatJSON))

	logger.Info("test message", Fields{"key": "value"})

	entry := decodeEntry(t, buf.Bytes())
	if entry[zerolog.LevelFieldName] != "info" {
		t.Errorf("expected level info, got %v", entry[zerolog.LevelFieldName])
	}
	if entry[zerolog.MessageFieldName] != "test message" {
		t.Errorf("expected message 'test message', got %v", entry[zerolog.MessageFieldName])
	}
	if entry["key"] != "value" {
		t.Errorf("expected key=value, got key=%v", entry["key"])
	}
	if _, ok := entry[zerolog.TimestampFieldName]; !ok {
		t.Error("expected a timestamp field")
	}
}

func TestLoggerConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf), WithLevel(LevelDebug), WithFormat(FormatConsole))

	logger.Warn("heads up")

	output := buf.String()
	if !strings.Contains(output, "heads up") {
		t.Error("expected message in console output")
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf), WithLevel(LevelWarn), WithFormat(FormatJSON))

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("debug message should be filtered")
	}
	if strings.Contains(output, "info message") {
		t.Error("info message should be filtered")
	}
	if !strings.Contains(output, "warn message") {
		t.Error("warn message should be present")
	}
}

func TestLoggerSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf), WithLevel(LevelSilent))

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	if buf.Len() > 0 {
		t.Errorf("expected no output with silent level, got %q", buf.String())
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf), WithLevel(LevelDebug), WithFields(Fields{"base": "field"}))

	child := logger.With(Fields{"child": "field"})
	child.Info("test")

	entry := decodeEntry(t, buf.Bytes())
	if entry["base"] != "field" {
		t.Error("expected base field from parent logger")
	}
	if entry["child"] != "field" {
		t.Error("expected child field")
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf), WithLevel(LevelDebug), WithName("parent"))

	child := logger.Named("child")
	child.Info("test")

	entry := decodeEntry(t, buf.Bytes())
	if entry["logger"] != "parent.child" {
		t.Errorf("expected logger 'parent.child', got %v", entry["logger"])
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithOutput(&buf), WithLevel(LevelError))

	logger.Info("should not appear")
	if buf.Len() > 0 {
		t.Error("info should be filtered before SetLevel")
	}

	logger.SetLevel(LevelInfo)
	logger.Info("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Error("info should now be logged")
	}
}

func TestNullLogger(t *testing.T) {
	logger := NullLogger()

	// Should not panic, and should produce no output on a default stdout
	// target either — LevelSilent disables every leveled call.
	logger.Debug("test")
	logger.Info("test")
	logger.Warn("test")
	logger.Error("test")
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	custom := NewLogger(WithOutput(&buf), WithLevel(LevelDebug))

	SetLogger(custom)
	defer SetLogger(NewLogger())

	Info("global test")

	if !strings.Contains(buf.String(), "global test") {
		t.Error("expected message from global logger")
	}
}
