package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_DefaultsToInfoLevel(t *testing.T) {
	log := New()

	if log == nil {
		t.Fatal("expected logger to be created")
	}
	if log.GetLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", log.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSlogLogger_ImplementsInterface(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelWarn)

	log.Info("hidden")
	log.Warn("court write failed", "court_id", "003")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "court write failed") || !strings.Contains(out, "court_id=003") {
		t.Errorf("expected warn record with attributes, got %s", out)
	}
}

func TestSetLevel_ChangesFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelError)

	log.Debug("first")
	log.SetLevel(slog.LevelDebug)
	log.Debug("second")

	out := buf.String()
	if strings.Contains(out, "first") {
		t.Error("debug record logged before level change")
	}
	if !strings.Contains(out, "second") {
		t.Error("debug record missing after level change")
	}
	if log.GetLevel() != slog.LevelDebug {
		t.Errorf("GetLevel() = %v, want debug", log.GetLevel())
	}
}

func TestWith_SharesLevelAndHTTPToggle(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, slog.LevelInfo)
	child := parent.With("court_id", "001")

	parent.SetLevel(slog.LevelDebug)
	child.Debug("from child")
	if !strings.Contains(buf.String(), "court_id=001") {
		t.Errorf("child attributes missing: %s", buf.String())
	}

	parent.EnableHTTPLogging()
	if !child.IsHTTPLoggingEnabled() {
		t.Error("child should observe parent's HTTP logging toggle")
	}
	child.DisableHTTPLogging()
	if parent.IsHTTPLoggingEnabled() {
		t.Error("parent should observe child's HTTP logging toggle")
	}
}

func TestHTTPLogging_DefaultsOff(t *testing.T) {
	log := New()
	if log.IsHTTPLoggingEnabled() {
		t.Error("HTTP logging should default to disabled")
	}
	log.EnableHTTPLogging()
	if !log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging enabled")
	}
}

func TestNop_DiscardsEverything(t *testing.T) {
	log := Nop()
	log.Error("nothing to see")
	if log.GetLevel() <= slog.LevelError {
		t.Errorf("Nop level should sit above error, got %v", log.GetLevel())
	}
}
