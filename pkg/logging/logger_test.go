package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestNew_Formats(t *testing.T) {
	if New("info", "json") == nil {
		t.Fatal("New(json) returned nil")
	}
	if New("info", "text") == nil {
		t.Fatal("New(text) returned nil")
	}
}

func TestLogger_With(t *testing.T) {
	logger := New("info", "text")
	child := logger.With("component", "engine")

	if child == nil {
		t.Fatal("With() returned nil")
	}
	if child == logger {
		t.Error("With() should return a new logger instance")
	}
}

func TestNop(t *testing.T) {
	logger := Nop()

	// Should not panic when logging
	logger.Info("message", "key", "value")
	logger.Warn("warning")
	logger.Error("error")
	logger.Debug("debug")
}

func TestLogger_Output(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := &Logger{Logger: slog.New(handler)}

	logger.Info("route added", "route", "scheduler-1")

	output := buf.String()
	if !strings.Contains(output, "route added") {
		t.Errorf("output missing message: %s", output)
	}
	if !strings.Contains(output, "route=scheduler-1") {
		t.Errorf("output missing attribute: %s", output)
	}
}
