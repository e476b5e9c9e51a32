package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	WithComponent(logger, "syncer").Info("task delivered", String(FieldTaskID, "t-1"), Int(FieldAttempts, 2))

	line := buf.String()
	if !strings.Contains(line, "[syncer]") {
		t.Fatalf("missing component prefix: %q", line)
	}
	if !strings.Contains(line, "task delivered") {
		t.Fatalf("missing message: %q", line)
	}
	if !strings.Contains(line, "task_id=t-1") || !strings.Contains(line, "attempts=2") {
		t.Fatalf("missing attrs: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Warn("store write failed", String("reason", "quota exceeded"))

	if !strings.Contains(buf.String(), `reason="quota exceeded"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
