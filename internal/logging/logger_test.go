package logging

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type captureWriter struct {
	lines []string
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.lines = append(w.lines, string(p))
	return len(p), nil
}

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	writer := &captureWriter{}
	handler := &consoleHandler{writer: writer, level: slog.LevelInfo}
	logger := slog.New(handler).With(String(FieldComponent, "poller"))

	logger.Info("tick scheduled", String(FieldJobID, "job-1"), Duration("interval", 8*time.Second))

	if len(writer.lines) != 1 {
		t.Fatalf("expected one line, got %d", len(writer.lines))
	}
	line := writer.lines[0]
	if !strings.Contains(line, "INFO poller: tick scheduled") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "job_id=job-1") || !strings.Contains(line, "interval=8s") {
		t.Fatalf("missing attrs: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	writer := &captureWriter{}
	handler := &consoleHandler{writer: writer, level: slog.LevelWarn}
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error should be enabled at warn level")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
