package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dubwatch/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dubwatch.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLastReturnsTailLines(t *testing.T) {
	reader := logs.NewReader(writeLog(t, "a\nb\nc\n"))

	page, err := reader.Last(2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(page.Lines) != 2 || page.Lines[0] != "b" || page.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", page.Lines)
	}
	if page.NextOffset != int64(len("a\nb\nc\n")) {
		t.Fatalf("offset = %d", page.NextOffset)
	}
}

func TestLastMissingFile(t *testing.T) {
	reader := logs.NewReader(filepath.Join(t.TempDir(), "absent.log"))

	page, err := reader.Last(10)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(page.Lines) != 0 || page.NextOffset != 0 {
		t.Fatalf("expected empty page, got %#v", page)
	}
}

func TestFromResumesAtOffset(t *testing.T) {
	path := writeLog(t, "first\n")
	reader := logs.NewReader(path)

	page, err := reader.Last(1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	next, err := reader.From(context.Background(), page.NextOffset, 0)
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "second" {
		t.Fatalf("unexpected lines: %#v", next.Lines)
	}
}

func TestFromClampsStaleOffset(t *testing.T) {
	reader := logs.NewReader(writeLog(t, "a\n"))

	page, err := reader.From(context.Background(), 9999, 0)
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	if len(page.Lines) != 0 {
		t.Fatalf("stale offset replayed lines: %#v", page.Lines)
	}
	if page.NextOffset != 2 {
		t.Fatalf("offset = %d, want end of file", page.NextOffset)
	}
}

func TestFromWaitsForNewLines(t *testing.T) {
	path := writeLog(t, "start\n")
	reader := logs.NewReader(path)

	page, err := reader.Last(1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan struct{})
	go func(offset int64) {
		res, err := reader.From(ctx, offset, 5*time.Second)
		if err != nil {
			t.Errorf("follow read: %v", err)
		}
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", res.Lines)
		}
		close(done)
	}(page.NextOffset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("follow read did not return")
	}
}
