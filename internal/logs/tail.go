package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// followPollDelay is how often From re-checks the file while waiting for
// new lines.
const followPollDelay = 250 * time.Millisecond

// Reader reads one log file incrementally. Each call opens the file
// fresh, so the daemon can rotate or recreate it between calls.
type Reader struct {
	path string
}

// NewReader binds a reader to a log file path. The file need not exist
// yet; a daemon that has not logged anything reads as empty.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Page is one batch of log lines plus the offset to resume from.
type Page struct {
	Lines      []string
	NextOffset int64
}

// Last returns the final n lines of the file and the end-of-file offset,
// so a follow-up From call picks up exactly where the listing stopped.
func (r *Reader) Last(n int) (Page, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, nil
		}
		return Page{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return Page{}, fmt.Errorf("seek log file: %w", err)
		}
		return Page{NextOffset: end}, nil
	}

	// Sliding window: memory stays bounded by 2n lines no matter how
	// large the file is.
	var window []string
	scanner := newLineScanner(file)
	for scanner.Scan() {
		window = append(window, scanner.Text())
		if len(window) > 2*n {
			window = append(window[:0], window[len(window)-n:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return Page{}, fmt.Errorf("read log file: %w", err)
	}
	if len(window) > n {
		window = window[len(window)-n:]
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return Page{}, fmt.Errorf("seek log file: %w", err)
	}
	return Page{Lines: window, NextOffset: end}, nil
}

// From reads every line at or after offset. When nothing new is available
// and wait is positive, it keeps checking until a line arrives, the wait
// elapses, or ctx is done.
func (r *Reader) From(ctx context.Context, offset int64, wait time.Duration) (Page, error) {
	deadline := time.Now().Add(wait)
	for {
		page, err := r.readFrom(offset)
		if err != nil || len(page.Lines) > 0 {
			return page, err
		}
		if wait <= 0 || !time.Now().Before(deadline) {
			return page, nil
		}
		offset = page.NextOffset

		select {
		case <-ctx.Done():
			return page, ctx.Err()
		case <-time.After(followPollDelay):
		}
	}
}

func (r *Reader) readFrom(offset int64) (Page, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Page{}, nil
		}
		return Page{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Page{}, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		// The file was truncated or rotated under us; resume at the end
		// rather than replaying from the start.
		offset = info.Size()
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Page{}, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	scanner := newLineScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Page{}, fmt.Errorf("read log file: %w", err)
	}

	next, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return Page{}, fmt.Errorf("seek log file: %w", err)
	}
	return Page{Lines: lines, NextOffset: next}, nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
