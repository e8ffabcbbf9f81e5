package poll_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"dubwatch/internal/job"
	"dubwatch/internal/logging"
	"dubwatch/internal/poll"
)

func snapshotSequence(statuses ...job.Status) poll.FetchFunc {
	var calls atomic.Int32
	return func(ctx context.Context, jobID string) (*job.Job, error) {
		n := int(calls.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		return &job.Job{ID: jobID, Status: statuses[n]}, nil
	}
}

func TestWatchRequiresJobID(t *testing.T) {
	sub := poll.Watch(context.Background(), "", snapshotSequence(job.StatusPending), poll.Options{}, logging.NewNop())
	if sub != nil {
		t.Fatal("empty job id must not start a subscription")
	}
	sub.Stop()
	<-sub.Done()
}

func TestImmediateFirstFetch(t *testing.T) {
	fetched := make(chan struct{}, 1)
	fetch := func(ctx context.Context, jobID string) (*job.Job, error) {
		select {
		case fetched <- struct{}{}:
		default:
		}
		return &job.Job{ID: jobID, Status: job.StatusDownloading}, nil
	}

	sub := poll.Watch(context.Background(), "job-1", fetch, poll.Options{Interval: time.Hour}, logging.NewNop())
	defer sub.Stop()

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("first fetch did not happen immediately")
	}
}

func TestTerminalCallbackFiresOnce(t *testing.T) {
	var completions atomic.Int32
	var failures atomic.Int32
	fetch := snapshotSequence(job.StatusDownloading, job.StatusCompleted, job.StatusCompleted)

	sub := poll.Watch(context.Background(), "job-1", fetch, poll.Options{
		Interval:   5 * time.Millisecond,
		OnComplete: func(*job.Job) { completions.Add(1) },
		OnFail:     func(*job.Job) { failures.Add(1) },
	}, logging.NewNop())

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop after terminal status")
	}

	if got := completions.Load(); got != 1 {
		t.Fatalf("OnComplete fired %d times, want 1", got)
	}
	if failures.Load() != 0 {
		t.Fatal("OnFail fired for a completed job")
	}
}

func TestFailedRoutesToOnFail(t *testing.T) {
	var completions atomic.Int32
	done := make(chan *job.Job, 1)
	fetch := snapshotSequence(job.StatusFailed)

	poll.Watch(context.Background(), "job-1", fetch, poll.Options{
		Interval:   5 * time.Millisecond,
		OnComplete: func(*job.Job) { completions.Add(1) },
		OnFail:     func(j *job.Job) { done <- j },
	}, logging.NewNop())

	select {
	case j := <-done:
		if j.Status != job.StatusFailed {
			t.Fatalf("status = %q", j.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnFail never fired")
	}
	if completions.Load() != 0 {
		t.Fatal("OnComplete fired for a failed job")
	}
}

func TestTransportErrorsKeepPolling(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	fetch := func(ctx context.Context, jobID string) (*job.Job, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return &job.Job{ID: jobID, Status: job.StatusCompleted}, nil
	}

	poll.Watch(context.Background(), "job-1", fetch, poll.Options{
		Interval:   5 * time.Millisecond,
		OnComplete: func(*job.Job) { close(done) },
	}, logging.NewNop())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not survive a transport error")
	}
	if calls.Load() < 2 {
		t.Fatalf("expected a retry after the failed fetch, got %d calls", calls.Load())
	}
}

func TestNoCallbackAfterStop(t *testing.T) {
	release := make(chan struct{})
	inFlight := make(chan struct{})
	fetch := func(ctx context.Context, jobID string) (*job.Job, error) {
		close(inFlight)
		<-release
		return &job.Job{ID: jobID, Status: job.StatusCompleted}, nil
	}

	var fired atomic.Int32
	sub := poll.Watch(context.Background(), "job-1", fetch, poll.Options{
		Interval:   time.Hour,
		OnComplete: func(*job.Job) { fired.Add(1) },
		OnSnapshot: func(*job.Job) { fired.Add(1) },
	}, logging.NewNop())

	<-inFlight
	sub.Stop()
	close(release) // terminal response lands after Stop

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not wind down")
	}
	if fired.Load() != 0 {
		t.Fatal("callback fired after Stop for an in-flight response")
	}
}

func TestStopDuringDeliverySuppressesTerminal(t *testing.T) {
	var sub *poll.Subscription
	var snapshots, completions atomic.Int32
	ready := make(chan struct{})
	fetch := snapshotSequence(job.StatusCompleted)

	sub = poll.Watch(context.Background(), "job-1", fetch, poll.Options{
		Interval: time.Hour,
		OnSnapshot: func(*job.Job) {
			<-ready
			snapshots.Add(1)
			sub.Stop() // cancel mid-delivery, before the terminal callback
		},
		OnComplete: func(*job.Job) { completions.Add(1) },
	}, logging.NewNop())
	close(ready)

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not wind down")
	}
	if snapshots.Load() != 1 {
		t.Fatalf("OnSnapshot fired %d times, want 1", snapshots.Load())
	}
	if completions.Load() != 0 {
		t.Fatal("OnComplete fired after Stop was requested during delivery")
	}
}

func TestSnapshotPrecedesTerminal(t *testing.T) {
	order := make(chan string, 2)
	fetch := snapshotSequence(job.StatusCompleted)

	sub := poll.Watch(context.Background(), "job-1", fetch, poll.Options{
		Interval:   5 * time.Millisecond,
		OnSnapshot: func(*job.Job) { order <- "snapshot" },
		OnComplete: func(*job.Job) { order <- "complete" },
	}, logging.NewNop())

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop")
	}
	if first := <-order; first != "snapshot" {
		t.Fatalf("first callback = %q, want snapshot", first)
	}
	if second := <-order; second != "complete" {
		t.Fatalf("second callback = %q, want complete", second)
	}
}
