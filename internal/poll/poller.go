package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"dubwatch/internal/job"
	"dubwatch/internal/logging"
)

// FetchFunc fetches the current snapshot of one job. Implementations must
// be safe to call repeatedly.
type FetchFunc func(ctx context.Context, jobID string) (*job.Job, error)

// DefaultInterval is the refresh interval for a single job's detail view.
const DefaultInterval = 8 * time.Second

// Options configures a subscription.
type Options struct {
	// Interval between fetches. Defaults to DefaultInterval.
	Interval time.Duration

	// OnComplete fires exactly once when the job is first observed in the
	// completed state. OnFail fires exactly once on first observation of
	// failed. At most one of the two ever fires per subscription.
	OnComplete func(*job.Job)
	OnFail     func(*job.Job)

	// OnSnapshot fires on every successful fetch, terminal or not, before
	// any terminal callback. Used to feed aggregation and persistence.
	OnSnapshot func(*job.Job)
}

// Subscription is one live polling loop for one job. All methods are safe
// on a nil receiver so "no subscription" needs no special casing.
type Subscription struct {
	jobID  string
	fetch  FetchFunc
	opts   Options
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	stopped  bool
	reported bool
}

// Watch starts polling a job: one fetch immediately, then one per interval.
// The loop self-terminates after the first terminal observation. An empty
// job identifier means "no subscription" and returns nil without error;
// that is the §4.3 guard, not a failure.
//
// For a single subscription, fetch N+1 is only issued after fetch N's
// response (or failure) has been processed.
func Watch(ctx context.Context, jobID string, fetch FetchFunc, opts Options, logger *slog.Logger) *Subscription {
	if jobID == "" || fetch == nil {
		return nil
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		jobID:  jobID,
		fetch:  fetch,
		opts:   opts,
		cancel: cancel,
		done:   make(chan struct{}),
		logger: logging.NewComponentLogger(logger, "poller").With(
			logging.String(logging.FieldJobID, jobID),
			logging.String("subscription_id", uuid.NewString()),
		),
	}
	go sub.run(runCtx)
	return sub
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(0) // first fetch has no initial delay
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		snapshot, err := s.fetch(ctx, s.jobID)
		if ctx.Err() != nil {
			// Cancelled while the fetch was in flight: the response is
			// discarded, never acted upon.
			return
		}
		if err != nil {
			// Transport failures are not fatal to the subscription; the
			// next tick is still scheduled.
			s.logger.Warn("job fetch failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "poll_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check engine connectivity"),
			)
		} else if snapshot != nil && s.deliver(snapshot) {
			return
		}

		timer.Reset(s.opts.Interval)
	}
}

// deliver routes a snapshot to the callbacks and reports whether polling
// should stop. The stop flag is re-read under the mutex immediately before
// every callback, so a Stop issued from inside OnSnapshot (or racing it)
// suppresses the terminal callback that would otherwise follow.
func (s *Subscription) deliver(snapshot *job.Job) bool {
	if !s.invoke(s.opts.OnSnapshot, snapshot) {
		return true
	}
	if !snapshot.Status.IsTerminal() {
		return false
	}

	s.mu.Lock()
	var terminal func(*job.Job)
	if !s.stopped && !s.reported {
		s.reported = true
		if snapshot.Status == job.StatusFailed {
			terminal = s.opts.OnFail
		} else {
			terminal = s.opts.OnComplete
		}
	}
	s.mu.Unlock()

	if terminal != nil {
		s.invoke(terminal, snapshot)
	}
	s.logger.Debug("terminal status observed; polling stops",
		logging.String("status", string(snapshot.Status)),
	)
	return true
}

// invoke runs one callback unless the subscription has been stopped,
// reporting whether delivery may continue.
func (s *Subscription) invoke(fn func(*job.Job), snapshot *job.Job) bool {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return false
	}
	if fn != nil {
		fn(snapshot)
	}
	return true
}

// Stop cancels the subscription. After Stop returns, no callback from this
// subscription fires, even for a fetch already in flight.
func (s *Subscription) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
}

// Done is closed once the polling loop has fully exited.
func (s *Subscription) Done() <-chan struct{} {
	if s == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.done
}

// JobID returns the identifier this subscription watches.
func (s *Subscription) JobID() string {
	if s == nil {
		return ""
	}
	return s.jobID
}
