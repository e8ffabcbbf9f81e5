package poll

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dubwatch/internal/job"
	"dubwatch/internal/logging"
)

// ListFunc fetches the full set of non-completed jobs for a scope.
type ListFunc func(ctx context.Context, scope string) ([]*job.Job, error)

// DefaultActiveInterval is the refresh interval for the aggregate
// active-list view, deliberately shorter than the single-job interval.
const DefaultActiveInterval = 5 * time.Second

// ActiveSet maintains the bounded set of jobs that are still live for one
// scope. Membership is re-derived from scratch on every refresh: the
// previous set is replaced wholesale, never patched, so jobs that
// disappear server-side cannot linger as stale merges.
type ActiveSet struct {
	scope         string
	list          ListFunc
	interval      time.Duration
	retryInterval time.Duration
	logger        *slog.Logger

	mu          sync.RWMutex
	active      []*job.Job
	lastRefresh time.Time
	lastErr     error

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewActiveSet builds an active set for a scope. Zero intervals fall back
// to defaults.
func NewActiveSet(scope string, list ListFunc, interval, retryInterval time.Duration, logger *slog.Logger) *ActiveSet {
	if interval <= 0 {
		interval = DefaultActiveInterval
	}
	if retryInterval <= 0 {
		retryInterval = interval
	}
	return &ActiveSet{
		scope:         scope,
		list:          list,
		interval:      interval,
		retryInterval: retryInterval,
		logger: logging.NewComponentLogger(logger, "activeset").With(
			logging.String(logging.FieldScope, scope),
		),
	}
}

// Start launches the refresh loop. The first refresh runs immediately.
func (s *ActiveSet) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("active set already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			wait := s.interval
			if err := s.Refresh(runCtx); err != nil {
				wait = s.retryInterval
			}
			select {
			case <-runCtx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
	return nil
}

// Stop terminates the refresh loop and waits for it to exit.
func (s *ActiveSet) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

// Refresh performs one synchronous refresh. A failed fetch leaves the
// previous set in place (stale but available) rather than clearing it, so
// a transient engine error never flickers the view to empty.
func (s *ActiveSet) Refresh(ctx context.Context) error {
	jobs, err := s.list(ctx, s.scope)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("active job refresh failed; keeping previous set",
				logging.Error(err),
				logging.String(logging.FieldEventType, "active_refresh_failed"),
				logging.String(logging.FieldErrorHint, "check engine connectivity"),
			)
		}
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	active := make([]*job.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.IsActive() {
			active = append(active, j.Clone())
		}
	}

	s.mu.Lock()
	s.active = active
	s.lastRefresh = time.Now().UTC()
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// ActiveJobs returns a copy of the current active set.
func (s *ActiveSet) ActiveJobs() []*job.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*job.Job, len(s.active))
	for i, j := range s.active {
		out[i] = j.Clone()
	}
	return out
}

// HasActiveJobs reports whether anything in the scope is still working.
func (s *ActiveSet) HasActiveJobs() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active) > 0
}

// LastRefresh returns when the set was last successfully replaced, zero if
// never.
func (s *ActiveSet) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// LastError returns the most recent refresh error, nil after a successful
// refresh.
func (s *ActiveSet) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
