// Package approval implements the review gate a job passes through before
// its dubs go live. The gate is a small state machine; the transitions it
// refuses (approving twice, approving before previews load) are the ones
// that would double-submit or act on stale data.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"dubwatch/internal/engine"
	"dubwatch/internal/logging"
)

// State names the gate's position in its lifecycle.
type State string

const (
	StateClosed    State = "closed"
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateApproving State = "approving"
	StateApproved  State = "approved"
)

// ErrSubmissionInFlight is returned when Approve is called while an
// earlier submission has not resolved.
var ErrSubmissionInFlight = errors.New("approval already in flight")

// ErrNotReady is returned when Approve is called before previews loaded.
var ErrNotReady = errors.New("approval gate not ready")

// PreviewFunc fetches the per-language preview artifacts for a job.
type PreviewFunc func(ctx context.Context, jobID string) ([]engine.LocalizationPreview, error)

// ApproveFunc submits the sign-off for a job.
type ApproveFunc func(ctx context.Context, jobID string) error

// Gate guards the approval of one job. Opening loads previews; Approve
// submits exactly once. A failed submission returns the gate to ready
// with the already-loaded previews intact, so the operator retries
// without a refetch.
type Gate struct {
	jobID    string
	previews PreviewFunc
	approve  ApproveFunc
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	loaded   []engine.LocalizationPreview
	lastErr  error
	onResult []func(jobID string, err error)
}

// NewGate builds a closed gate for one job.
func NewGate(jobID string, previews PreviewFunc, approve ApproveFunc, logger *slog.Logger) *Gate {
	return &Gate{
		jobID:    jobID,
		previews: previews,
		approve:  approve,
		state:    StateClosed,
		logger: logging.NewComponentLogger(logger, "approval").With(
			logging.String(logging.FieldJobID, jobID),
		),
	}
}

// OnResult registers a callback fired after every Approve attempt, with a
// nil error on success. Callbacks run outside the gate's lock.
func (g *Gate) OnResult(fn func(jobID string, err error)) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	g.onResult = append(g.onResult, fn)
	g.mu.Unlock()
}

// Open loads the preview artifacts and moves the gate to ready. Opening
// an already-open gate refetches; opening an approved gate is an error.
func (g *Gate) Open(ctx context.Context) ([]engine.LocalizationPreview, error) {
	g.mu.Lock()
	switch g.state {
	case StateApproving:
		g.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case StateApproved:
		g.mu.Unlock()
		return nil, fmt.Errorf("job %s already approved", g.jobID)
	}
	g.state = StateLoading
	g.mu.Unlock()

	previews, err := g.previews(ctx, g.jobID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state = StateClosed
		g.lastErr = err
		return nil, fmt.Errorf("load previews for job %s: %w", g.jobID, err)
	}
	g.loaded = previews
	g.state = StateReady
	g.lastErr = nil

	out := make([]engine.LocalizationPreview, len(previews))
	copy(out, previews)
	return out, nil
}

// Approve submits the sign-off. Only one submission can be in flight; a
// second call while the first is pending gets ErrSubmissionInFlight
// instead of a second network request. On failure the gate returns to
// ready and the error is surfaced to the caller and any OnResult hooks.
func (g *Gate) Approve(ctx context.Context) error {
	g.mu.Lock()
	switch g.state {
	case StateApproving:
		g.mu.Unlock()
		return ErrSubmissionInFlight
	case StateApproved:
		g.mu.Unlock()
		return fmt.Errorf("job %s already approved", g.jobID)
	case StateReady:
	default:
		g.mu.Unlock()
		return ErrNotReady
	}
	g.state = StateApproving
	g.mu.Unlock()

	err := g.approve(ctx, g.jobID)

	g.mu.Lock()
	if err != nil {
		// Previews stay loaded; the operator can retry immediately.
		g.state = StateReady
		g.lastErr = err
	} else {
		g.state = StateApproved
		g.loaded = nil
		g.lastErr = nil
	}
	hooks := make([]func(string, error), len(g.onResult))
	copy(hooks, g.onResult)
	g.mu.Unlock()

	if err != nil {
		g.logger.Warn("approval submission failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "approval_failed"),
		)
	} else {
		g.logger.Info("job approved",
			logging.String(logging.FieldEventType, "approval_submitted"),
		)
	}
	for _, hook := range hooks {
		hook(g.jobID, err)
	}
	if err != nil {
		return fmt.Errorf("approve job %s: %w", g.jobID, err)
	}
	return nil
}

// Close returns the gate to closed: abandoning an unapproved session
// drops its previews, and closing after a successful submission completes
// the approved session. A submission still in flight is not interrupted.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateApproving {
		return
	}
	g.state = StateClosed
	g.loaded = nil
}

// State returns the gate's current position.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Previews returns a copy of the loaded previews, nil unless ready.
func (g *Gate) Previews() []engine.LocalizationPreview {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateReady || len(g.loaded) == 0 {
		return nil
	}
	out := make([]engine.LocalizationPreview, len(g.loaded))
	copy(out, g.loaded)
	return out
}

// LastError returns the most recent load or submission failure.
func (g *Gate) LastError() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// JobID returns the job this gate guards.
func (g *Gate) JobID() string {
	return g.jobID
}
