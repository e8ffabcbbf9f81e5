package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dubwatch/internal/approval"
	"dubwatch/internal/config"
	"dubwatch/internal/engine"
	"dubwatch/internal/job"
	"dubwatch/internal/logging"
	"dubwatch/internal/notifications"
	"dubwatch/internal/poll"
	"dubwatch/internal/store"
)

// Engine is the slice of the engine client the manager needs. Satisfied
// by *engine.Client; tests substitute fakes.
type Engine interface {
	CreateJob(ctx context.Context, req engine.CreateJobRequest) (*job.Job, error)
	Job(ctx context.Context, jobID string) (*job.Job, error)
	WorkflowState(ctx context.Context, jobID string) (job.WorkflowState, error)
	ListActiveJobs(ctx context.Context, scope string) ([]*job.Job, error)
	PreviewArtifacts(ctx context.Context, jobID string) ([]engine.LocalizationPreview, error)
	Approve(ctx context.Context, jobID string) error
}

// Manager keeps the local view of one scope live. It owns the active-set
// refresh loop, one poll subscription per active job, snapshot
// persistence, and lifecycle notifications.
type Manager struct {
	cfg      *config.Config
	engine   Engine
	store    *store.Store
	notifier notifications.Service
	logger   *slog.Logger

	scope         string
	jobInterval   time.Duration
	refreshEvery  time.Duration
	retryInterval time.Duration

	activeSet *poll.ActiveSet

	mu         sync.RWMutex
	running    bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	subs       map[string]*poll.Subscription
	gates      map[string]*approval.Gate
	prevStatus map[string]job.Status
	lastErr    error
}

// NewManager constructs a watch manager. The notifier may be nil, in
// which case one is built from config.
func NewManager(cfg *config.Config, eng Engine, st *store.Store, notifier notifications.Service, logger *slog.Logger) *Manager {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	scope := cfg.Engine.Scope
	m := &Manager{
		cfg:           cfg,
		engine:        eng,
		store:         st,
		notifier:      notifier,
		logger:        logging.NewComponentLogger(logger, "watch"),
		scope:         scope,
		jobInterval:   time.Duration(cfg.Watch.JobPollInterval) * time.Second,
		refreshEvery:  time.Duration(cfg.Watch.ActivePollInterval) * time.Second,
		retryInterval: time.Duration(cfg.Watch.ErrorRetryInterval) * time.Second,
		subs:          make(map[string]*poll.Subscription),
		gates:         make(map[string]*approval.Gate),
		prevStatus:    make(map[string]job.Status),
	}
	if m.refreshEvery <= 0 {
		m.refreshEvery = poll.DefaultActiveInterval
	}
	if m.retryInterval <= 0 {
		m.retryInterval = m.refreshEvery
	}
	m.activeSet = poll.NewActiveSet(scope, eng.ListActiveJobs, m.refreshEvery, m.retryInterval, logger)
	return m
}

// Start begins background refreshing. The first refresh runs immediately
// so a restarted daemon converges without waiting a full interval.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("watch manager already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates the refresh loop and every job subscription.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	subs := make([]*poll.Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.subs = make(map[string]*poll.Subscription)
	m.mu.Unlock()

	cancel()
	for _, sub := range subs {
		sub.Stop()
	}
	for _, sub := range subs {
		<-sub.Done()
	}
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		wait := m.refreshEvery
		if err := m.refresh(ctx); err != nil && ctx.Err() == nil {
			wait = m.retryInterval
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// refresh performs one active-set fetch and reconciles subscriptions and
// persistence against it.
func (m *Manager) refresh(ctx context.Context) error {
	if err := m.activeSet.Refresh(ctx); err != nil {
		m.setLastError(err)
		return err
	}
	m.setLastError(nil)

	active := m.activeSet.ActiveJobs()
	if err := m.store.ReplaceScope(ctx, m.scope, active); err != nil {
		m.logger.Warn("snapshot persistence failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "snapshot_persist_failed"),
		)
	}
	m.reconcile(ctx, active)
	return nil
}

// reconcile ensures exactly one subscription per active job and stops
// subscriptions for jobs that left the active set.
func (m *Manager) reconcile(ctx context.Context, active []*job.Job) {
	current := make(map[string]struct{}, len(active))
	var started []*job.Job

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	for _, j := range active {
		current[j.ID] = struct{}{}
		if _, ok := m.subs[j.ID]; !ok {
			started = append(started, j)
		}
		m.noteStatus(ctx, j)
	}
	var stopped []*poll.Subscription
	for id, sub := range m.subs {
		if _, ok := current[id]; !ok {
			stopped = append(stopped, sub)
			delete(m.subs, id)
			delete(m.prevStatus, id)
		}
	}
	for _, j := range started {
		m.subs[j.ID] = m.subscribeLocked(ctx, j.ID)
	}
	m.mu.Unlock()

	for _, sub := range stopped {
		sub.Stop()
	}
}

func (m *Manager) subscribeLocked(ctx context.Context, jobID string) *poll.Subscription {
	return poll.Watch(ctx, jobID, m.engine.Job, poll.Options{
		Interval:   m.jobInterval,
		OnSnapshot: func(j *job.Job) { m.handleSnapshot(ctx, j) },
		OnComplete: func(j *job.Job) { m.handleComplete(ctx, j) },
		OnFail:     func(j *job.Job) { m.handleFail(ctx, j) },
	}, m.logger)
}

func (m *Manager) handleSnapshot(ctx context.Context, j *job.Job) {
	if err := m.store.UpsertSnapshot(ctx, m.scope, j); err != nil {
		m.logger.Warn("snapshot persistence failed",
			logging.Error(err),
			logging.String(logging.FieldJobID, j.ID),
			logging.String(logging.FieldEventType, "snapshot_persist_failed"),
		)
	}
	m.mu.Lock()
	m.noteStatus(ctx, j)
	m.mu.Unlock()
}

// noteStatus tracks status transitions to fire edge-triggered events.
// Callers hold m.mu.
func (m *Manager) noteStatus(ctx context.Context, j *job.Job) {
	prev, seen := m.prevStatus[j.ID]
	m.prevStatus[j.ID] = j.Status
	if j.Status != job.StatusWaitingApproval || (seen && prev == job.StatusWaitingApproval) {
		return
	}

	// First observation of waiting_approval: capture the stage breakdown
	// and alert the operator.
	snapshot := j.Clone()
	go func() {
		if state, err := m.engine.WorkflowState(ctx, snapshot.ID); err == nil {
			if err := m.store.SaveWorkflowState(ctx, snapshot.ID, state); err != nil {
				m.logger.Warn("workflow persistence failed",
					logging.Error(err),
					logging.String(logging.FieldJobID, snapshot.ID),
				)
			}
		}
		if err := m.notifier.NotifyAwaitingApproval(ctx, snapshot.ID, snapshot.TargetLanguages); err != nil {
			m.logger.Warn("approval notification failed",
				logging.Error(err),
				logging.String(logging.FieldJobID, snapshot.ID),
			)
		}
	}()
}

func (m *Manager) handleComplete(ctx context.Context, j *job.Job) {
	if err := m.store.UpsertSnapshot(ctx, m.scope, j); err != nil {
		m.logger.Warn("snapshot persistence failed",
			logging.Error(err),
			logging.String(logging.FieldJobID, j.ID),
			logging.String(logging.FieldEventType, "snapshot_persist_failed"),
		)
	}
	m.forget(j.ID)
	m.logger.Info("job completed",
		logging.String(logging.FieldJobID, j.ID),
		logging.String(logging.FieldEventType, "job_completed"),
	)
	if err := m.notifier.NotifyJobCompleted(ctx, j.ID, j.SourceVideoID, j.TargetLanguages); err != nil {
		m.logger.Warn("completion notification failed",
			logging.Error(err),
			logging.String(logging.FieldJobID, j.ID),
		)
	}
}

func (m *Manager) handleFail(ctx context.Context, j *job.Job) {
	if err := m.store.UpsertSnapshot(ctx, m.scope, j); err != nil {
		m.logger.Warn("snapshot persistence failed",
			logging.Error(err),
			logging.String(logging.FieldJobID, j.ID),
			logging.String(logging.FieldEventType, "snapshot_persist_failed"),
		)
	}
	m.forget(j.ID)
	m.logger.Warn("job failed",
		logging.String(logging.FieldJobID, j.ID),
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String("error_message", j.ErrorMessage),
	)
	if err := m.notifier.NotifyJobFailed(ctx, j.ID, j.ErrorMessage); err != nil {
		m.logger.Warn("failure notification failed",
			logging.Error(err),
			logging.String(logging.FieldJobID, j.ID),
		)
	}
}

// forget drops the bookkeeping for a terminal job. The subscription loop
// self-terminates; it only needs removing from the map.
func (m *Manager) forget(jobID string) {
	m.mu.Lock()
	delete(m.subs, jobID)
	delete(m.gates, jobID)
	delete(m.prevStatus, jobID)
	m.mu.Unlock()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
