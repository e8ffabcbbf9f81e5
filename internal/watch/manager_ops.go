package watch

import (
	"context"
	"fmt"
	"time"

	"dubwatch/internal/approval"
	"dubwatch/internal/engine"
	"dubwatch/internal/job"
	"dubwatch/internal/logging"
	"dubwatch/internal/selection"
)

// Description is the full per-job view served to the CLI: the snapshot,
// the stage breakdown, and the derived localization rows.
type Description struct {
	Job           *job.Job
	Workflow      job.WorkflowState
	HasWorkflow   bool
	Localizations []job.LocalizationInfo
	Matrix        job.MatrixSummary
	Stale         bool
}

// Describe assembles the detail view for one job. When the engine is
// unreachable it falls back to the stored snapshot and marks the result
// stale instead of failing the command.
func (m *Manager) Describe(ctx context.Context, jobID string) (*Description, error) {
	desc := &Description{}

	snapshot, err := m.engine.Job(ctx, jobID)
	if err != nil {
		stored, storeErr := m.store.GetByJobID(ctx, jobID)
		if storeErr != nil || stored == nil {
			return nil, fmt.Errorf("describe job %s: %w", jobID, err)
		}
		desc.Job = stored
		desc.Stale = true
	} else {
		desc.Job = snapshot
	}

	if desc.Stale {
		state, ok, err := m.store.WorkflowState(ctx, jobID)
		if err == nil && ok {
			desc.Workflow = state
			desc.HasWorkflow = true
		}
	} else {
		state, err := m.engine.WorkflowState(ctx, jobID)
		if err == nil {
			desc.Workflow = state
			desc.HasWorkflow = true
			if saveErr := m.store.SaveWorkflowState(ctx, jobID, state); saveErr != nil {
				m.logger.Warn("workflow persistence failed",
					logging.Error(saveErr),
					logging.String(logging.FieldJobID, jobID),
				)
			}
		}
	}

	desc.Localizations = job.ProjectLocalizations(desc.Job, desc.Workflow)
	desc.Matrix = job.SummarizeMatrix(desc.Localizations)
	return desc, nil
}

// CreateJob submits a new job and immediately starts watching it rather
// than waiting for the next active-set refresh.
func (m *Manager) CreateJob(ctx context.Context, req engine.CreateJobRequest) (*job.Job, error) {
	created, err := m.engine.CreateJob(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := m.store.UpsertSnapshot(ctx, m.scope, created); err != nil {
		m.logger.Warn("snapshot persistence failed",
			logging.Error(err),
			logging.String(logging.FieldJobID, created.ID),
		)
	}

	m.mu.Lock()
	if m.running {
		if _, ok := m.subs[created.ID]; !ok {
			m.subs[created.ID] = m.subscribeLocked(ctx, created.ID)
		}
	}
	m.mu.Unlock()

	m.logger.Info("job created",
		logging.String(logging.FieldJobID, created.ID),
		logging.String(logging.FieldEventType, "job_created"),
	)
	return created, nil
}

// Approve runs one job through its approval gate and records the attempt
// in the audit trail.
func (m *Manager) Approve(ctx context.Context, jobID string) error {
	if jobID == "" {
		return fmt.Errorf("approve: job id required")
	}

	m.mu.Lock()
	gate, ok := m.gates[jobID]
	if !ok {
		gate = approval.NewGate(jobID, m.engine.PreviewArtifacts, m.engine.Approve, m.logger)
		m.gates[jobID] = gate
	}
	m.mu.Unlock()

	if gate.State() != approval.StateReady {
		if _, err := gate.Open(ctx); err != nil {
			return err
		}
	}
	err := gate.Approve(ctx)
	if recordErr := m.store.RecordApproval(ctx, jobID, err); recordErr != nil {
		m.logger.Warn("approval audit write failed",
			logging.Error(recordErr),
			logging.String(logging.FieldJobID, jobID),
		)
	}
	return err
}

// Previews loads the approval previews for a job without submitting.
func (m *Manager) Previews(ctx context.Context, jobID string) ([]engine.LocalizationPreview, error) {
	return m.engine.PreviewArtifacts(ctx, jobID)
}

// PublishResult reports the outcome of a bulk publish.
type PublishResult struct {
	Published int
	Failed    int
	Errors    []string
}

// PublishSelection bulk-approves the jobs behind a batch of staged
// localizations. Keys sharing a video resolve to the same job and are
// approved once. Jobs not awaiting approval are skipped with an error
// entry rather than aborting the batch.
func (m *Manager) PublishSelection(ctx context.Context, keys []selection.Key) (PublishResult, error) {
	var result PublishResult
	if len(keys) == 0 {
		return result, nil
	}
	started := time.Now()

	jobs, err := m.store.ListScope(ctx, m.scope)
	if err != nil {
		return result, fmt.Errorf("publish: load snapshots: %w", err)
	}
	byVideo := make(map[string]*job.Job, len(jobs))
	for _, j := range jobs {
		if j.SourceVideoID != "" {
			byVideo[j.SourceVideoID] = j
		}
	}

	seen := make(map[string]struct{})
	for _, key := range keys {
		target, ok := byVideo[key.VideoID]
		if !ok {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: no job for video", key.VideoID, key.Language))
			continue
		}
		if _, done := seen[target.ID]; done {
			continue
		}
		seen[target.ID] = struct{}{}

		if target.Status != job.StatusWaitingApproval {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: job %s is %s, not awaiting approval", key.VideoID, target.ID, target.Status))
			continue
		}
		if err := m.Approve(ctx, target.ID); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", target.ID, err))
			continue
		}
		result.Published++
	}

	if err := m.notifier.NotifyBatchPublished(ctx, result.Published, result.Failed, time.Since(started)); err != nil {
		m.logger.Warn("publish notification failed", logging.Error(err))
	}
	return result, nil
}

// TestNotification pushes a test message through the configured notifier.
func (m *Manager) TestNotification(ctx context.Context) error {
	return m.notifier.TestNotification(ctx)
}

// StatusSummary is the daemon health view served over IPC.
type StatusSummary struct {
	Running      bool
	Scope        string
	ActiveCount  int
	Subscribed   int
	LastRefresh  time.Time
	LastError    string
	StatusCounts map[job.Status]int
}

// Status reports the manager's current shape.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	subscribed := len(m.subs)
	lastErr := m.lastErr
	m.mu.RUnlock()

	active := m.activeSet.ActiveJobs()
	counts := make(map[job.Status]int, len(active))
	for _, j := range active {
		counts[j.Status]++
	}

	summary := StatusSummary{
		Running:      running,
		Scope:        m.scope,
		ActiveCount:  len(active),
		Subscribed:   subscribed,
		LastRefresh:  m.activeSet.LastRefresh(),
		StatusCounts: counts,
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary
}

// ActiveJobs exposes the current active set for the jobs listing.
func (m *Manager) ActiveJobs() []*job.Job {
	return m.activeSet.ActiveJobs()
}

// StoredJobs returns every persisted snapshot for the scope, including
// terminal history.
func (m *Manager) StoredJobs(ctx context.Context) ([]*job.Job, error) {
	return m.store.ListScope(ctx, m.scope)
}

// RefreshNow forces one synchronous active-set refresh, used by the jobs
// command for fresh output.
func (m *Manager) RefreshNow(ctx context.Context) error {
	return m.refresh(ctx)
}
