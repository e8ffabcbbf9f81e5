package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"dubwatch/internal/config"
	"dubwatch/internal/engine"
	"dubwatch/internal/job"
	"dubwatch/internal/logging"
	"dubwatch/internal/logs"
	"dubwatch/internal/selection"
	"dubwatch/internal/store"
	"dubwatch/internal/watch"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	watcher   *watch.Manager
	selection *selection.Coordinator

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running  bool
	PID      int
	Scope    string
	DBPath   string
	LockPath string
	Watch    watch.StatusSummary
	StoreOK  bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, watcher *watch.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || watcher == nil {
		return nil, errors.New("daemon requires config, store, and watch manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     st,
		watcher:   watcher,
		selection: selection.NewCoordinator(logger),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the watch manager.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another dubwatch daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.watcher.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start watch manager: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldScope, d.cfg.Engine.Scope),
		logging.String(logging.FieldEventType, "daemon_start"),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watcher.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"),
	)
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns daemon runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:  d.running.Load(),
		PID:      os.Getpid(),
		Scope:    d.cfg.Engine.Scope,
		DBPath:   d.cfg.DatabasePath(),
		LockPath: d.lockPath,
		Watch:    d.watcher.Status(ctx),
	}
	status.StoreOK = d.store.Health(ctx) == nil
	return status
}

// ListJobs returns jobs for the scope, optionally filtered by status.
// Active-only listings come from the live set; otherwise the persisted
// snapshots (including terminal history) answer.
func (d *Daemon) ListJobs(ctx context.Context, statuses []job.Status, activeOnly bool) ([]*job.Job, error) {
	var jobs []*job.Job
	if activeOnly {
		jobs = d.watcher.ActiveJobs()
	} else {
		stored, err := d.watcher.StoredJobs(ctx)
		if err != nil {
			return nil, err
		}
		jobs = stored
	}
	if len(statuses) == 0 {
		return jobs, nil
	}
	wanted := make(map[job.Status]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}
	filtered := jobs[:0]
	for _, j := range jobs {
		if _, ok := wanted[j.Status]; ok {
			filtered = append(filtered, j)
		}
	}
	return filtered, nil
}

// DescribeJob assembles the detail view for one job.
func (d *Daemon) DescribeJob(ctx context.Context, jobID string) (*watch.Description, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.New("job id required")
	}
	return d.watcher.Describe(ctx, jobID)
}

// CreateJob submits a new localization job.
func (d *Daemon) CreateJob(ctx context.Context, req engine.CreateJobRequest) (*job.Job, error) {
	if strings.TrimSpace(req.SourceVideoID) == "" {
		return nil, errors.New("source video id required")
	}
	if len(req.TargetLanguages) == 0 {
		return nil, errors.New("at least one target language required")
	}
	return d.watcher.CreateJob(ctx, req)
}

// Approve runs a job through its approval gate.
func (d *Daemon) Approve(ctx context.Context, jobID string) error {
	return d.watcher.Approve(ctx, jobID)
}

// Previews loads the approval previews for a job.
func (d *Daemon) Previews(ctx context.Context, jobID string) ([]engine.LocalizationPreview, error) {
	return d.watcher.Previews(ctx, jobID)
}

// SelectionToggle flips one localization in the staging area.
func (d *Daemon) SelectionToggle(key selection.Key) bool {
	return d.selection.Toggle(key)
}

// SelectionList returns the staged localizations.
func (d *Daemon) SelectionList() []selection.Key {
	return d.selection.Snapshot()
}

// SelectionClear drops everything staged.
func (d *Daemon) SelectionClear() {
	d.selection.Clear()
}

// PublishSelection bulk-approves the staged localizations. The batch is
// taken atomically, so toggles racing the publish land in the next batch.
func (d *Daemon) PublishSelection(ctx context.Context) (watch.PublishResult, []selection.Key, error) {
	batch := d.selection.Take()
	result, err := d.watcher.PublishSelection(ctx, batch)
	return result, batch, err
}

// TestNotification pushes a test message through the notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.watcher.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "test notification sent", nil
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return d.cfg.LogFilePath()
}

// TailLog reads from the daemon log file. A negative offset requests the
// last limit lines; otherwise lines at or after offset are returned,
// waiting up to wait for new ones.
func (d *Daemon) TailLog(ctx context.Context, offset int64, limit int, wait time.Duration) (logs.Page, error) {
	reader := logs.NewReader(d.cfg.LogFilePath())
	if offset < 0 {
		return reader.Last(limit)
	}
	return reader.From(ctx, offset, wait)
}
