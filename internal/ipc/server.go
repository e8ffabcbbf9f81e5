package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"dubwatch/internal/daemon"
	"dubwatch/internal/engine"
	"dubwatch/internal/job"
	"dubwatch/internal/logging"
	"dubwatch/internal/selection"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Dubwatch", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func summarizeJob(j *job.Job) JobSummary {
	if j == nil {
		return JobSummary{}
	}
	return JobSummary{
		ID:              j.ID,
		Status:          string(j.Status),
		Progress:        j.Progress,
		TargetLanguages: append([]string(nil), j.TargetLanguages...),
		SourceVideoID:   j.SourceVideoID,
		SourceChannelID: j.SourceChannelID,
		ErrorMessage:    j.ErrorMessage,
		CreatedAt:       j.CreatedAt,
	}
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Scope = status.Scope
	resp.ActiveJobs = status.Watch.ActiveCount
	resp.Subscribed = status.Watch.Subscribed
	resp.LastRefresh = status.Watch.LastRefresh
	resp.LastError = status.Watch.LastError
	resp.DBPath = status.DBPath
	resp.LockPath = status.LockPath
	resp.StoreOK = status.StoreOK
	resp.StatusCounts = make(map[string]int, len(status.Watch.StatusCounts))
	for k, v := range status.Watch.StatusCounts {
		resp.StatusCounts[string(k)] = v
	}
	return nil
}

func (s *service) JobsList(req JobsListRequest, resp *JobsListResponse) error {
	statuses := make([]job.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		parsed, _ := job.ParseStatus(raw)
		statuses = append(statuses, parsed)
	}
	jobs, err := s.daemon.ListJobs(s.ctx, statuses, req.ActiveOnly)
	if err != nil {
		return err
	}
	resp.Jobs = make([]JobSummary, 0, len(jobs))
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, summarizeJob(j))
	}
	return nil
}

func (s *service) JobDescribe(req JobDescribeRequest, resp *JobDescribeResponse) error {
	desc, err := s.daemon.DescribeJob(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Job = summarizeJob(desc.Job)
	resp.Stale = desc.Stale
	resp.HasWorkflow = desc.HasWorkflow
	resp.RequiresReview = desc.Workflow.RequiresReview
	resp.MatrixState = string(desc.Matrix.State)
	resp.MatrixLabel = desc.Matrix.Label()

	if desc.HasWorkflow {
		targets := desc.Job.TargetLanguages
		for _, group := range job.StageGroups() {
			resp.Stages = append(resp.Stages, StageRow{
				Group:  string(group),
				Status: string(job.AggregateStage(desc.Workflow, group, targets)),
			})
		}
	}
	for _, info := range desc.Localizations {
		resp.Localizations = append(resp.Localizations, LocalizationRow{
			Language:      info.Language,
			Status:        string(info.Status),
			Confidence:    info.Confidence,
			HasConfidence: info.HasConfidence,
			VideoID:       info.VideoID,
			URL:           info.URL,
			Views:         info.Views,
		})
	}
	return nil
}

func (s *service) JobCreate(req JobCreateRequest, resp *JobCreateResponse) error {
	s.log().Debug("job create requested",
		logging.String("video_id", req.SourceVideoID),
		logging.Int("language_count", len(req.TargetLanguages)))
	created, err := s.daemon.CreateJob(s.ctx, engine.CreateJobRequest{
		SourceVideoID:   req.SourceVideoID,
		SourceChannelID: req.SourceChannelID,
		TargetLanguages: req.TargetLanguages,
	})
	if err != nil {
		return err
	}
	resp.Job = summarizeJob(created)
	return nil
}

func (s *service) Approve(req ApproveRequest, resp *ApproveResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("approve requires a job id")
	}
	if err := s.daemon.Approve(s.ctx, req.ID); err != nil {
		resp.Approved = false
		resp.Message = err.Error()
		return err
	}
	resp.Approved = true
	resp.Message = "approved"
	s.log().Info("job approved via IPC",
		logging.String(logging.FieldJobID, req.ID),
		logging.String(logging.FieldEventType, "job_approve"))
	return nil
}

func (s *service) Previews(req PreviewsRequest, resp *PreviewsResponse) error {
	previews, err := s.daemon.Previews(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Previews = make([]Preview, 0, len(previews))
	for _, p := range previews {
		resp.Previews = append(resp.Previews, Preview{
			Language:    p.Language,
			VideoURL:    p.VideoURL,
			Title:       p.Title,
			Description: p.Description,
			Status:      p.Status,
		})
	}
	return nil
}

func (s *service) SelectionToggle(req SelectionToggleRequest, resp *SelectionToggleResponse) error {
	if req.Key.VideoID == "" || req.Key.Language == "" {
		return errors.New("selection toggle requires video id and language")
	}
	resp.Staged = s.daemon.SelectionToggle(selection.Key{
		VideoID:  req.Key.VideoID,
		Language: req.Key.Language,
	})
	resp.Count = len(s.daemon.SelectionList())
	return nil
}

func (s *service) SelectionList(_ SelectionListRequest, resp *SelectionListResponse) error {
	keys := s.daemon.SelectionList()
	resp.Keys = make([]SelectionKey, 0, len(keys))
	for _, key := range keys {
		resp.Keys = append(resp.Keys, SelectionKey{VideoID: key.VideoID, Language: key.Language})
	}
	return nil
}

func (s *service) SelectionClear(_ SelectionClearRequest, resp *SelectionClearResponse) error {
	s.daemon.SelectionClear()
	resp.Cleared = true
	return nil
}

func (s *service) PublishSelection(_ PublishRequest, resp *PublishResponse) error {
	result, batch, err := s.daemon.PublishSelection(s.ctx)
	if err != nil {
		return err
	}
	resp.Published = result.Published
	resp.Failed = result.Failed
	resp.Batch = len(batch)
	resp.Errors = result.Errors
	s.log().Info("selection published",
		logging.String(logging.FieldEventType, "selection_publish"),
		logging.Int("published", result.Published),
		logging.Int("failed", result.Failed))
	return nil
}

func (s *service) LogsTail(req LogsTailRequest, resp *LogsTailResponse) error {
	var wait time.Duration
	if req.Follow {
		wait = time.Duration(req.WaitSeconds) * time.Second
	}
	page, err := s.daemon.TailLog(s.ctx, req.Offset, req.Limit, wait)
	if err != nil {
		return err
	}
	resp.Lines = page.Lines
	resp.Offset = page.NextOffset
	resp.Path = s.daemon.LogPath()
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
