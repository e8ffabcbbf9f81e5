package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"dubwatch/internal/config"
	"dubwatch/internal/job"
	"dubwatch/internal/logging"
)

const userAgent = "dubwatch/0.1.0"

// Client talks to the localization engine API. Safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient builds an engine client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Engine.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.Engine.BaseURL,
		token:   cfg.Engine.APIToken,
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewComponentLogger(logger, "engine"),
	}
}

// CreateJob submits a new localization job. Language validation failures
// come back as *DomainError with the engine's structured language hints.
func (c *Client) CreateJob(ctx context.Context, req CreateJobRequest) (*job.Job, error) {
	var payload jobPayload
	if err := c.do(ctx, http.MethodPost, "/jobs", req, &payload, nil); err != nil {
		return nil, err
	}
	return payload.toJob(), nil
}

// Job fetches the current snapshot for a job. Safe to call repeatedly.
func (c *Client) Job(ctx context.Context, jobID string) (*job.Job, error) {
	var payload jobPayload
	path := "/jobs/" + url.PathEscape(jobID)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload, nil); err != nil {
		return nil, err
	}
	return payload.toJob(), nil
}

// WorkflowState fetches the per-stage breakdown for a job.
func (c *Client) WorkflowState(ctx context.Context, jobID string) (job.WorkflowState, error) {
	var payload workflowPayload
	path := "/jobs/" + url.PathEscape(jobID) + "/workflow"
	if err := c.do(ctx, http.MethodGet, path, nil, &payload, nil); err != nil {
		return job.WorkflowState{}, err
	}
	return payload.toWorkflowState(), nil
}

// ListActiveJobs fetches every non-completed job for a scope.
func (c *Client) ListActiveJobs(ctx context.Context, scope string) ([]*job.Job, error) {
	var payload jobListPayload
	path := "/scopes/" + url.PathEscape(scope) + "/jobs/active"
	if err := c.do(ctx, http.MethodGet, path, nil, &payload, nil); err != nil {
		return nil, err
	}
	jobs := make([]*job.Job, 0, len(payload.Jobs))
	for _, item := range payload.Jobs {
		jobs = append(jobs, item.toJob())
	}
	return jobs, nil
}

// PreviewArtifacts fetches the per-language previews used by the approval
// gate.
func (c *Client) PreviewArtifacts(ctx context.Context, jobID string) ([]LocalizationPreview, error) {
	var payload previewListPayload
	path := "/jobs/" + url.PathEscape(jobID) + "/previews"
	if err := c.do(ctx, http.MethodGet, path, nil, &payload, nil); err != nil {
		return nil, err
	}
	return payload.Previews, nil
}

// Approve signs off a job awaiting approval. The idempotency key guards
// against replays on the engine side; single-submission is still enforced
// locally by the approval gate.
func (c *Client) Approve(ctx context.Context, jobID string) error {
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	path := "/jobs/" + url.PathEscape(jobID) + "/approve"
	return c.do(ctx, http.MethodPost, path, nil, nil, headers)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("engine request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		// Server-side failures (including gateway errors) are transient
		// transport conditions, not business rejections.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8192))
		c.logger.Warn("engine unavailable",
			logging.String("method", method),
			logging.String("path", path),
			logging.String(logging.FieldRequestID, requestID),
			logging.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("engine request %s %s: server error (status %d)", method, path, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		domainErr := decodeDomainError(resp.StatusCode, raw)
		c.logger.Debug("engine rejected request",
			logging.String("method", method),
			logging.String("path", path),
			logging.String(logging.FieldRequestID, requestID),
			logging.Int("status", resp.StatusCode),
		)
		return domainErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode engine response: %w", err)
	}
	return nil
}
