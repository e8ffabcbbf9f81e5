package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dubwatch/internal/config"
)

const userAgent = "dubwatch/0.1.0"

// Service defines the notification surface exposed to the watch manager.
type Service interface {
	NotifyJobCompleted(ctx context.Context, jobID, videoTitle string, languages []string) error
	NotifyJobFailed(ctx context.Context, jobID, reason string) error
	NotifyAwaitingApproval(ctx context.Context, jobID string, languages []string) error
	NotifyBatchPublished(ctx context.Context, published, failed int, duration time.Duration) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, jobID, videoTitle string, languages []string) error {
	videoTitle = strings.TrimSpace(videoTitle)
	if videoTitle == "" {
		videoTitle = jobID
	}
	message := fmt.Sprintf("Dubbing complete: %s", videoTitle)
	if len(languages) > 0 {
		message = fmt.Sprintf("%s (%s)", message, strings.Join(languages, ", "))
	}
	data := payload{
		title:   "Dubwatch - Job Complete",
		message: message,
		tags:    []string{"dubwatch", "job", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, jobID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "no failure reason reported"
	}
	data := payload{
		title:    "Dubwatch - Job Failed",
		message:  fmt.Sprintf("Job %s failed: %s", jobID, reason),
		tags:     []string{"dubwatch", "job", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAwaitingApproval(ctx context.Context, jobID string, languages []string) error {
	message := fmt.Sprintf("Job %s is awaiting review", jobID)
	if len(languages) > 0 {
		message = fmt.Sprintf("%s: %s", message, strings.Join(languages, ", "))
	}
	data := payload{
		title:    "Dubwatch - Review Needed",
		message:  message,
		tags:     []string{"dubwatch", "approval", "pending"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchPublished(ctx context.Context, published, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "Dubwatch - Batch Published"
		message = fmt.Sprintf("Published %d localizations in %s", published, durationText)
	} else {
		title = "Dubwatch - Batch Published (with errors)"
		message = fmt.Sprintf("Published %d localizations, %d failed in %s", published, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"dubwatch", "publish", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Dubwatch - Error",
		message:  builder.String(),
		tags:     []string{"dubwatch", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Dubwatch - Test",
		message:  "Notification system test",
		tags:     []string{"dubwatch", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, string, string, []string) error   { return nil }
func (noopService) NotifyJobFailed(context.Context, string, string) error                { return nil }
func (noopService) NotifyAwaitingApproval(context.Context, string, []string) error       { return nil }
func (noopService) NotifyBatchPublished(context.Context, int, int, time.Duration) error  { return nil }
func (noopService) NotifyError(context.Context, error, string) error                     { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
