package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/watcher status information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	Scope        string         `json:"scope"`
	ActiveJobs   int            `json:"active_jobs"`
	Subscribed   int            `json:"subscribed"`
	StatusCounts map[string]int `json:"status_counts"`
	LastRefresh  time.Time      `json:"last_refresh"`
	LastError    string         `json:"last_error"`
	DBPath       string         `json:"db_path"`
	LockPath     string         `json:"lock_path"`
	StoreOK      bool           `json:"store_ok"`
}

// JobSummary is the wire DTO for one job snapshot.
type JobSummary struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	Progress        int       `json:"progress"`
	TargetLanguages []string  `json:"target_languages"`
	SourceVideoID   string    `json:"source_video_id"`
	SourceChannelID string    `json:"source_channel_id"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// JobsListRequest filters the job listing.
type JobsListRequest struct {
	Statuses   []string `json:"statuses"`
	ActiveOnly bool     `json:"active_only"`
}

// JobsListResponse contains job snapshots.
type JobsListResponse struct {
	Jobs []JobSummary `json:"jobs"`
}

// JobDescribeRequest fetches the detail view for one job.
type JobDescribeRequest struct {
	ID string `json:"id"`
}

// StageRow is one aggregated stage-group status for the detail view.
type StageRow struct {
	Group  string `json:"group"`
	Status string `json:"status"`
}

// LocalizationRow is one per-language display row.
type LocalizationRow struct {
	Language      string `json:"language"`
	Status        string `json:"status"`
	Confidence    int    `json:"confidence"`
	HasConfidence bool   `json:"has_confidence"`
	VideoID       string `json:"video_id,omitempty"`
	URL           string `json:"url,omitempty"`
	Views         int64  `json:"views"`
}

// JobDescribeResponse is the full detail view for one job.
type JobDescribeResponse struct {
	Job            JobSummary        `json:"job"`
	Stale          bool              `json:"stale"`
	HasWorkflow    bool              `json:"has_workflow"`
	RequiresReview bool              `json:"requires_review"`
	Stages         []StageRow        `json:"stages"`
	Localizations  []LocalizationRow `json:"localizations"`
	MatrixState    string            `json:"matrix_state"`
	MatrixLabel    string            `json:"matrix_label"`
}

// JobCreateRequest submits a new localization job.
type JobCreateRequest struct {
	SourceVideoID   string   `json:"source_video_id"`
	SourceChannelID string   `json:"source_channel_id"`
	TargetLanguages []string `json:"target_languages"`
}

// JobCreateResponse returns the created job.
type JobCreateResponse struct {
	Job JobSummary `json:"job"`
}

// ApproveRequest signs off one job awaiting approval.
type ApproveRequest struct {
	ID string `json:"id"`
}

// ApproveResponse reports the approval outcome.
type ApproveResponse struct {
	Approved bool   `json:"approved"`
	Message  string `json:"message"`
}

// PreviewsRequest fetches the approval previews for one job.
type PreviewsRequest struct {
	ID string `json:"id"`
}

// Preview is the wire DTO for one per-language preview artifact.
type Preview struct {
	Language    string `json:"language"`
	VideoURL    string `json:"video_url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// PreviewsResponse contains preview artifacts.
type PreviewsResponse struct {
	Previews []Preview `json:"previews"`
}

// SelectionKey identifies one staged localization.
type SelectionKey struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
}

// SelectionToggleRequest flips one localization in the staging area.
type SelectionToggleRequest struct {
	Key SelectionKey `json:"key"`
}

// SelectionToggleResponse reports the membership after toggling.
type SelectionToggleResponse struct {
	Staged bool `json:"staged"`
	Count  int  `json:"count"`
}

// SelectionListRequest fetches the staged localizations.
type SelectionListRequest struct{}

// SelectionListResponse contains the staged localizations.
type SelectionListResponse struct {
	Keys []SelectionKey `json:"keys"`
}

// SelectionClearRequest drops everything staged.
type SelectionClearRequest struct{}

// SelectionClearResponse acknowledges the clear.
type SelectionClearResponse struct {
	Cleared bool `json:"cleared"`
}

// PublishRequest bulk-approves the staged localizations.
type PublishRequest struct{}

// PublishResponse reports the bulk publish outcome.
type PublishResponse struct {
	Published int      `json:"published"`
	Failed    int      `json:"failed"`
	Batch     int      `json:"batch"`
	Errors    []string `json:"errors,omitempty"`
}

// LogsTailRequest reads from the daemon log file. A negative offset
// requests the last Limit lines; Follow waits up to WaitSeconds for new
// lines when nothing is immediately available.
type LogsTailRequest struct {
	Offset      int64 `json:"offset"`
	Limit       int   `json:"limit"`
	Follow      bool  `json:"follow"`
	WaitSeconds int   `json:"wait_seconds"`
}

// LogsTailResponse returns log lines and the offset to resume from.
type LogsTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
	Path   string   `json:"path"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
