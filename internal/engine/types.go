package engine

import (
	"time"

	"dubwatch/internal/job"
)

// CreateJobRequest fans one source video out to the given target languages.
type CreateJobRequest struct {
	SourceVideoID   string   `json:"source_video_id"`
	SourceChannelID string   `json:"source_channel_id"`
	TargetLanguages []string `json:"target_languages"`
}

// LocalizationPreview is one per-language preview artifact shown in the
// approval gate.
type LocalizationPreview struct {
	Language    string `json:"language"`
	VideoURL    string `json:"video_url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// jobPayload mirrors the engine's job resource on the wire.
type jobPayload struct {
	ID              string    `json:"job_id"`
	Status          string    `json:"status"`
	Progress        int       `json:"progress"`
	TargetLanguages []string  `json:"target_languages"`
	SourceVideoID   string    `json:"source_video_id"`
	SourceChannelID string    `json:"source_channel_id"`
	CreatedAt       time.Time `json:"created_at"`
	ErrorMessage    string    `json:"error_message"`
}

func (p jobPayload) toJob() *job.Job {
	// ParseStatus keeps unrecognized values intact; classification code
	// treats them as processing.
	status, _ := job.ParseStatus(p.Status)
	return &job.Job{
		ID:              p.ID,
		Status:          status,
		Progress:        p.Progress,
		TargetLanguages: p.TargetLanguages,
		SourceVideoID:   p.SourceVideoID,
		SourceChannelID: p.SourceChannelID,
		CreatedAt:       p.CreatedAt,
		ErrorMessage:    p.ErrorMessage,
	}
}

// workflowPayload mirrors the engine's per-job workflow breakdown.
type workflowPayload struct {
	MetadataExtraction string                   `json:"metadata_extraction"`
	Translations       map[string]string        `json:"translations"`
	Thumbnails         map[string]string        `json:"thumbnails"`
	VideoDubbing       map[string]string        `json:"video_dubbing"`
	Localizations      map[string]detailPayload `json:"localizations"`
	ApprovalStatus     struct {
		RequiresReview bool `json:"requires_review"`
	} `json:"approval_status"`
}

// detailPayload carries the per-language metadata the engine attaches to
// a workflow: confidence on drafts, video identity once live. Confidence
// is a pointer so "not scored yet" and "scored zero" stay distinct.
type detailPayload struct {
	Confidence *int   `json:"confidence"`
	VideoID    string `json:"video_id"`
	URL        string `json:"url"`
	Views      int64  `json:"views"`
}

func (p workflowPayload) toWorkflowState() job.WorkflowState {
	return job.WorkflowState{
		MetadataExtraction: job.ParseStageStatus(p.MetadataExtraction),
		Translations:       parseStageMap(p.Translations),
		Thumbnails:         parseStageMap(p.Thumbnails),
		VideoDubbing:       parseStageMap(p.VideoDubbing),
		Details:            parseDetailMap(p.Localizations),
		RequiresReview:     p.ApprovalStatus.RequiresReview,
	}
}

func parseDetailMap(raw map[string]detailPayload) map[string]job.LocalizationDetail {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]job.LocalizationDetail, len(raw))
	for lang, p := range raw {
		detail := job.LocalizationDetail{
			VideoID: p.VideoID,
			URL:     p.URL,
			Views:   p.Views,
		}
		if p.Confidence != nil {
			detail.Confidence = *p.Confidence
			detail.HasConfidence = true
		}
		out[lang] = detail
	}
	return out
}

func parseStageMap(raw map[string]string) map[string]job.StageStatus {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]job.StageStatus, len(raw))
	for lang, status := range raw {
		out[lang] = job.ParseStageStatus(status)
	}
	return out
}

type jobListPayload struct {
	Jobs []jobPayload `json:"jobs"`
}

type previewListPayload struct {
	Previews []LocalizationPreview `json:"previews"`
}
