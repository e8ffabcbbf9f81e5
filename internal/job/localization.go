package job

import "fmt"

// LocalizationStatus is the display status of one (video, language) cell in
// the localization matrix. It is derived, never reported directly.
type LocalizationStatus string

const (
	LocalizationNotStarted LocalizationStatus = "not-started"
	LocalizationProcessing LocalizationStatus = "processing"
	LocalizationDraft      LocalizationStatus = "draft"
	LocalizationLive       LocalizationStatus = "live"
	LocalizationFailed     LocalizationStatus = "failed"
)

// Urgency ranks display statuses for matrix aggregation:
// failed > processing > draft > not-started > live.
func (s LocalizationStatus) Urgency() int {
	switch s {
	case LocalizationFailed:
		return 4
	case LocalizationProcessing:
		return 3
	case LocalizationDraft:
		return 2
	case LocalizationNotStarted:
		return 1
	case LocalizationLive:
		return 0
	default:
		return LocalizationProcessing.Urgency()
	}
}

// LocalizationInfo is the per-(video, language) projection consumed by
// table views. It is synthesized fresh from a Job plus WorkflowState on
// every poll tick and replaced wholesale; it is never patched in place.
type LocalizationInfo struct {
	Language string
	Status   LocalizationStatus

	// Confidence is the AI confidence score (0-100). HasConfidence is set
	// only when Status is draft or failed.
	Confidence    int
	HasConfidence bool

	// VideoID, URL, and Views are populated only when Status is live.
	VideoID string
	URL     string
	Views   int64
}

// MatrixState classifies an entire video's localization matrix.
type MatrixState string

const (
	MatrixReadyToDub MatrixState = "ready_to_dub"
	MatrixFailed     MatrixState = "failed"
	MatrixProcessing MatrixState = "processing"
	MatrixReview     MatrixState = "review"
	MatrixPending    MatrixState = "pending"
	MatrixLive       MatrixState = "live"
)

// MatrixSummary aggregates the per-language display statuses of one video.
type MatrixSummary struct {
	State      MatrixState
	Total      int
	NotStarted int
	Processing int
	Draft      int
	Live       int
	Failed     int
}

// Label renders the summary the way dashboards show it.
func (s MatrixSummary) Label() string {
	switch s.State {
	case MatrixReadyToDub:
		return "Ready to Dub"
	case MatrixFailed:
		return fmt.Sprintf("%d Failed", s.Failed)
	case MatrixProcessing:
		return "Processing"
	case MatrixReview:
		return fmt.Sprintf("%d Pending Review", s.Draft)
	case MatrixLive:
		return "All Systems Live"
	case MatrixPending:
		return "Pending"
	default:
		return string(s.State)
	}
}
