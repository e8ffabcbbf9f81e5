package job

import "strings"

// StageStatus is the per-stage, per-language vocabulary reported by the
// engine inside a workflow state.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageReview     StageStatus = "review"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
)

var stageStatusSet = map[StageStatus]struct{}{
	StagePending:    {},
	StageProcessing: {},
	StageReview:     {},
	StageCompleted:  {},
	StageFailed:     {},
}

// ParseStageStatus folds an engine stage status into the closed vocabulary.
// Empty or absent means pending; anything unrecognized means processing,
// never an error.
func ParseStageStatus(value string) StageStatus {
	normalized := StageStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return StagePending
	}
	if _, ok := stageStatusSet[normalized]; ok {
		return normalized
	}
	return StageProcessing
}

// Urgency ranks stage statuses so aggregation can pick the worst
// outstanding condition: failed > processing > review > pending > completed.
func (s StageStatus) Urgency() int {
	switch s {
	case StageFailed:
		return 4
	case StageProcessing:
		return 3
	case StageReview:
		return 2
	case StagePending:
		return 1
	case StageCompleted:
		return 0
	default:
		return StageProcessing.Urgency()
	}
}

// StageGroup identifies one of the per-language stage maps in a workflow
// state.
type StageGroup string

const (
	GroupTranslations StageGroup = "translations"
	GroupThumbnails   StageGroup = "thumbnails"
	GroupDubbing      StageGroup = "video_dubbing"
)

// StageGroups returns the per-language groups in pipeline order.
func StageGroups() []StageGroup {
	return []StageGroup{GroupTranslations, GroupThumbnails, GroupDubbing}
}

// LocalizationDetail is the per-language metadata the engine reports
// alongside stage statuses: the AI confidence for drafts and the
// published-video identity once a dub is live.
type LocalizationDetail struct {
	Confidence    int
	HasConfidence bool
	VideoID       string
	URL           string
	Views         int64
}

// WorkflowState is the engine's per-job breakdown into independently
// progressing stage groups. Maps are keyed by language code; a language
// missing from a map is pending, never an error.
type WorkflowState struct {
	MetadataExtraction StageStatus
	Translations       map[string]StageStatus
	Thumbnails         map[string]StageStatus
	VideoDubbing       map[string]StageStatus
	Details            map[string]LocalizationDetail
	RequiresReview     bool
}

// StageFor returns the sub-status for a language within a group, defaulting
// missing entries to pending.
func (w WorkflowState) StageFor(group StageGroup, lang string) StageStatus {
	var m map[string]StageStatus
	switch group {
	case GroupTranslations:
		m = w.Translations
	case GroupThumbnails:
		m = w.Thumbnails
	case GroupDubbing:
		m = w.VideoDubbing
	default:
		return StagePending
	}
	if status, ok := m[lang]; ok {
		return status
	}
	return StagePending
}

// DetailFor returns the reported metadata for a language, if any.
func (w WorkflowState) DetailFor(lang string) (LocalizationDetail, bool) {
	detail, ok := w.Details[lang]
	return detail, ok
}
