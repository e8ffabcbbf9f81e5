package job

import (
	"strings"
	"time"
)

// Status represents the engine-reported lifecycle state of a job.
type Status string

const (
	StatusPending         Status = "pending"
	StatusDownloading     Status = "downloading"
	StatusTranscribing    Status = "transcribing"
	StatusVoiceCloning    Status = "voice_cloning"
	StatusLipSync         Status = "lip_sync"
	StatusWaitingApproval Status = "waiting_approval"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusTranscribing,
	StatusVoiceCloning,
	StatusLipSync,
	StatusWaitingApproval,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// statusRank orders the forward chain for transition checks and display.
var statusRank = map[Status]int{
	StatusPending:         0,
	StatusDownloading:     1,
	StatusTranscribing:    2,
	StatusVoiceCloning:    3,
	StatusLipSync:         4,
	StatusWaitingApproval: 5,
	StatusCompleted:       6,
}

// AllStatuses returns the ordered list of known job statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus normalizes a string into a Status. The second return reports
// whether the value is a known status; unknown values are preserved so the
// raw engine vocabulary still round-trips through logs and storage.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Known reports whether the status belongs to the recognized vocabulary.
func (s Status) Known() bool {
	_, ok := statusSet[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsProcessing reports whether the status reflects in-flight engine work.
// Unrecognized statuses count as processing so a newer engine vocabulary
// degrades to "still working" instead of an error.
func (s Status) IsProcessing() bool {
	if !s.Known() {
		return true
	}
	switch s {
	case StatusDownloading, StatusTranscribing, StatusVoiceCloning, StatusLipSync:
		return true
	default:
		return false
	}
}

// RequiresApproval reports whether the job is blocked on human sign-off.
func (s Status) RequiresApproval() bool {
	return s == StatusWaitingApproval
}

// CanTransition reports whether moving from one status to another is legal:
// one step forward along the chain, or failed from any non-terminal state.
// Unknown statuses sit in the middle of the chain, so any forward-looking
// move from them is allowed.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	fromRank, fromKnown := statusRank[from]
	toRank, toKnown := statusRank[to]
	if !fromKnown || !toKnown {
		return !fromKnown && toKnown
	}
	return toRank == fromRank+1
}

// Job is one dubbing run for one source video, fanned out to N target
// languages. Jobs are observed snapshots: the engine owns all mutation, so
// consumers treat a Job as an immutable value and replace it wholesale.
type Job struct {
	ID              string
	Status          Status
	Progress        int // 0-100, advisory only; 100 does not imply terminal
	TargetLanguages []string
	SourceVideoID   string
	SourceChannelID string
	CreatedAt       time.Time
	ErrorMessage    string // set only when Status == failed
}

// IsTerminal reports whether the job reached completed or failed.
func (j *Job) IsTerminal() bool {
	return j != nil && j.Status.IsTerminal()
}

// IsActive reports whether the job still belongs in the active set. Failed
// jobs stay active so dashboards keep showing the worst outstanding
// condition until the operator clears them.
func (j *Job) IsActive() bool {
	return j != nil && j.Status != StatusCompleted
}

// Clone returns a deep copy so stored snapshots can never alias a caller's
// slice.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if len(j.TargetLanguages) > 0 {
		cp.TargetLanguages = make([]string, len(j.TargetLanguages))
		copy(cp.TargetLanguages, j.TargetLanguages)
	}
	return &cp
}
