package job

// Aggregation is pure and deterministic: the same inputs always produce the
// same outputs, with no I/O and no mutation of the arguments. It is re-run
// on every poll tick and every render.

// AggregateStage folds the sub-status of every target language within one
// stage group into a single status using urgency precedence. Languages
// missing from the group default to pending. The review flag only applies
// once nothing is failed or still processing: review is a quiescent state
// waiting on a human, not on the engine.
func AggregateStage(state WorkflowState, group StageGroup, targets []string) StageStatus {
	if len(targets) == 0 {
		return StagePending
	}

	anyProcessing := false
	anyPending := false
	anyReview := false
	for _, lang := range targets {
		switch state.StageFor(group, lang) {
		case StageFailed:
			return StageFailed
		case StageProcessing:
			anyProcessing = true
		case StageReview:
			anyReview = true
		case StagePending:
			anyPending = true
		}
	}
	if anyProcessing {
		return StageProcessing
	}
	if state.RequiresReview || anyReview {
		return StageReview
	}
	if anyPending {
		return StagePending
	}
	return StageCompleted
}

// AggregateStages computes the aggregate for every per-language stage group.
func AggregateStages(state WorkflowState, targets []string) map[StageGroup]StageStatus {
	out := make(map[StageGroup]StageStatus, len(StageGroups()))
	for _, group := range StageGroups() {
		out[group] = AggregateStage(state, group, targets)
	}
	return out
}

// ProjectLocalizations synthesizes the display row for every target
// language from the job snapshot and its workflow state. The result is a
// complete replacement for any previous projection. Reported metadata is
// surfaced status-conditionally: confidence only on draft or failed rows,
// video identity only on live rows.
func ProjectLocalizations(j *Job, state WorkflowState) []LocalizationInfo {
	if j == nil {
		return nil
	}
	infos := make([]LocalizationInfo, 0, len(j.TargetLanguages))
	for _, lang := range j.TargetLanguages {
		status := localizationStatus(j, state, lang)
		info := LocalizationInfo{
			Language: lang,
			Status:   status,
		}
		if detail, ok := state.DetailFor(lang); ok {
			switch status {
			case LocalizationDraft, LocalizationFailed:
				info.Confidence = detail.Confidence
				info.HasConfidence = detail.HasConfidence
			case LocalizationLive:
				info.VideoID = detail.VideoID
				info.URL = detail.URL
				info.Views = detail.Views
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func localizationStatus(j *Job, state WorkflowState, lang string) LocalizationStatus {
	translation := state.StageFor(GroupTranslations, lang)
	thumbnail := state.StageFor(GroupThumbnails, lang)
	dubbing := state.StageFor(GroupDubbing, lang)

	switch {
	case j.Status == StatusFailed,
		translation == StageFailed, thumbnail == StageFailed, dubbing == StageFailed:
		return LocalizationFailed
	case j.Status == StatusCompleted && dubbing == StageCompleted:
		return LocalizationLive
	case j.Status.RequiresApproval(),
		translation == StageReview, thumbnail == StageReview, dubbing == StageReview:
		return LocalizationDraft
	case j.Status == StatusPending &&
		translation == StagePending && thumbnail == StagePending && dubbing == StagePending:
		return LocalizationNotStarted
	default:
		return LocalizationProcessing
	}
}

// SummarizeMatrix folds per-language display statuses into one video-level
// state. A matrix with zero active localizations is "Ready to Dub", a
// distinct nothing-attempted state, so a brand-new video never looks like a
// partially failed one.
func SummarizeMatrix(infos []LocalizationInfo) MatrixSummary {
	summary := MatrixSummary{Total: len(infos)}
	for _, info := range infos {
		switch info.Status {
		case LocalizationFailed:
			summary.Failed++
		case LocalizationProcessing:
			summary.Processing++
		case LocalizationDraft:
			summary.Draft++
		case LocalizationLive:
			summary.Live++
		default:
			summary.NotStarted++
		}
	}

	switch {
	case summary.Total == summary.NotStarted:
		summary.State = MatrixReadyToDub
	case summary.Failed > 0:
		summary.State = MatrixFailed
	case summary.Processing > 0:
		summary.State = MatrixProcessing
	case summary.Draft > 0:
		summary.State = MatrixReview
	case summary.Live == summary.Total:
		summary.State = MatrixLive
	default:
		summary.State = MatrixPending
	}
	return summary
}
