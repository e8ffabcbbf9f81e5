package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dubwatch/internal/job"
	"dubwatch/internal/testsupport"
)

func TestUpsertAndGetSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if err := st.UpsertSnapshot(ctx, "proj-1", &job.Job{
		ID:              "job-1",
		Status:          job.StatusTranscribing,
		Progress:        35,
		TargetLanguages: []string{"es", "fr"},
		SourceVideoID:   "vid-1",
		CreatedAt:       created,
	}); err != nil {
		t.Fatalf("UpsertSnapshot: %v", err)
	}

	snapshot, err := st.GetByJobID(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetByJobID: %v", err)
	}
	if snapshot == nil {
		t.Fatal("snapshot missing")
	}
	if snapshot.Status != job.StatusTranscribing || snapshot.Progress != 35 {
		t.Fatalf("snapshot = %+v", snapshot)
	}
	if len(snapshot.TargetLanguages) != 2 || snapshot.TargetLanguages[0] != "es" {
		t.Fatalf("languages = %v", snapshot.TargetLanguages)
	}
	if !snapshot.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v", snapshot.CreatedAt)
	}

	// Second upsert replaces, not duplicates.
	if err := st.UpsertSnapshot(ctx, "proj-1", &job.Job{
		ID: "job-1", Status: job.StatusCompleted, Progress: 100, CreatedAt: created,
	}); err != nil {
		t.Fatalf("UpsertSnapshot: %v", err)
	}
	jobs, err := st.ListScope(ctx, "proj-1")
	if err != nil {
		t.Fatalf("ListScope: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Status != job.StatusCompleted {
		t.Fatalf("jobs = %+v", jobs)
	}
}

func TestGetMissingSnapshotReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	snapshot, err := st.GetByJobID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetByJobID: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("expected nil, got %+v", snapshot)
	}
}

func TestReplaceScopeSwapsWholesale(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedSnapshot(t, st, "proj-1", &job.Job{ID: "job-1", Status: job.StatusDownloading})
	testsupport.SeedSnapshot(t, st, "proj-1", &job.Job{ID: "job-2", Status: job.StatusLipSync})
	testsupport.SeedSnapshot(t, st, "proj-2", &job.Job{ID: "job-9", Status: job.StatusPending})

	if err := st.ReplaceScope(ctx, "proj-1", []*job.Job{
		{ID: "job-3", Status: job.StatusVoiceCloning, CreatedAt: time.Now().UTC()},
	}); err != nil {
		t.Fatalf("ReplaceScope: %v", err)
	}

	jobs, err := st.ListScope(ctx, "proj-1")
	if err != nil {
		t.Fatalf("ListScope: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "job-3" {
		t.Fatalf("scope not replaced: %+v", jobs)
	}

	// Other scopes are untouched.
	other, err := st.ListScope(ctx, "proj-2")
	if err != nil {
		t.Fatalf("ListScope: %v", err)
	}
	if len(other) != 1 || other[0].ID != "job-9" {
		t.Fatalf("sibling scope damaged: %+v", other)
	}
}

func TestReplaceScopeKeepsTerminalHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedSnapshot(t, st, "proj-1", &job.Job{ID: "job-1", Status: job.StatusCompleted})
	testsupport.SeedSnapshot(t, st, "proj-1", &job.Job{ID: "job-2", Status: job.StatusFailed})
	testsupport.SeedSnapshot(t, st, "proj-1", &job.Job{ID: "job-3", Status: job.StatusDownloading})

	if err := st.ReplaceScope(ctx, "proj-1", nil); err != nil {
		t.Fatalf("ReplaceScope: %v", err)
	}
	jobs, err := st.ListScope(ctx, "proj-1")
	if err != nil {
		t.Fatalf("ListScope: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("terminal history lost: %+v", jobs)
	}
	for _, j := range jobs {
		if j.ID == "job-3" {
			t.Fatal("non-terminal snapshot survived replace")
		}
	}
}

func TestWorkflowStateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedSnapshot(t, st, "proj-1", &job.Job{ID: "job-1", Status: job.StatusWaitingApproval})

	state := job.WorkflowState{
		MetadataExtraction: job.StageCompleted,
		Translations:       map[string]job.StageStatus{"es": job.StageReview},
		RequiresReview:     true,
	}
	if err := st.SaveWorkflowState(ctx, "job-1", state); err != nil {
		t.Fatalf("SaveWorkflowState: %v", err)
	}

	stored, ok, err := st.WorkflowState(ctx, "job-1")
	if err != nil {
		t.Fatalf("WorkflowState: %v", err)
	}
	if !ok {
		t.Fatal("workflow state missing")
	}
	if stored.Translations["es"] != job.StageReview || !stored.RequiresReview {
		t.Fatalf("stored state = %+v", stored)
	}

	_, ok, err = st.WorkflowState(ctx, "job-2")
	if err != nil {
		t.Fatalf("WorkflowState: %v", err)
	}
	if ok {
		t.Fatal("workflow state reported for unknown job")
	}
}

func TestApprovalAuditTrail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.RecordApproval(ctx, "job-1", errors.New("engine timeout")); err != nil {
		t.Fatalf("RecordApproval: %v", err)
	}
	if err := st.RecordApproval(ctx, "job-1", nil); err != nil {
		t.Fatalf("RecordApproval: %v", err)
	}

	records, err := st.Approvals(ctx, "job-1")
	if err != nil {
		t.Fatalf("Approvals: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
	if !records[0].Succeeded || records[0].ErrorMessage != "" {
		t.Fatalf("newest record = %+v", records[0])
	}
	if records[1].Succeeded || records[1].ErrorMessage != "engine timeout" {
		t.Fatalf("oldest record = %+v", records[1])
	}
}

func TestHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if err := st.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}
