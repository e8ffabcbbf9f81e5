package job_test

import (
	"testing"

	"dubwatch/internal/job"
)

func TestParseStatus(t *testing.T) {
	status, ok := job.ParseStatus("  Waiting_Approval ")
	if !ok || status != job.StatusWaitingApproval {
		t.Fatalf("expected waiting_approval, got %q (known=%v)", status, ok)
	}

	status, ok = job.ParseStatus("color_grading")
	if ok {
		t.Fatalf("expected unknown status, got known %q", status)
	}
	if status != job.Status("color_grading") {
		t.Fatalf("expected raw value preserved, got %q", status)
	}
}

func TestUnknownStatusCountsAsProcessing(t *testing.T) {
	status := job.Status("color_grading")
	if status.Known() {
		t.Fatal("expected status to be unknown")
	}
	if !status.IsProcessing() {
		t.Fatal("unknown status must degrade to processing")
	}
	if status.IsTerminal() {
		t.Fatal("unknown status must never be terminal")
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range job.AllStatuses() {
		terminal := status == job.StatusCompleted || status == job.StatusFailed
		if status.IsTerminal() != terminal {
			t.Fatalf("%s: IsTerminal = %v", status, status.IsTerminal())
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to job.Status
		want     bool
	}{
		{job.StatusPending, job.StatusDownloading, true},
		{job.StatusDownloading, job.StatusTranscribing, true},
		{job.StatusLipSync, job.StatusWaitingApproval, true},
		{job.StatusWaitingApproval, job.StatusCompleted, true},
		{job.StatusPending, job.StatusFailed, true},
		{job.StatusLipSync, job.StatusFailed, true},
		{job.StatusCompleted, job.StatusFailed, false},
		{job.StatusFailed, job.StatusPending, false},
		{job.StatusPending, job.StatusTranscribing, false},
		{job.StatusCompleted, job.StatusPending, false},
	}
	for _, tc := range cases {
		if got := job.CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestJobActiveSemantics(t *testing.T) {
	failed := &job.Job{ID: "j1", Status: job.StatusFailed}
	if !failed.IsActive() {
		t.Fatal("failed jobs stay in the active set")
	}
	completed := &job.Job{ID: "j2", Status: job.StatusCompleted}
	if completed.IsActive() {
		t.Fatal("completed jobs leave the active set")
	}
}

func TestJobCloneDoesNotAliasLanguages(t *testing.T) {
	original := &job.Job{ID: "j1", TargetLanguages: []string{"es", "fr"}}
	cp := original.Clone()
	cp.TargetLanguages[0] = "de"
	if original.TargetLanguages[0] != "es" {
		t.Fatal("clone must not alias the original language slice")
	}
}
