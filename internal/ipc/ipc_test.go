package ipc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"dubwatch/internal/config"
	"dubwatch/internal/daemon"
	"dubwatch/internal/engine"
	"dubwatch/internal/ipc"
	"dubwatch/internal/logging"
	"dubwatch/internal/testsupport"
	"dubwatch/internal/watch"
)

type jobRecord struct {
	JobID           string   `json:"job_id"`
	Status          string   `json:"status"`
	Progress        int      `json:"progress"`
	TargetLanguages []string `json:"target_languages"`
	SourceVideoID   string   `json:"source_video_id"`
	SourceChannelID string   `json:"source_channel_id"`
	CreatedAt       string   `json:"created_at"`
	ErrorMessage    string   `json:"error_message,omitempty"`
}

// fakeEngineServer is an httptest-backed engine with mutable job state.
type fakeEngineServer struct {
	mu   sync.Mutex
	jobs map[string]*jobRecord
}

func newFakeEngineServer(t *testing.T) (*fakeEngineServer, *httptest.Server) {
	t.Helper()
	f := &fakeEngineServer{jobs: make(map[string]*jobRecord)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SourceVideoID   string   `json:"source_video_id"`
			SourceChannelID string   `json:"source_channel_id"`
			TargetLanguages []string `json:"target_languages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		record := &jobRecord{
			JobID:           "job-created",
			Status:          "pending",
			TargetLanguages: req.TargetLanguages,
			SourceVideoID:   req.SourceVideoID,
			SourceChannelID: req.SourceChannelID,
			CreatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
		}
		f.jobs[record.JobID] = record
		f.mu.Unlock()
		json.NewEncoder(w).Encode(record)
	})
	mux.HandleFunc("GET /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		record, ok := f.jobs[r.PathValue("id")]
		f.mu.Unlock()
		if !ok {
			http.Error(w, `{"error":{"code":"not_found","message":"job not found"}}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(record)
	})
	mux.HandleFunc("GET /jobs/{id}/workflow", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"metadata_extraction": "completed",
			"translations":        map[string]string{"es": "review"},
			"video_dubbing":       map[string]string{"es": "completed"},
			"approval_status":     map[string]bool{"requires_review": true},
		})
	})
	mux.HandleFunc("GET /scopes/{scope}/jobs/active", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		var active []*jobRecord
		for _, record := range f.jobs {
			if record.Status != "completed" {
				active = append(active, record)
			}
		}
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"jobs": active})
	})
	mux.HandleFunc("GET /jobs/{id}/previews", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"previews": []map[string]string{
			{"language": "es", "title": "Hola", "status": "draft"},
		}})
	})
	mux.HandleFunc("POST /jobs/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		if record, ok := f.jobs[r.PathValue("id")]; ok {
			record.Status = "completed"
			record.Progress = 100
		}
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeEngineServer) set(record *jobRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[record.JobID] = record
}

func newTestDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	logger := logging.NewNop()
	st := testsupport.MustOpenStore(t, cfg)
	eng := engine.NewClient(cfg, logger)
	watcher := watch.NewManager(cfg, eng, st, nil, logger)
	d, err := daemon.New(cfg, st, watcher, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestIPCServerClient(t *testing.T) {
	fake, server := newFakeEngineServer(t)
	fake.set(&jobRecord{
		JobID:           "job-1",
		Status:          "waiting_approval",
		TargetLanguages: []string{"es"},
		SourceVideoID:   "vid-1",
		CreatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
	})

	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL))
	cfg.Watch.JobPollInterval = 1
	cfg.Watch.ActivePollInterval = 1
	d := newTestDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	socket := filepath.Join(filepath.Dir(cfg.Paths.DataDir), "dubwatch.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if status.Scope != "test-scope" {
		t.Fatalf("scope = %q", status.Scope)
	}

	createResp, err := client.JobCreate(ipc.JobCreateRequest{
		SourceVideoID:   "vid-2",
		TargetLanguages: []string{"es", "fr"},
	})
	if err != nil {
		t.Fatalf("JobCreate failed: %v", err)
	}
	if createResp.Job.ID != "job-created" || createResp.Job.Status != "pending" {
		t.Fatalf("created job = %+v", createResp.Job)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		listResp, err := client.JobsList(nil, true)
		if err != nil {
			t.Fatalf("JobsList failed: %v", err)
		}
		if len(listResp.Jobs) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("active list never reached 2 jobs: %+v", listResp.Jobs)
		}
		time.Sleep(50 * time.Millisecond)
	}

	filtered, err := client.JobsList([]string{"waiting_approval"}, true)
	if err != nil {
		t.Fatalf("JobsList filter failed: %v", err)
	}
	if len(filtered.Jobs) != 1 || filtered.Jobs[0].ID != "job-1" {
		t.Fatalf("filtered jobs = %+v", filtered.Jobs)
	}

	describe, err := client.JobDescribe("job-1")
	if err != nil {
		t.Fatalf("JobDescribe failed: %v", err)
	}
	if !describe.RequiresReview {
		t.Fatal("requires_review not surfaced")
	}
	if describe.MatrixState != "review" {
		t.Fatalf("matrix state = %q", describe.MatrixState)
	}
	if len(describe.Stages) == 0 || len(describe.Localizations) == 0 {
		t.Fatalf("describe missing aggregates: %+v", describe)
	}

	previews, err := client.Previews("job-1")
	if err != nil {
		t.Fatalf("Previews failed: %v", err)
	}
	if len(previews.Previews) != 1 || previews.Previews[0].Language != "es" {
		t.Fatalf("previews = %+v", previews.Previews)
	}

	toggle, err := client.SelectionToggle("vid-1", "es")
	if err != nil {
		t.Fatalf("SelectionToggle failed: %v", err)
	}
	if !toggle.Staged || toggle.Count != 1 {
		t.Fatalf("toggle = %+v", toggle)
	}
	selectionList, err := client.SelectionList()
	if err != nil {
		t.Fatalf("SelectionList failed: %v", err)
	}
	if len(selectionList.Keys) != 1 {
		t.Fatalf("selection = %+v", selectionList.Keys)
	}

	publish, err := client.PublishSelection()
	if err != nil {
		t.Fatalf("PublishSelection failed: %v", err)
	}
	if publish.Published != 1 || publish.Batch != 1 {
		t.Fatalf("publish = %+v", publish)
	}
	// Publish consumed the batch.
	selectionList, err = client.SelectionList()
	if err != nil {
		t.Fatalf("SelectionList failed: %v", err)
	}
	if len(selectionList.Keys) != 0 {
		t.Fatalf("selection not consumed: %+v", selectionList.Keys)
	}

	if _, err := client.SelectionToggle("vid-2", "fr"); err != nil {
		t.Fatalf("SelectionToggle failed: %v", err)
	}
	cleared, err := client.SelectionClear()
	if err != nil {
		t.Fatalf("SelectionClear failed: %v", err)
	}
	if !cleared.Cleared {
		t.Fatal("clear not acknowledged")
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp.Sent {
		t.Fatal("notification sent without a configured topic")
	}
	if notifyResp.Message == "" {
		t.Fatal("expected a message explaining the noop")
	}

	d.Stop()
	status, err = client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}
