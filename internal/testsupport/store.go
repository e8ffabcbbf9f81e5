package testsupport

import (
	"context"
	"testing"
	"time"

	"dubwatch/internal/config"
	"dubwatch/internal/job"
	"dubwatch/internal/store"
)

// MustOpenStore opens a snapshot store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedSnapshot writes one snapshot into the store for tests.
func SeedSnapshot(t testing.TB, st *store.Store, scope string, j *job.Job) {
	t.Helper()

	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	if err := st.UpsertSnapshot(context.Background(), scope, j); err != nil {
		t.Fatalf("store.UpsertSnapshot: %v", err)
	}
}
