package selection_test

import (
	"testing"

	"dubwatch/internal/logging"
	"dubwatch/internal/selection"
)

func TestToggleFlipsMembership(t *testing.T) {
	c := selection.NewCoordinator(logging.NewNop())
	key := selection.Key{VideoID: "vid-1", Language: "es"}

	if !c.Toggle(key) {
		t.Fatal("first toggle should stage")
	}
	if !c.Contains(key) {
		t.Fatal("key missing after staging")
	}
	if c.Toggle(key) {
		t.Fatal("second toggle should unstage")
	}
	if c.Contains(key) {
		t.Fatal("key present after unstaging")
	}
	if !c.Toggle(key) {
		t.Fatal("third toggle should stage again")
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
}

func TestKeysAreVideoLanguagePairs(t *testing.T) {
	c := selection.NewCoordinator(logging.NewNop())
	c.Toggle(selection.Key{VideoID: "vid-1", Language: "es"})
	c.Toggle(selection.Key{VideoID: "vid-1", Language: "fr"})

	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2 distinct languages for one video", c.Len())
	}
	c.Toggle(selection.Key{VideoID: "vid-1", Language: "fr"})
	if !c.Contains(selection.Key{VideoID: "vid-1", Language: "es"}) {
		t.Fatal("unstaging fr must not touch es")
	}
}

func TestToggleRejectsEmptyFields(t *testing.T) {
	c := selection.NewCoordinator(logging.NewNop())
	if c.Toggle(selection.Key{VideoID: "vid-1"}) {
		t.Fatal("missing language accepted")
	}
	if c.Toggle(selection.Key{Language: "es"}) {
		t.Fatal("missing video accepted")
	}
	if c.Len() != 0 {
		t.Fatal("empty keys staged")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	c := selection.NewCoordinator(logging.NewNop())
	c.Toggle(selection.Key{VideoID: "vid-2", Language: "es"})
	c.Toggle(selection.Key{VideoID: "vid-1", Language: "fr"})

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d", len(snap))
	}
	if snap[0].VideoID != "vid-1" {
		t.Fatalf("snapshot not sorted: %+v", snap)
	}

	c.Toggle(selection.Key{VideoID: "vid-3", Language: "de"})
	if len(snap) != 2 {
		t.Fatal("snapshot mutated by later toggle")
	}
}

func TestTakeClearsAtomically(t *testing.T) {
	c := selection.NewCoordinator(logging.NewNop())
	c.Toggle(selection.Key{VideoID: "vid-1", Language: "es"})
	c.Toggle(selection.Key{VideoID: "vid-2", Language: "fr"})

	batch := c.Take()
	if len(batch) != 2 {
		t.Fatalf("batch len = %d", len(batch))
	}
	if c.Len() != 0 {
		t.Fatal("staged set not cleared by Take")
	}

	c.Toggle(selection.Key{VideoID: "vid-3", Language: "de"})
	if len(batch) != 2 {
		t.Fatal("taken batch mutated by later toggle")
	}
}

func TestClearAndVersion(t *testing.T) {
	c := selection.NewCoordinator(logging.NewNop())
	before := c.Version()
	c.Clear() // empty clear is a no-op
	if c.Version() != before {
		t.Fatal("no-op clear bumped version")
	}

	c.Toggle(selection.Key{VideoID: "vid-1", Language: "es"})
	c.Clear()
	if c.Len() != 0 {
		t.Fatal("clear left staged entries")
	}
	if c.Version() == before {
		t.Fatal("mutations did not bump version")
	}
}
