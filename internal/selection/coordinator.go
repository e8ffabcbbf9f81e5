// Package selection tracks the cross-job set of localizations staged for a
// bulk publish. Keys are (video, language) pairs, so one video's Spanish
// dub can be staged while its French dub is not.
package selection

import (
	"log/slog"
	"sort"
	"sync"

	"dubwatch/internal/logging"
)

// Key identifies a single localization independent of any job.
type Key struct {
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
}

// Coordinator is the staging area for bulk publish. All methods are safe
// for concurrent use.
type Coordinator struct {
	logger *slog.Logger

	mu      sync.Mutex
	staged  map[Key]struct{}
	version uint64
}

// NewCoordinator returns an empty staging area.
func NewCoordinator(logger *slog.Logger) *Coordinator {
	return &Coordinator{
		logger: logging.NewComponentLogger(logger, "selection"),
		staged: make(map[Key]struct{}),
	}
}

// Toggle flips membership for one localization and reports whether it is
// staged afterwards. Toggling twice restores the prior state, so repeated
// clicks on the same row never corrupt the set.
func (c *Coordinator) Toggle(key Key) bool {
	if key.VideoID == "" || key.Language == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.staged[key]; ok {
		delete(c.staged, key)
		c.version++
		return false
	}
	c.staged[key] = struct{}{}
	c.version++
	return true
}

// Contains reports whether a localization is currently staged.
func (c *Coordinator) Contains(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.staged[key]
	return ok
}

// Snapshot returns the staged set as a sorted copy. Mutations after the
// call do not affect the returned slice; a publish operates on exactly
// what was staged at the moment it was invoked.
func (c *Coordinator) Snapshot() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Key, 0, len(c.staged))
	for key := range c.staged {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VideoID != out[j].VideoID {
			return out[i].VideoID < out[j].VideoID
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// Take atomically snapshots and clears the staged set in one step. Used
// when a publish begins so toggles racing the publish land in the next
// batch instead of mutating the in-flight one.
func (c *Coordinator) Take() []Key {
	c.mu.Lock()
	staged := c.staged
	c.staged = make(map[Key]struct{})
	c.version++
	c.mu.Unlock()

	out := make([]Key, 0, len(staged))
	for key := range staged {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VideoID != out[j].VideoID {
			return out[i].VideoID < out[j].VideoID
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// Clear drops everything staged.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.staged) == 0 {
		return
	}
	c.staged = make(map[Key]struct{})
	c.version++
}

// Len returns the number of staged localizations.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.staged)
}

// Version increments on every mutation. Callers polling for display can
// skip re-rendering when it has not moved.
func (c *Coordinator) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}
