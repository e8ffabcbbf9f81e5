// Package watch composes the polling primitives into the daemon's core:
// one active-set refresh loop per scope, one subscription per active job,
// snapshot persistence, and lifecycle notifications.
package watch
