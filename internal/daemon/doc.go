// Package daemon owns the long-running process: the single-instance lock,
// the watch manager lifecycle, the selection staging area, and the
// operations the IPC service delegates to.
package daemon
