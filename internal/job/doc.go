// Package job defines the status vocabulary for localization jobs and the
// pure aggregation rules that fold many per-language, per-stage statuses
// into the single actionable views the CLI renders.
package job
