// Package logs reads the daemon log file in pages for the diagnostics
// surface. A Reader is bound to one path; Last answers "show me the tail"
// and From answers "what happened since offset X", the resume point each
// page carries.
package logs
