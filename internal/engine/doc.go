// Package engine is the HTTP client for the remote localization engine.
// The engine owns all job processing; dubwatch only creates jobs, observes
// their reported state, and submits approvals. The client is constructed
// once at startup and injected into every component that talks to the
// engine.
package engine
