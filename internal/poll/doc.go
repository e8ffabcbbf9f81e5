// Package poll contains the subscription primitives that keep the local
// view of engine state live: a per-job poller with exactly-once terminal
// callbacks, and a scope-wide active set refreshed on its own interval.
package poll
