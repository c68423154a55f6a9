// Package poller is the health polling and aggregation engine.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and size limits
//   - [Prober]: one bounded health check per call, classified into an [Outcome]
//   - [Classifier]: status-code plus keyword heuristic deciding health
//   - [Aggregate]: pure reduction of a cycle's results into a [Report]
//   - [Scheduler]: runs cycles on a timer with pause, resume and manual triggers
//
// A probe never reports failure as an error. Timeouts and transport
// failures are outcomes on the [Result], so one bad endpoint cannot abort a
// cycle or stop the timer.
//
// Users of the healthboard library should not need to interact with this
// package directly. Configuration is done through the root package.
package poller
