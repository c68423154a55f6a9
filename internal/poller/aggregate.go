package poller

import "time"

// OverallState is the system-wide classification of one cycle.
type OverallState string

const (
	// Operational means every endpoint is healthy.
	Operational OverallState = "operational"
	// Degraded means some, but not all, endpoints are healthy.
	Degraded OverallState = "degraded"
	// Outage means no endpoint is healthy.
	Outage OverallState = "outage"
)

// Trigger records what started a cycle.
type Trigger string

const (
	TriggerInitial Trigger = "initial"
	TriggerTimer   Trigger = "timer"
	TriggerManual  Trigger = "manual"
	TriggerResume  Trigger = "resume"
)

// Report is the aggregate of one polling cycle.
//
// Results keeps registry order regardless of probe completion order.
// TotalCount always equals len(Results) and HealthyCount the number of
// healthy results.
type Report struct {
	Sequence     uint64
	Trigger      Trigger
	Results      []Result
	State        OverallState
	HealthyCount int
	TotalCount   int
	CompletedAt  time.Time
}

// Aggregate computes the [Report] for a batch of results. It is pure: the
// results slice is retained but not modified.
func Aggregate(results []Result, completedAt time.Time) Report {
	healthy := 0
	for _, r := range results {
		if r.Outcome.IsHealthy() {
			healthy++
		}
	}

	return Report{
		Results:      results,
		State:        overallState(healthy, len(results)),
		HealthyCount: healthy,
		TotalCount:   len(results),
		CompletedAt:  completedAt,
	}
}

// overallState maps counts to a state. An empty batch is degraded: there is
// nothing to call operational, and nothing observed to be down.
func overallState(healthy, total int) OverallState {
	switch {
	case total > 0 && healthy == total:
		return Operational
	case total > 0 && healthy == 0:
		return Outage
	default:
		return Degraded
	}
}
