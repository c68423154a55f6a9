package store

import (
	"fmt"

	"github.com/jpalmerr/healthboard/internal/poller"
)

// Banner levels, used as CSS classes by the dashboard.
const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// BannerFor returns the headline for an overall state.
func BannerFor(state poller.OverallState, healthy, total int) Banner {
	switch state {
	case poller.Operational:
		return Banner{
			Level:   LevelSuccess,
			Title:   "All Systems Operational",
			Message: "All services are running smoothly and responding normally",
		}
	case poller.Outage:
		return Banner{
			Level:   LevelError,
			Title:   "System Outage Detected",
			Message: "All services are currently unavailable. Please investigate immediately",
		}
	default:
		return Banner{
			Level:   LevelWarning,
			Title:   "Partial Service Disruption",
			Message: fmt.Sprintf("%d out of %d services operational. Some services may be experiencing issues", healthy, total),
		}
	}
}

// FromReport converts a cycle report into its stored form.
func FromReport(r poller.Report) Snapshot {
	endpoints := make([]EndpointStatus, len(r.Results))
	for i, res := range r.Results {
		endpoints[i] = fromResult(res)
	}

	return Snapshot{
		Sequence:     r.Sequence,
		Trigger:      string(r.Trigger),
		State:        string(r.State),
		HealthyCount: r.HealthyCount,
		TotalCount:   r.TotalCount,
		Banner:       BannerFor(r.State, r.HealthyCount, r.TotalCount),
		LastChecked:  r.CompletedAt,
		Endpoints:    endpoints,
	}
}

func fromResult(r poller.Result) EndpointStatus {
	var errMsg *string
	if r.Err != nil {
		s := r.Err.Error()
		errMsg = &s
	}

	return EndpointStatus{
		ID:             r.EndpointID,
		Name:           r.DisplayName,
		URL:            r.URL,
		Outcome:        string(r.Outcome),
		Healthy:        r.Outcome.IsHealthy(),
		StatusCode:     r.StatusCode,
		ResponseTimeMs: r.LatencyMillis(),
		CheckedAt:      r.ObservedAt,
		Body:           string(r.Body),
		Error:          errMsg,
	}
}
