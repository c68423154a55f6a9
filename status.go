package healthboard

import (
	"time"

	"github.com/jpalmerr/healthboard/internal/poller"
)

// Outcome is the classification of a single probe.
//
// Unhealthy means the endpoint answered but the answer did not pass the
// status-code and keyword checks. TransportError and Timeout mean no usable
// answer arrived at all.
type Outcome string

const (
	// OutcomeHealthy indicates an accepted status code and a success keyword.
	OutcomeHealthy Outcome = "healthy"

	// OutcomeUnhealthy indicates a response that failed classification.
	OutcomeUnhealthy Outcome = "unhealthy"

	// OutcomeTransportError indicates the request failed before a response.
	OutcomeTransportError Outcome = "transport_error"

	// OutcomeTimeout indicates the endpoint timeout elapsed first.
	OutcomeTimeout Outcome = "timeout"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// IsHealthy reports whether o is [OutcomeHealthy].
func (o Outcome) IsHealthy() bool {
	return o == OutcomeHealthy
}

// OverallState summarizes one polling cycle.
type OverallState string

const (
	// StateOperational means every endpoint is healthy.
	StateOperational OverallState = "operational"

	// StateDegraded means some, but not all, endpoints are healthy.
	StateDegraded OverallState = "degraded"

	// StateOutage means no endpoint is healthy.
	StateOutage OverallState = "outage"
)

// Trigger records what started a cycle.
type Trigger string

const (
	TriggerInitial Trigger = "initial"
	TriggerTimer   Trigger = "timer"
	TriggerManual  Trigger = "manual"
	TriggerResume  Trigger = "resume"
)

// ProbeResult holds the outcome of probing one endpoint in one cycle.
//
// ProbeResult is a value: Body is a private copy and may be retained.
type ProbeResult struct {
	// EndpointID is the unique id of the probed endpoint.
	EndpointID string

	// DisplayName is the endpoint's dashboard label.
	DisplayName string

	// URL is the address that was probed.
	URL string

	Outcome Outcome

	// StatusCode is the HTTP status, or 0 when no response arrived.
	StatusCode int

	// Latency runs from dispatch to the terminal outcome.
	Latency time.Duration

	ObservedAt time.Time

	// Error is set for transport errors and timeouts.
	Error error

	// Body is the serialized response document. JSON responses are compacted;
	// other responses are wrapped as {"response": text}. For transport
	// errors it holds the error message, for timeouts it is nil.
	Body []byte
}

// CycleReport is the aggregate view of one completed polling cycle.
type CycleReport struct {
	// Sequence increases by one with every cycle.
	Sequence uint64

	Trigger Trigger
	State   OverallState

	HealthyCount int
	TotalCount   int
	CompletedAt  time.Time

	// Results holds one entry per endpoint, in configuration order.
	Results []ProbeResult
}

// toCycleReport converts a poller report to the public type.
// Bodies are copied so callers cannot alias scheduler memory.
func toCycleReport(r poller.Report) CycleReport {
	results := make([]ProbeResult, len(r.Results))
	for i, res := range r.Results {
		results[i] = ProbeResult{
			EndpointID:  res.EndpointID,
			DisplayName: res.DisplayName,
			URL:         res.URL,
			Outcome:     Outcome(res.Outcome),
			StatusCode:  res.StatusCode,
			Latency:     res.Latency,
			ObservedAt:  res.ObservedAt,
			Error:       res.Err,
			Body:        copyBytes(res.Body),
		}
	}

	return CycleReport{
		Sequence:     r.Sequence,
		Trigger:      Trigger(r.Trigger),
		State:        OverallState(r.State),
		HealthyCount: r.HealthyCount,
		TotalCount:   r.TotalCount,
		CompletedAt:  r.CompletedAt,
		Results:      results,
	}
}

// copyBytes returns a copy of the byte slice, or nil if input is nil.
func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
