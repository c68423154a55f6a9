package poller

import "time"

// Outcome is the classification of a single probe.
type Outcome string

const (
	// OutcomeHealthy means the response passed classification.
	OutcomeHealthy Outcome = "healthy"
	// OutcomeUnhealthy means a response arrived but failed classification.
	OutcomeUnhealthy Outcome = "unhealthy"
	// OutcomeTransportError means no HTTP response was received
	// (DNS, refused, reset, TLS).
	OutcomeTransportError Outcome = "transport_error"
	// OutcomeTimeout means the probe exceeded its endpoint timeout.
	OutcomeTimeout Outcome = "timeout"
)

// IsHealthy reports whether o is [OutcomeHealthy].
func (o Outcome) IsHealthy() bool {
	return o == OutcomeHealthy
}

// Result holds the outcome of probing a single endpoint once.
//
// Every probe yields exactly one Result, whether it succeeded or not:
// failures are outcomes, never omissions. A Result is not modified after
// the cycle that produced it publishes it.
type Result struct {
	// EndpointID is the registry id of the probed endpoint.
	EndpointID string

	// DisplayName is the endpoint's human-readable label.
	DisplayName string

	// URL is the address that was probed.
	URL string

	// Outcome is the classification of this probe.
	Outcome Outcome

	// Body is the serialized response document. For transport errors it
	// carries the error message; for timeouts it is nil.
	Body []byte

	// StatusCode is the HTTP status, or zero when no response was received.
	StatusCode int

	// Latency is measured from dispatch to terminal outcome on every path.
	Latency time.Duration

	// ObservedAt is when the probe reached its terminal outcome.
	ObservedAt time.Time

	// Err is the underlying failure for timeouts and transport errors.
	Err error
}

// LatencyMillis returns Latency in whole milliseconds, never negative.
func (r Result) LatencyMillis() int64 {
	ms := r.Latency.Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
