package store

import "time"

// EndpointStatus is the storage representation of one probe result.
//
// It is the JSON shape served by the REST API, SSE and WebSocket streams,
// decoupled from the poller's internal types.
type EndpointStatus struct {
	// ID is the registry id, also the proxy path segment (/api/{id}).
	ID string `json:"id"`

	// Name is the endpoint's display name.
	Name string `json:"name"`

	// URL is the target URL that was probed.
	URL string `json:"url"`

	// Outcome is one of healthy, unhealthy, transport_error or timeout.
	Outcome string `json:"outcome"`

	// Healthy is true only for the healthy outcome.
	Healthy bool `json:"healthy"`

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int `json:"status_code"`

	// ResponseTimeMs is the probe latency in milliseconds.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// CheckedAt is when the probe finished.
	CheckedAt time.Time `json:"checked_at"`

	// Body is the serialized response document, or the error text for
	// transport errors.
	Body string `json:"body"`

	// Error contains the failure message for timeouts and transport errors.
	Error *string `json:"error"`
}

// Banner is the aggregate status headline for one cycle.
type Banner struct {
	// Level is success, warning or error.
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Snapshot is the stored view of one completed cycle.
type Snapshot struct {
	Sequence     uint64           `json:"sequence"`
	Trigger      string           `json:"trigger"`
	State        string           `json:"state"`
	HealthyCount int              `json:"healthy_count"`
	TotalCount   int              `json:"total_count"`
	Banner       Banner           `json:"banner"`
	LastChecked  time.Time        `json:"last_checked"`
	Endpoints    []EndpointStatus `json:"endpoints"`
}

// Store defines the interface for storing and subscribing to cycle snapshots.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows real-time updates to be pushed to connected clients
// (e.g., via Server-Sent Events or WebSockets).
type Store interface {
	// Update replaces the latest snapshot and notifies all subscribers.
	// Snapshots older than the stored one are rejected and Update returns false.
	Update(snapshot Snapshot) bool

	// Latest returns the most recent snapshot, if any cycle has completed.
	Latest() (Snapshot, bool)

	// Subscribe returns a channel that receives snapshots.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Snapshot

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Snapshot)
}
