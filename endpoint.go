package healthboard

import (
	"fmt"
	"time"

	"github.com/jpalmerr/healthboard/internal/registry"
)

const defaultEndpointTimeout = 10 * time.Second

// Endpoint is a health-check URL to monitor.
//
// Endpoint is immutable after creation via [NewEndpoint]. Its id is the key
// used by the proxy route /api/{id} and must be unique within a [Board].
type Endpoint struct {
	id      string
	name    string
	url     string
	timeout time.Duration
}

// ID returns the endpoint's unique id.
func (e Endpoint) ID() string {
	return e.id
}

// Name returns the endpoint's display name.
// It defaults to the id when not set via [WithDisplayName].
func (e Endpoint) Name() string {
	return e.name
}

// URL returns the health-check address.
func (e Endpoint) URL() string {
	return e.url
}

// Timeout returns the probe timeout.
// Defaults to 10 seconds if not explicitly set via [WithTimeout].
func (e Endpoint) Timeout() time.Duration {
	return e.timeout
}

// NewEndpoint creates an [Endpoint] with the given id, URL, and options.
//
// The id may contain letters, digits, '-' and '_' only, since it becomes a
// URL path segment. The rawURL must be an absolute http or https URL.
//
// Example:
//
//	ep, err := healthboard.NewEndpoint("core-api", "https://api.example.com/health",
//	    healthboard.WithDisplayName("Core API"),
//	    healthboard.WithTimeout(5 * time.Second),
//	)
func NewEndpoint(id, rawURL string, opts ...EndpointOption) (Endpoint, error) {
	cfg := &endpointConfig{
		timeout: defaultEndpointTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Endpoint{}, err
		}
	}

	name := cfg.name
	if name == "" {
		name = id
	}

	ep := Endpoint{
		id:      id,
		name:    name,
		url:     rawURL,
		timeout: cfg.timeout,
	}
	if err := ep.toRegistry().Validate(); err != nil {
		return Endpoint{}, fmt.Errorf("endpoint %q: %w", id, err)
	}
	return ep, nil
}

func (e Endpoint) toRegistry() registry.Endpoint {
	return registry.Endpoint{
		ID:          e.id,
		DisplayName: e.name,
		URL:         e.url,
		Timeout:     e.timeout,
	}
}
