// Package registry holds the static set of monitored endpoints.
//
// A [Registry] is built once at start-up from configuration and never
// changes afterwards: adding or removing an endpoint requires a restart.
// Construction fails fast on any invalid entry so that the scheduler can
// never run against a partial registry.
package registry

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// idPattern restricts ids to values usable as a single URL path segment,
// since the proxy serves each endpoint at /api/{id}.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Endpoint is the static configuration of one monitored service.
type Endpoint struct {
	// ID is the unique key of the endpoint.
	ID string

	// DisplayName is the human-readable label shown on the dashboard.
	DisplayName string

	// URL is the health-check address polled for this endpoint.
	URL string

	// Timeout bounds every probe against this endpoint.
	Timeout time.Duration
}

// Validate checks a single endpoint in isolation.
func (e Endpoint) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID,
			validation.Required.Error("id is required"),
			validation.Match(idPattern).Error("id may only contain letters, digits, '-' and '_'"),
		),
		validation.Field(&e.URL,
			validation.Required.Error("url is required"),
			is.URL,
			validation.By(httpScheme),
		),
		validation.Field(&e.Timeout,
			validation.Required.Error("timeout must be positive"),
			validation.Min(time.Duration(1)).Error("timeout must be positive"),
		),
	)
}

// httpScheme rejects URLs that are not absolute http(s) addresses.
func httpScheme(value interface{}) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}
	if u.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	return nil
}

// Registry is an ordered, immutable collection of endpoints.
type Registry struct {
	endpoints []Endpoint
	index     map[string]int
}

// New validates the endpoints and returns a [Registry] preserving their order.
//
// Blank display names default to the endpoint id. An empty list, an invalid
// entry or a duplicate id is a configuration error.
func New(endpoints []Endpoint) (*Registry, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("at least one endpoint is required")
	}

	r := &Registry{
		endpoints: make([]Endpoint, 0, len(endpoints)),
		index:     make(map[string]int, len(endpoints)),
	}

	for i, ep := range endpoints {
		if err := ep.Validate(); err != nil {
			return nil, fmt.Errorf("endpoints[%d] (%s): %w", i, ep.ID, err)
		}
		if _, dup := r.index[ep.ID]; dup {
			return nil, fmt.Errorf("endpoints[%d]: duplicate endpoint id %q", i, ep.ID)
		}
		if ep.DisplayName == "" {
			ep.DisplayName = ep.ID
		}
		r.index[ep.ID] = len(r.endpoints)
		r.endpoints = append(r.endpoints, ep)
	}

	return r, nil
}

// All returns the endpoints in configured order.
// The returned slice is a copy.
func (r *Registry) All() []Endpoint {
	cp := make([]Endpoint, len(r.endpoints))
	copy(cp, r.endpoints)
	return cp
}

// Lookup returns the endpoint with the given id.
func (r *Registry) Lookup(id string) (Endpoint, bool) {
	i, ok := r.index[id]
	if !ok {
		return Endpoint{}, false
	}
	return r.endpoints[i], true
}

// Len returns the number of configured endpoints.
func (r *Registry) Len() int {
	return len(r.endpoints)
}
