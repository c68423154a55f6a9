package healthboard

import (
	"errors"
	"strings"
	"time"
)

// endpointConfig holds mutable state during endpoint construction.
type endpointConfig struct {
	name    string
	timeout time.Duration
}

// EndpointOption configures an [Endpoint] during construction.
//
// Built-in options: [WithDisplayName], [WithTimeout].
type EndpointOption func(*endpointConfig) error

// WithDisplayName sets the label shown on the dashboard.
//
// Returns an error if the name is blank.
func WithDisplayName(name string) EndpointOption {
	return func(cfg *endpointConfig) error {
		if strings.TrimSpace(name) == "" {
			return errors.New("display name cannot be blank")
		}
		cfg.name = name
		return nil
	}
}

// WithTimeout sets how long a probe may take before it is classified as a
// timeout. Defaults to 10 seconds.
//
// Example:
//
//	ep, err := healthboard.NewEndpoint("search", "https://search.example.com/health",
//	    healthboard.WithTimeout(2 * time.Second),
//	)
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) EndpointOption {
	return func(cfg *endpointConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}
