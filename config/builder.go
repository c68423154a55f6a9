package config

import (
	"github.com/jpalmerr/healthboard"
	"github.com/jpalmerr/healthboard/internal/logging"
)

// BuildEndpoints converts parsed configuration into SDK Endpoint objects,
// preserving their order.
func BuildEndpoints(cfg *Config) ([]healthboard.Endpoint, error) {
	endpoints := make([]healthboard.Endpoint, 0, len(cfg.Endpoints))
	for _, ec := range cfg.Endpoints {
		ep, err := buildEndpoint(ec)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// buildEndpoint converts a single EndpointConfig to an SDK Endpoint.
func buildEndpoint(ec EndpointConfig) (healthboard.Endpoint, error) {
	var opts []healthboard.EndpointOption

	if ec.Name != "" {
		opts = append(opts, healthboard.WithDisplayName(ec.Name))
	}
	if ec.Timeout != 0 {
		opts = append(opts, healthboard.WithTimeout(ec.Timeout.Duration()))
	}

	return healthboard.NewEndpoint(ec.ID, ec.URL, opts...)
}

// BuildOptions converts the configuration into board options. The logger is
// left to the caller.
func BuildOptions(cfg *Config) ([]healthboard.Option, error) {
	endpoints, err := BuildEndpoints(cfg)
	if err != nil {
		return nil, err
	}

	opts := []healthboard.Option{
		healthboard.WithEndpoints(endpoints...),
		healthboard.WithPort(cfg.Port),
		healthboard.WithPollingInterval(cfg.PollInterval.Duration()),
	}
	if cfg.Title != "" {
		opts = append(opts, healthboard.WithTitle(cfg.Title))
	}
	if len(cfg.SuccessKeywords) > 0 {
		opts = append(opts, healthboard.WithSuccessKeywords(cfg.SuccessKeywords...))
	}
	if len(cfg.StatusCodes) > 0 {
		opts = append(opts, healthboard.WithStatusCodes(cfg.StatusCodes...))
	}
	if cfg.StaticDir != "" {
		opts = append(opts, healthboard.WithStaticDir(cfg.StaticDir))
	}
	return opts, nil
}

// LoggingOptions maps the log section onto [logging.Options].
func (l LogConfig) LoggingOptions() logging.Options {
	return logging.Options{
		Level:  l.Level,
		Format: l.Format,
		File:   l.File,
	}
}
