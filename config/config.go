// Package config provides YAML configuration parsing for healthboard.
//
// This package enables running healthboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Service Health Dashboard
//	port: 8080
//	poll_interval: 30s
//
//	log:
//	  level: info
//	  format: json
//
//	endpoints:
//	  - id: core
//	    name: Core API
//	    url: https://${CORE_HOST:-core.example.com}/health
//	    timeout: 5s
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/healthboard/internal/registry"
)

const (
	// DefaultPort is used when the file does not set port.
	DefaultPort = 8080

	// DefaultPollInterval is used when the file does not set poll_interval.
	DefaultPollInterval = 30 * time.Second

	// DefaultTimeout is applied to endpoints without a timeout.
	DefaultTimeout = 10 * time.Second
)

// minPollInterval is the minimum allowed polling interval for production configs.
// This prevents accidental DoS of endpoints with overly aggressive polling.
const minPollInterval = 1 * time.Second

// Config is the root configuration structure for healthboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Empty uses the built-in title.
	Title string `yaml:"title" json:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port" json:"port"`

	// PollInterval is the time between polling cycles.
	// Accepts duration strings like "10s", "1m", "500ms".
	PollInterval Duration `yaml:"poll_interval" json:"poll_interval"`

	// SuccessKeywords replaces the keywords that mark a response healthy.
	SuccessKeywords []string `yaml:"success_keywords" json:"success_keywords"`

	// StatusCodes replaces the HTTP status codes accepted as healthy.
	StatusCodes []int `yaml:"status_codes" json:"status_codes"`

	// StaticDir serves the dashboard from a directory instead of the
	// embedded page.
	StaticDir string `yaml:"static_dir" json:"static_dir"`

	// Log configures the binary's logger.
	Log LogConfig `yaml:"log" json:"log"`

	// Endpoints are the monitored services, in display order.
	Endpoints []EndpointConfig `yaml:"endpoints" json:"endpoints"`
}

// LogConfig selects the logger built by the CLI.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" json:"level"`

	// Format is text or json.
	Format string `yaml:"format" json:"format"`

	// File sends logs to a rotating file instead of stderr.
	File string `yaml:"file" json:"file"`
}

// EndpointConfig defines a single health check endpoint.
type EndpointConfig struct {
	// ID is the unique key used in /api/{id}.
	ID string `yaml:"id" json:"id"`

	// Name is the display name shown in the dashboard. Defaults to the id.
	Name string `yaml:"name" json:"name"`

	// URL is the health check endpoint URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url" json:"url"`

	// Timeout is the request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String formats the duration like time.Duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in endpoint URLs, static_dir and
// log.file. Defaults are applied for port, poll_interval and endpoint
// timeouts.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}
	for i := range c.Endpoints {
		if c.Endpoints[i].Timeout == 0 {
			c.Endpoints[i].Timeout = Duration(DefaultTimeout)
		}
	}
}

func (c *Config) expand() error {
	for i := range c.Endpoints {
		ep := &c.Endpoints[i]
		expanded, err := expandEnvVars(ep.URL)
		if err != nil {
			return fmt.Errorf("endpoints[%d] (%s): url: %w", i, ep.ID, err)
		}
		ep.URL = expanded
	}

	var err error
	if c.StaticDir, err = expandEnvVars(c.StaticDir); err != nil {
		return fmt.Errorf("static_dir: %w", err)
	}
	if c.Log.File, err = expandEnvVars(c.Log.File); err != nil {
		return fmt.Errorf("log.file: %w", err)
	}
	return nil
}

// Validate checks the whole configuration. Endpoint errors are keyed by
// their position in the endpoints list.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port,
			validation.Min(1).Error("port must be between 1 and 65535"),
			validation.Max(65535).Error("port must be between 1 and 65535"),
		),
		validation.Field(&c.PollInterval,
			validation.Min(Duration(minPollInterval)).Error(fmt.Sprintf("poll_interval must be at least %s", minPollInterval)),
		),
		validation.Field(&c.SuccessKeywords,
			validation.Each(validation.Required.Error("keywords cannot be blank")),
		),
		validation.Field(&c.StatusCodes,
			validation.Each(
				validation.Min(100).Error("status code must be between 100 and 599"),
				validation.Max(599).Error("status code must be between 100 and 599"),
			),
		),
		validation.Field(&c.Log),
		validation.Field(&c.Endpoints,
			validation.Required.Error("at least one endpoint must be defined"),
			validation.By(uniqueIDs),
		),
	)
}

// Validate checks the log level and format names.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "warning", "error").
			Error("level must be debug, info, warn or error")),
		validation.Field(&l.Format, validation.In("text", "json").
			Error("format must be text or json")),
	)
}

// Validate checks one endpoint with the same rules the registry enforces.
func (e EndpointConfig) Validate() error {
	if e.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	return registry.Endpoint{
		ID:          e.ID,
		DisplayName: e.Name,
		URL:         e.URL,
		Timeout:     e.Timeout.Duration(),
	}.Validate()
}

func uniqueIDs(value interface{}) error {
	endpoints, _ := value.([]EndpointConfig)
	seen := make(map[string]struct{}, len(endpoints))
	for _, ep := range endpoints {
		if ep.ID == "" {
			continue
		}
		if _, dup := seen[ep.ID]; dup {
			return validation.NewError("validation_duplicate_id", fmt.Sprintf("duplicate endpoint id %q", ep.ID))
		}
		seen[ep.ID] = struct{}{}
	}
	return nil
}
