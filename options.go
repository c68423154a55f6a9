package healthboard

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title           string
	endpoints       []Endpoint
	pollingInterval time.Duration
	port            int
	logger          *slog.Logger
	keywords        []string
	statusCodes     []int
	reportCallbacks []func(CycleReport)
	static          fs.FS
}

// Option is a function that configures a [Board] during construction.
// Options return an error if validation fails.
type Option func(*boardConfig) error

// WithEndpoint adds a single [Endpoint] to the polling list.
//
// Can be called multiple times. Endpoints are polled and displayed in the
// order they were added.
func WithEndpoint(e Endpoint) Option {
	return func(cfg *boardConfig) error {
		cfg.endpoints = append(cfg.endpoints, e)
		return nil
	}
}

// WithEndpoints adds multiple [Endpoint] values to the polling list.
//
// Example:
//
//	board, err := healthboard.New(
//	    healthboard.WithEndpoints(core, search, billing),
//	)
func WithEndpoints(endpoints ...Endpoint) Option {
	return func(cfg *boardConfig) error {
		cfg.endpoints = append(cfg.endpoints, endpoints...)
		return nil
	}
}

// WithPollingInterval sets how often all endpoints are polled.
// Defaults to 30 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server. Port 0 picks any
// free port; see [Board.Addr]. Defaults to 8080 if not specified.
//
// Returns an error if the port is outside 0-65535.
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("port must be between 0 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithSuccessKeywords replaces the keywords whose presence in a response
// marks it healthy. Matching is a case-sensitive substring search over the
// serialized response document.
//
// Defaults to ON, PASS, ok, healthy and success. Returns an error if no
// non-blank keyword is given.
func WithSuccessKeywords(keywords ...string) Option {
	return func(cfg *boardConfig) error {
		kept := make([]string, 0, len(keywords))
		for _, k := range keywords {
			if strings.TrimSpace(k) != "" {
				kept = append(kept, k)
			}
		}
		if len(kept) == 0 {
			return errors.New("at least one non-blank success keyword is required")
		}
		cfg.keywords = kept
		return nil
	}
}

// WithStatusCodes replaces the HTTP status codes accepted as healthy.
// Defaults to 200, 201, 202 and 204.
//
// Returns an error if no code is given or a code is outside 100-599.
func WithStatusCodes(codes ...int) Option {
	return func(cfg *boardConfig) error {
		if len(codes) == 0 {
			return errors.New("at least one status code is required")
		}
		for _, c := range codes {
			if c < 100 || c > 599 {
				return fmt.Errorf("invalid HTTP status code %d", c)
			}
		}
		cfg.statusCodes = append([]int(nil), codes...)
		return nil
	}
}

// WithReportCallback registers a function to be called after every cycle.
//
// The callback receives a [CycleReport] holding every endpoint's result and
// the overall state. It runs after the dashboard has been updated.
//
// Multiple callbacks may be registered; they execute in registration order
// on the cycle goroutine, so they must be non-blocking. Panics are recovered
// and logged. Nil callbacks are silently ignored.
//
// A callback runs before its cycle releases the in-flight guard. Calling
// [Board.TriggerNow] from the callback therefore blocks until the context
// passed to it ends. Give it a deadline, or trigger from a separate goroutine.
//
// Example:
//
//	board, err := healthboard.New(
//	    healthboard.WithEndpoint(api),
//	    healthboard.WithReportCallback(func(r healthboard.CycleReport) {
//	        if r.State == healthboard.StateOutage {
//	            log.Printf("outage: 0/%d healthy", r.TotalCount)
//	        }
//	    }),
//	)
func WithReportCallback(cb func(CycleReport)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.reportCallbacks = append(cfg.reportCallbacks, cb)
		return nil
	}
}

// WithStaticDir serves dashboard files from dir instead of the embedded
// page. The directory must contain index.html.
//
// Returns an error if dir is not a directory.
func WithStaticDir(dir string) Option {
	return func(cfg *boardConfig) error {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("static dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("static dir %q is not a directory", dir)
		}
		cfg.static = os.DirFS(dir)
		return nil
	}
}
