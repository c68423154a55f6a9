package healthboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/healthboard/dashboard"
	"github.com/jpalmerr/healthboard/internal/panels"
	"github.com/jpalmerr/healthboard/internal/poller"
	"github.com/jpalmerr/healthboard/internal/proxy"
	"github.com/jpalmerr/healthboard/internal/registry"
	"github.com/jpalmerr/healthboard/internal/server"
	"github.com/jpalmerr/healthboard/internal/store"
)

const (
	defaultPollingInterval = poller.DefaultInterval
	defaultPort            = 8080
)

// Errors returned by the lifecycle methods of [Board].
var (
	// ErrNotRunning is returned by [Board.TriggerNow] while polling is not
	// running (before Start, while paused, after shutdown).
	ErrNotRunning = poller.ErrNotRunning

	// ErrStopped is returned by lifecycle calls after shutdown.
	ErrStopped = poller.ErrStopped
)

// Board polls health endpoints and serves the status dashboard.
//
// Board is created with [New] and run with [Board.Start]. A Board runs once:
// after Start returns it cannot be started again.
//
//	board, err := healthboard.New(healthboard.WithEndpoint(ep))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	board.Start(ctx) // blocks until ctx is cancelled
type Board struct {
	endpoints       []Endpoint
	pollingInterval time.Duration
	port            int
	logger          *slog.Logger
	reportCallbacks []func(CycleReport)

	// probes and the proxy use separate pools so proxy traffic never
	// competes with a cycle for connections
	client      *poller.Client
	proxyClient *poller.Client
	store       *store.MemoryStore
	scheduler   *poller.Scheduler
	server      *server.Server

	mu     sync.Mutex
	latest *poller.Report
}

// New creates a [Board] with the given options.
//
// At least one endpoint is required and endpoint ids must be unique.
// Defaults:
//   - Polling interval: 30 seconds
//   - Port: 8080
//   - Success keywords: ON, PASS, ok, healthy, success
//   - Accepted status codes: 200, 201, 202, 204
//
// Example:
//
//	board, err := healthboard.New(
//	    healthboard.WithEndpoints(core, search),
//	    healthboard.WithPollingInterval(time.Minute),
//	    healthboard.WithPort(9090),
//	)
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		pollingInterval: defaultPollingInterval,
		port:            defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.endpoints) == 0 {
		return nil, errors.New("at least one endpoint is required")
	}

	entries := make([]registry.Endpoint, len(cfg.endpoints))
	for i, ep := range cfg.endpoints {
		entries[i] = ep.toRegistry()
	}
	reg, err := registry.New(entries)
	if err != nil {
		return nil, err
	}

	catalog, err := panels.Load()
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	static := cfg.static
	if static == nil {
		static = dashboard.Static()
	}

	b := &Board{
		endpoints:       cfg.endpoints,
		pollingInterval: cfg.pollingInterval,
		port:            cfg.port,
		logger:          logger,
		reportCallbacks: cfg.reportCallbacks,
		client:          poller.NewClient(),
		proxyClient:     poller.NewClient(),
		store:           store.NewMemoryStore(),
	}

	prober := poller.NewProber(b.client, poller.NewClassifier(cfg.keywords, cfg.statusCodes))
	b.scheduler = poller.NewScheduler(reg, cfg.pollingInterval, prober, poller.SinkFunc(b.publish), logger)
	b.server = server.NewServer(server.Config{
		Store:      b.store,
		Controller: b.scheduler,
		Proxy:      proxy.NewHandler(reg, b.proxyClient, logger),
		Panels:     catalog,
		Port:       cfg.port,
		Static:     static,
		Title:      cfg.title,
	}, logger)

	return b, nil
}

// Start begins polling endpoints and serving the dashboard.
//
// Start blocks until ctx is cancelled. The port is bound before polling
// begins, so a port conflict returns an error without probing anything.
// On cancellation the scheduler stops after its in-flight cycle and the HTTP
// server shuts down gracefully.
//
// Returns nil on graceful shutdown.
func (b *Board) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	defer b.client.Close()
	defer b.proxyClient.Close()

	if err := b.server.Listen(); err != nil {
		b.scheduler.Stop()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	b.logger.Info("healthboard starting",
		"endpoint_count", len(b.endpoints),
		"interval", b.pollingInterval.String(),
		"url", fmt.Sprintf("http://%s", b.server.Addr()),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.server.Serve(gctx)
	})

	if err := b.scheduler.Start(gctx); err != nil {
		cancel()
		_ = g.Wait()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	g.Go(func() error {
		<-gctx.Done()
		b.scheduler.Stop()
		return nil
	})

	err := g.Wait()
	b.logger.Info("healthboard stopped")
	return err
}

// TriggerNow runs one polling cycle immediately and returns its report.
// It returns [ErrNotRunning] unless the board is started and not paused.
func (b *Board) TriggerNow(ctx context.Context) (CycleReport, error) {
	report, err := b.scheduler.TriggerNow(ctx)
	if err != nil {
		return CycleReport{}, err
	}
	return toCycleReport(report), nil
}

// Pause stops timer-driven polling until [Board.Resume].
func (b *Board) Pause() error {
	return b.scheduler.Pause()
}

// Resume runs a cycle immediately and restarts timer-driven polling.
func (b *Board) Resume() error {
	return b.scheduler.Resume()
}

// Latest returns the report of the most recent cycle, if any completed.
func (b *Board) Latest() (CycleReport, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.latest == nil {
		return CycleReport{}, false
	}
	return toCycleReport(*b.latest), true
}

// Endpoints returns a copy of the configured endpoints.
func (b *Board) Endpoints() []Endpoint {
	cp := make([]Endpoint, len(b.endpoints))
	copy(cp, b.endpoints)
	return cp
}

// Port returns the configured HTTP port.
func (b *Board) Port() int {
	return b.port
}

// Addr returns the address the dashboard is listening on, or nil before
// [Board.Start] has bound the port.
func (b *Board) Addr() net.Addr {
	return b.server.Addr()
}

// PollingInterval returns the configured interval between polling cycles.
func (b *Board) PollingInterval() time.Duration {
	return b.pollingInterval
}

// publish is the scheduler sink: the store is updated first so callbacks
// observe a dashboard that already shows the report.
func (b *Board) publish(r poller.Report) {
	b.store.Publish(r)

	b.mu.Lock()
	b.latest = &r
	b.mu.Unlock()

	report := toCycleReport(r)

	for _, cb := range b.reportCallbacks {
		invokeCallbackSafe(cb, report, b.logger)
	}

	attrs := []any{
		"sequence", r.Sequence,
		"trigger", string(r.Trigger),
		"state", string(r.State),
		"healthy", r.HealthyCount,
		"total", r.TotalCount,
	}
	if r.State == poller.Operational {
		b.logger.Debug("cycle completed", attrs...)
	} else {
		b.logger.Warn("cycle completed with failures", attrs...)
	}
}

// invokeCallbackSafe calls a report callback with panic recovery.
// Panics are logged with a correlation id and do not propagate.
func invokeCallbackSafe(cb func(CycleReport), report CycleReport, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("report callback panicked",
				"panic", r,
				"correlation_id", uuid.NewString(),
				"sequence", report.Sequence,
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(report)
}
