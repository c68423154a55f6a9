package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/healthboard/internal/registry"
)

// DefaultInterval is the polling cadence when none is configured.
const DefaultInterval = 30 * time.Second

var (
	// ErrNotRunning is returned by [Scheduler.TriggerNow] outside the running state.
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrStopped is returned by lifecycle calls after [Scheduler.Stop].
	ErrStopped = errors.New("scheduler is stopped")

	// ErrInvalidTransition is returned for lifecycle calls the current state
	// does not allow, such as Pause before Start.
	ErrInvalidTransition = errors.New("invalid scheduler state transition")
)

// State is the lifecycle state of a [Scheduler].
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// Sink receives every completed cycle report.
//
// Publish is called from the scheduler's cycle goroutine, one report at a
// time. Implementations must not block for long and must not modify the
// report.
//
// Publish runs while the cycle still holds the in-flight guard, so a
// [Scheduler.TriggerNow] issued from inside Publish waits for a cycle that
// cannot finish until Publish returns. Such a call only returns once its
// context ends; use a context with a deadline or trigger from another
// goroutine.
type Sink interface {
	Publish(Report)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(Report)

// Publish calls f(r).
func (f SinkFunc) Publish(r Report) { f(r) }

// Scheduler runs polling cycles over a fixed set of endpoints.
//
// A cycle probes every endpoint concurrently, waits for all probes to reach
// an outcome, aggregates them and publishes the [Report] to the sink. Cycles
// never overlap: a manual trigger that arrives while a cycle is in flight
// waits for it to finish.
//
// Lifecycle: idle → running ⇄ paused → stopped. Pause and Stop only disarm
// the timer; a cycle already dispatched runs to completion. All methods are
// safe for concurrent use.
type Scheduler struct {
	endpoints []registry.Endpoint
	interval  time.Duration
	prober    *Prober
	sink      Sink
	logger    *slog.Logger

	mu    sync.Mutex
	state State
	// disarm is closed to stop the active timer loop; nil when no timer is armed.
	disarm chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup

	// inflight holds one token per running cycle; capacity 1 serializes cycles.
	inflight chan struct{}
	sequence uint64
}

// NewScheduler creates a [Scheduler] in the idle state.
//
// A non-positive interval uses [DefaultInterval]. A nil sink discards
// reports; a nil logger discards logs.
func NewScheduler(reg *registry.Registry, interval time.Duration, prober *Prober, sink Sink, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if sink == nil {
		sink = SinkFunc(func(Report) {})
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var endpoints []registry.Endpoint
	if reg != nil {
		endpoints = reg.All()
	}
	return &Scheduler{
		endpoints: endpoints,
		interval:  interval,
		prober:    prober,
		sink:      sink,
		logger:    logger,
		state:     StateIdle,
		done:      make(chan struct{}),
		inflight:  make(chan struct{}, 1),
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Interval returns the timer cadence.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start moves the scheduler from idle to running, runs one cycle
// immediately and then one per interval.
//
// Start returns once the loop is launched; it does not wait for the first
// cycle. Cancelling ctx stops the scheduler. Calling Start twice returns
// [ErrInvalidTransition]; calling it after Stop returns [ErrStopped].
func (s *Scheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle:
	case StateStopped:
		return ErrStopped
	default:
		return fmt.Errorf("start while %s: %w", s.state, ErrInvalidTransition)
	}

	s.state = StateRunning
	s.armLocked(TriggerInitial)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()

	s.logger.Info("scheduler started",
		"endpoint_count", len(s.endpoints),
		"interval", s.interval.String(),
	)
	return nil
}

// TriggerNow runs one extra cycle and returns its report. The timer
// schedule is not affected.
//
// TriggerNow only runs while the scheduler is running: while idle or paused
// it returns [ErrNotRunning] and no cycle executes. If a cycle is already in
// flight, TriggerNow waits for it; ctx bounds that wait only, probes
// themselves are bounded by their endpoint timeouts.
func (s *Scheduler) TriggerNow(ctx context.Context) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.state != StateRunning {
		state := s.state
		s.mu.Unlock()
		return Report{}, fmt.Errorf("trigger while %s: %w", state, ErrNotRunning)
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	select {
	case s.inflight <- struct{}{}:
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
	defer func() { <-s.inflight }()

	// the scheduler may have been paused or stopped while we waited
	if st := s.State(); st != StateRunning {
		return Report{}, fmt.Errorf("trigger while %s: %w", st, ErrNotRunning)
	}

	return s.runCycle(TriggerManual), nil
}

// Pause disarms the timer. No new cycle starts until [Scheduler.Resume].
// Pausing an already paused scheduler is a no-op.
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRunning:
	case StatePaused:
		return nil
	case StateStopped:
		return ErrStopped
	default:
		return fmt.Errorf("pause while %s: %w", s.state, ErrInvalidTransition)
	}

	s.disarmLocked()
	s.state = StatePaused
	s.logger.Info("scheduler paused")
	return nil
}

// Resume moves a paused scheduler back to running, runs one cycle
// immediately and re-arms the timer. Resuming a running scheduler is a
// no-op.
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StatePaused:
	case StateRunning:
		return nil
	case StateStopped:
		return ErrStopped
	default:
		return fmt.Errorf("resume while %s: %w", s.state, ErrInvalidTransition)
	}

	s.state = StateRunning
	s.armLocked(TriggerResume)
	s.logger.Info("scheduler resumed")
	return nil
}

// Stop disarms the timer, moves to the terminal stopped state and waits
// for in-flight cycles to finish.
//
// Stop is idempotent and safe to call from any state. A stopped scheduler
// cannot be restarted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateStopped {
		s.disarmLocked()
		s.state = StateStopped
		close(s.done)
		s.logger.Info("scheduler stopped")
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// armLocked starts a timer loop whose first cycle runs immediately.
// Callers hold s.mu.
func (s *Scheduler) armLocked(first Trigger) {
	disarm := make(chan struct{})
	s.disarm = disarm
	s.wg.Add(1)
	go s.loop(disarm, first)
}

// disarmLocked stops the active timer loop, if any. Callers hold s.mu.
func (s *Scheduler) disarmLocked() {
	if s.disarm != nil {
		close(s.disarm)
		s.disarm = nil
	}
}

func (s *Scheduler) loop(disarm chan struct{}, first Trigger) {
	defer s.wg.Done()

	s.cycleIfArmed(disarm, first)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-disarm:
			return
		case <-ticker.C:
			s.cycleIfArmed(disarm, TriggerTimer)
		}
	}
}

// cycleIfArmed runs a cycle unless the loop owning disarm was disarmed in
// the meantime.
func (s *Scheduler) cycleIfArmed(disarm chan struct{}, trigger Trigger) {
	select {
	case s.inflight <- struct{}{}:
	case <-disarm:
		return
	}
	defer func() { <-s.inflight }()

	s.mu.Lock()
	armed := s.state == StateRunning && s.disarm == disarm
	s.mu.Unlock()
	if !armed {
		return
	}

	s.runCycle(trigger)
}

// runCycle probes every endpoint concurrently and publishes the report.
// Callers hold the inflight token.
func (s *Scheduler) runCycle(trigger Trigger) Report {
	results := make([]Result, len(s.endpoints))

	var wg sync.WaitGroup
	for i, ep := range s.endpoints {
		wg.Add(1)
		go func(i int, ep registry.Endpoint) {
			defer wg.Done()
			// probes are not cancelled by pause or stop; ep.Timeout bounds them
			results[i] = s.prober.Probe(context.Background(), ep)
		}(i, ep)
	}
	wg.Wait()

	s.sequence++
	report := Aggregate(results, time.Now())
	report.Sequence = s.sequence
	report.Trigger = trigger

	s.logger.Debug("cycle completed",
		"sequence", report.Sequence,
		"trigger", string(trigger),
		"state", string(report.State),
		"healthy", report.HealthyCount,
		"total", report.TotalCount,
	)

	s.publish(report)
	return report
}

// publish hands the report to the sink with panic recovery.
// A panicking sink is logged with a correlation ID and does not stop the
// scheduler.
func (s *Scheduler) publish(report Report) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("sink panic",
				"correlation_id", correlationID,
				"sequence", report.Sequence,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.sink.Publish(report)
}
