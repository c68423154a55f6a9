package healthboard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/healthboard/internal/poller"
)

// lockedBuffer is a bytes.Buffer safe for concurrent log writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWithReportCallback_ReceivesCorrectFields(t *testing.T) {
	ts := jsonServer(`{"status": "healthy", "version": 12.50}`)
	defer ts.Close()

	var rec reportRecorder
	b, err := New(
		WithEndpoint(mustEndpoint(t, "core", ts.URL, WithDisplayName("Core API"))),
		WithPort(0),
		WithLogger(testLogger()),
		WithPollingInterval(time.Hour),
		WithReportCallback(rec.record),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, b)
	defer func() { _ = stop() }()
	waitFor(t, "initial cycle", func() bool { return len(rec.snapshot()) == 1 })

	r := rec.snapshot()[0]
	if r.Sequence != 1 || r.State != StateOperational {
		t.Errorf("report = #%d %s, want #1 operational", r.Sequence, r.State)
	}
	if len(r.Results) != 1 {
		t.Fatalf("len(Results) = %d, want 1", len(r.Results))
	}

	res := r.Results[0]
	if res.EndpointID != "core" || res.DisplayName != "Core API" || res.URL != ts.URL {
		t.Errorf("identity = %q/%q/%q", res.EndpointID, res.DisplayName, res.URL)
	}
	if !res.Outcome.IsHealthy() || res.StatusCode != 200 || res.Error != nil {
		t.Errorf("outcome = %s status=%d err=%v", res.Outcome, res.StatusCode, res.Error)
	}
	// compacted, numbers preserved
	if got := string(res.Body); got != `{"status":"healthy","version":12.50}` {
		t.Errorf("Body = %s", got)
	}
	if res.ObservedAt.IsZero() || res.Latency < 0 {
		t.Errorf("ObservedAt = %v, Latency = %v", res.ObservedAt, res.Latency)
	}
}

func TestWithReportCallback_PanicRecovery(t *testing.T) {
	ts := jsonServer(`{"status":"ok"}`)
	defer ts.Close()

	var normalCalled atomic.Bool
	var logs lockedBuffer

	b, err := New(
		WithEndpoint(mustEndpoint(t, "core", ts.URL)),
		WithPort(0),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithPollingInterval(time.Hour),
		WithReportCallback(func(CycleReport) { panic("intentional test panic") }),
		WithReportCallback(func(CycleReport) { normalCalled.Store(true) }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, b)
	waitFor(t, "second callback", normalCalled.Load)
	if err := stop(); err != nil {
		t.Errorf("Start() error = %v, want nil", err)
	}

	if !strings.Contains(logs.String(), "report callback panicked") {
		t.Errorf("panic should have been logged, got: %s", logs.String())
	}
	if !strings.Contains(logs.String(), "correlation_id=") {
		t.Error("panic log should carry a correlation id")
	}
}

func TestWithReportCallback_ExecutionOrder(t *testing.T) {
	ts := jsonServer(`{"status":"ok"}`)
	defer ts.Close()

	var mu sync.Mutex
	var order []string
	add := func(name string) func(CycleReport) {
		return func(CycleReport) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		}
	}

	b, err := New(
		WithEndpoint(mustEndpoint(t, "core", ts.URL)),
		WithPort(0),
		WithLogger(testLogger()),
		WithPollingInterval(time.Hour),
		WithReportCallback(add("first")),
		WithReportCallback(add("second")),
		WithReportCallback(add("third")),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, b)
	defer func() { _ = stop() }()
	waitFor(t, "callbacks", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	if got := strings.Join(order, ","); got != "first,second,third" {
		t.Errorf("order = %s", got)
	}
}

func TestWithReportCallback_NoSharedReferences(t *testing.T) {
	ts := jsonServer(`{"status":"ok"}`)
	defer ts.Close()

	var seen atomic.Value
	b, err := New(
		WithEndpoint(mustEndpoint(t, "core", ts.URL)),
		WithPort(0),
		WithLogger(testLogger()),
		WithPollingInterval(time.Hour),
		WithReportCallback(func(r CycleReport) {
			for i := range r.Results[0].Body {
				r.Results[0].Body[i] = 'X'
			}
		}),
		WithReportCallback(func(r CycleReport) { seen.Store(string(r.Results[0].Body)) }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, b)
	defer func() { _ = stop() }()
	waitFor(t, "callbacks", func() bool { return seen.Load() != nil })

	// both callbacks share one converted report, but it never aliases the
	// board's own copy
	latest, ok := b.Latest()
	if !ok {
		t.Fatal("Latest() reported no cycle")
	}
	if got := string(latest.Results[0].Body); got != `{"status":"ok"}` {
		t.Errorf("Latest() body = %q, callback mutation leaked", got)
	}
}

func TestWithReportCallback_TransportError(t *testing.T) {
	var rec reportRecorder
	b, err := New(
		WithEndpoint(mustEndpoint(t, "gone", "http://127.0.0.1:1", WithTimeout(time.Second))),
		WithPort(0),
		WithLogger(testLogger()),
		WithPollingInterval(time.Hour),
		WithReportCallback(rec.record),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stop := runBoard(t, b)
	defer func() { _ = stop() }()
	waitFor(t, "initial cycle", func() bool { return len(rec.snapshot()) == 1 })

	r := rec.snapshot()[0]
	if r.State != StateOutage {
		t.Errorf("State = %s, want outage", r.State)
	}
	res := r.Results[0]
	if res.Outcome != OutcomeTransportError || res.StatusCode != 0 || res.Error == nil {
		t.Errorf("result = %s status=%d err=%v", res.Outcome, res.StatusCode, res.Error)
	}
	if string(res.Body) != res.Error.Error() {
		t.Errorf("Body = %q, want the error text", res.Body)
	}
}

func TestToCycleReport_CopiesBodies(t *testing.T) {
	body := []byte(`{"status":"ok"}`)
	report := poller.Report{
		Sequence: 4,
		Trigger:  poller.TriggerTimer,
		State:    poller.Outage,
		Results: []poller.Result{
			{EndpointID: "a", Outcome: poller.OutcomeTimeout, Err: context.DeadlineExceeded},
			{EndpointID: "b", Outcome: poller.OutcomeUnhealthy, Body: body, StatusCode: 500},
		},
		TotalCount: 2,
	}

	got := toCycleReport(report)

	if got.Sequence != 4 || got.Trigger != TriggerTimer || got.State != StateOutage {
		t.Errorf("header = %+v", got)
	}
	if got.Results[0].Body != nil || !errors.Is(got.Results[0].Error, context.DeadlineExceeded) {
		t.Errorf("timeout result = %+v", got.Results[0])
	}
	body[0] = 'X'
	if string(got.Results[1].Body) != `{"status":"ok"}` {
		t.Error("converted body should not alias the poller's")
	}
}
