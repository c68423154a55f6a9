// Package healthboard provides an embeddable status dashboard that polls a
// fixed set of HTTP health-check endpoints and reports overall system health.
//
// # Quick Start
//
//	ep, _ := healthboard.NewEndpoint("api", "https://api.example.com/health")
//	board, _ := healthboard.New(healthboard.WithEndpoint(ep))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	board.Start(ctx) // blocks until ctx is cancelled
//
// # Classification
//
// Every endpoint is probed with a GET bounded by its timeout. A probe is
// healthy when the status code is accepted (200, 201, 202 or 204 by default)
// and the serialized response contains one of the success keywords (ON, PASS,
// ok, healthy or success by default). JSON responses are compacted before
// matching; anything else is wrapped as {"response": text}. Timeouts and
// transport failures are outcomes of their own, never errors.
//
// One polling cycle probes all endpoints concurrently and aggregates them into
// an [OverallState]: operational when all are healthy, outage when none is,
// degraded otherwise.
//
// # Lifecycle
//
// Polling starts with an immediate cycle and repeats at the polling interval.
// [Board.Pause] stops the timer, [Board.Resume] runs a cycle at once and
// restarts it, and [Board.TriggerNow] runs an extra cycle on demand. The same
// controls are exposed to the dashboard page over HTTP.
//
// # HTTP Surface
//
// The dashboard server exposes:
//
//   - GET /: the dashboard page
//   - GET /api/{id}: the endpoint's health response, proxied with CORS headers
//   - GET /board/status: the latest cycle as JSON
//   - GET /board/events and GET /board/ws: live cycle updates over SSE and WebSocket
//   - POST /board/refresh, /board/pause, /board/resume: polling controls
//   - POST /board/visibility: a dashboard page reporting it was shown or hidden;
//     polling pauses only while every open page is hidden
//   - GET /board/panels/jobs, /board/panels/replication: illustrative panels
//
// # Architecture
//
// The implementation lives in internal packages:
//
//   - internal/registry: validated, immutable endpoint set
//   - internal/poller: HTTP client, classification, aggregation and the scheduler
//   - internal/store: latest-snapshot store with pub/sub for streaming clients
//   - internal/proxy: the /api/{id} health proxy
//   - internal/server: router, streams and static files
//   - internal/panels: fixture-backed panels
//   - internal/logging: slog handler construction and log file rotation
package healthboard
