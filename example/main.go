package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/healthboard"
	"github.com/jpalmerr/healthboard/example/mock"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// mock services on :9999 (see example/mock)
	go func() {
		if err := http.ListenAndServe(":9999", mock.NewServer(logger).Handler()); err != nil {
			logger.Error("mock server error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	var endpoints []healthboard.Endpoint
	for _, svc := range []string{"users", "orders", "search"} {
		ep, err := healthboard.NewEndpoint(svc, "http://localhost:9999/health/"+svc,
			healthboard.WithTimeout(5*time.Second),
		)
		if err != nil {
			logger.Error("failed to create endpoint", "error", err)
			os.Exit(1)
		}
		endpoints = append(endpoints, ep)
	}

	github, err := healthboard.NewEndpoint("github", "https://www.githubstatus.com/api/v2/status.json",
		healthboard.WithDisplayName("GitHub"),
	)
	if err != nil {
		logger.Error("failed to create endpoint", "error", err)
		os.Exit(1)
	}
	endpoints = append(endpoints, github)

	board, err := healthboard.New(
		healthboard.WithEndpoints(endpoints...),
		healthboard.WithPollingInterval(5*time.Second),
		healthboard.WithPort(8080),
		healthboard.WithTitle("Healthboard Demo"),
		healthboard.WithLogger(logger),
		healthboard.WithReportCallback(func(r healthboard.CycleReport) {
			if r.State != healthboard.StateOperational {
				logger.Warn("system not operational",
					"state", string(r.State),
					"healthy", r.HealthyCount,
					"total", r.TotalCount,
				)
			}
		}),
	)
	if err != nil {
		logger.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Healthboard Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Println("  3 mock services cycle through healthy, failing, text and hanging")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Start(ctx); err != nil {
		logger.Error("healthboard error", "error", err)
		os.Exit(1)
	}
}
