// Standalone mock server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/healthboard serve -c example/config.yaml
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jpalmerr/healthboard/example/mock"
)

func main() {
	fmt.Println("Mock health server starting on :9999")
	fmt.Println("Services cycle through: healthy → failing → text → hanging")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := http.ListenAndServe(":9999", mock.NewServer(logger).Handler()); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
