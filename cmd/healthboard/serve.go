package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpalmerr/healthboard"
	"github.com/jpalmerr/healthboard/config"
	"github.com/jpalmerr/healthboard/internal/logging"
)

const (
	shutdownTimeout = 10 * time.Second

	// envPrefix namespaces environment overrides, e.g. HEALTHBOARD_PORT.
	envPrefix = "HEALTHBOARD"
)

// overrideFlags can also be set from HEALTHBOARD_* environment variables.
var overrideFlags = []string{"port", "log-level", "log-file", "static-dir"}

// serveCmd starts the healthboard dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the healthboard dashboard server.

The server will:
  - Load configuration from the specified YAML file
  - Start polling all configured endpoints
  - Serve the dashboard UI on the configured port

Flags override the file, and HEALTHBOARD_PORT, HEALTHBOARD_LOG_LEVEL,
HEALTHBOARD_LOG_FILE and HEALTHBOARD_STATIC_DIR override it when the
matching flag is not given.

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  healthboard serve -c config.yaml
  healthboard serve -c config.yaml --port 9090 --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")

	cmd.Flags().Int("port", 0, "HTTP port, overrides the config file")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn or error")
	cmd.Flags().String("log-file", "", "write logs to a rotating file")
	cmd.Flags().String("static-dir", "", "serve the dashboard from a directory")
}

// resolveConfig loads the config file and applies flag and environment
// overrides on top of it.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, name := range overrideFlags {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if v.IsSet("port") {
		cfg.Port = v.GetInt("port")
	}
	if v.IsSet("log-level") {
		cfg.Log.Level = v.GetString("log-level")
	}
	if v.IsSet("log-file") {
		cfg.Log.File = v.GetString("log-file")
	}
	if v.IsSet("static-dir") {
		cfg.StaticDir = v.GetString("static-dir")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid override: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log.LoggingOptions())
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	logger.Info("config loaded",
		"endpoints", len(cfg.Endpoints),
		"port", cfg.Port,
		"poll_interval", cfg.PollInterval.String(),
	)

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build endpoints: %w", err)
	}
	opts = append(opts, healthboard.WithLogger(logger))

	board, err := healthboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- board.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
