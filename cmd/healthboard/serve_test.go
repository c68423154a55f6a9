package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

const minimalConfig = `
port: 8080
log:
  level: info
endpoints:
  - id: core
    url: https://core.example.com/health
`

func newServeFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "serve"}
	addServeFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestResolveConfig_FileOnly(t *testing.T) {
	cmd := newServeFlags(t, "-c", writeConfig(t, minimalConfig))

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if cfg.Port != 8080 || cfg.Log.Level != "info" || cfg.StaticDir != "" {
		t.Errorf("cfg = port %d level %q static %q", cfg.Port, cfg.Log.Level, cfg.StaticDir)
	}
}

func TestResolveConfig_FlagOverrides(t *testing.T) {
	dir := t.TempDir()
	cmd := newServeFlags(t,
		"-c", writeConfig(t, minimalConfig),
		"--port", "9090",
		"--log-level", "debug",
		"--log-file", "/tmp/healthboard/hb.log",
		"--static-dir", dir,
	)

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/tmp/healthboard/hb.log" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.StaticDir != dir {
		t.Errorf("StaticDir = %q, want %q", cfg.StaticDir, dir)
	}
}

func TestResolveConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HEALTHBOARD_PORT", "9191")
	t.Setenv("HEALTHBOARD_LOG_LEVEL", "warn")

	cmd := newServeFlags(t, "-c", writeConfig(t, minimalConfig))

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if cfg.Port != 9191 || cfg.Log.Level != "warn" {
		t.Errorf("cfg = port %d level %q, want 9191 warn", cfg.Port, cfg.Log.Level)
	}
}

func TestResolveConfig_FlagBeatsEnv(t *testing.T) {
	t.Setenv("HEALTHBOARD_PORT", "9191")

	cmd := newServeFlags(t, "-c", writeConfig(t, minimalConfig), "--port", "7070")

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Port)
	}
}

func TestResolveConfig_InvalidOverride(t *testing.T) {
	cmd := newServeFlags(t, "-c", writeConfig(t, minimalConfig), "--log-level", "verbose")

	_, err := resolveConfig(cmd)
	if err == nil || !strings.Contains(err.Error(), "invalid override") {
		t.Errorf("resolveConfig() error = %v, want invalid override", err)
	}
}

func TestResolveConfig_MissingFile(t *testing.T) {
	cmd := newServeFlags(t, "-c", "/nonexistent/config.yaml")

	_, err := resolveConfig(cmd)
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("resolveConfig() error = %v, want load failure", err)
	}
}
