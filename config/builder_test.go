package config

import (
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/healthboard"
	"github.com/jpalmerr/healthboard/internal/logging"
)

func TestBuildEndpoints_SingleEndpoint(t *testing.T) {
	cfg := &Config{
		Endpoints: []EndpointConfig{
			{
				ID:   "github",
				Name: "GitHub",
				URL:  "https://api.github.com",
			},
		},
	}

	endpoints, err := BuildEndpoints(cfg)
	if err != nil {
		t.Fatalf("BuildEndpoints() error = %v", err)
	}

	if len(endpoints) != 1 {
		t.Fatalf("len(endpoints) = %d, want 1", len(endpoints))
	}

	ep := endpoints[0]
	if ep.ID() != "github" {
		t.Errorf("ID() = %q, want %q", ep.ID(), "github")
	}
	if ep.Name() != "GitHub" {
		t.Errorf("Name() = %q, want %q", ep.Name(), "GitHub")
	}
	if ep.URL() != "https://api.github.com" {
		t.Errorf("URL() = %q, want %q", ep.URL(), "https://api.github.com")
	}
	if ep.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v, want default 10s", ep.Timeout())
	}
}

func TestBuildEndpoints_TimeoutAndDefaultName(t *testing.T) {
	cfg := &Config{
		Endpoints: []EndpointConfig{
			{ID: "core", URL: "https://example.com", Timeout: Duration(3 * time.Second)},
		},
	}

	endpoints, err := BuildEndpoints(cfg)
	if err != nil {
		t.Fatalf("BuildEndpoints() error = %v", err)
	}
	if endpoints[0].Name() != "core" {
		t.Errorf("Name() = %q, want id as default", endpoints[0].Name())
	}
	if endpoints[0].Timeout() != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", endpoints[0].Timeout())
	}
}

func TestBuildEndpoints_PreservesOrder(t *testing.T) {
	cfg := &Config{
		Endpoints: []EndpointConfig{
			{ID: "c", URL: "https://c.example.com"},
			{ID: "a", URL: "https://a.example.com"},
			{ID: "b", URL: "https://b.example.com"},
		},
	}

	endpoints, err := BuildEndpoints(cfg)
	if err != nil {
		t.Fatalf("BuildEndpoints() error = %v", err)
	}

	var ids []string
	for _, ep := range endpoints {
		ids = append(ids, ep.ID())
	}
	if got := strings.Join(ids, ","); got != "c,a,b" {
		t.Errorf("order = %s, want c,a,b", got)
	}
}

func TestBuildEndpoints_InvalidEndpoint(t *testing.T) {
	cfg := &Config{
		Endpoints: []EndpointConfig{{ID: "core", URL: "example.com/health"}},
	}

	_, err := BuildEndpoints(cfg)
	if err == nil {
		t.Fatal("BuildEndpoints() expected error for missing scheme, got nil")
	}
	if !strings.Contains(err.Error(), `endpoint "core"`) {
		t.Errorf("error = %q, want to name the endpoint", err.Error())
	}
}

func TestBuildOptions(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Title:           "Ops",
		Port:            9191,
		PollInterval:    Duration(time.Minute),
		SuccessKeywords: []string{"UP"},
		StatusCodes:     []int{200},
		StaticDir:       dir,
		Endpoints: []EndpointConfig{
			{ID: "core", URL: "https://core.example.com"},
			{ID: "search", URL: "https://search.example.com"},
		},
	}

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	b, err := healthboard.New(opts...)
	if err != nil {
		t.Fatalf("healthboard.New() error = %v", err)
	}
	if b.Port() != 9191 {
		t.Errorf("Port() = %d, want 9191", b.Port())
	}
	if b.PollingInterval() != time.Minute {
		t.Errorf("PollingInterval() = %v, want 1m", b.PollingInterval())
	}
	if n := len(b.Endpoints()); n != 2 {
		t.Errorf("len(Endpoints()) = %d, want 2", n)
	}
}

func TestBuildOptions_FromParsedConfig(t *testing.T) {
	cfg, err := Parse([]byte(`
poll_interval: 15s
endpoints:
  - id: core
    name: Core API
    url: https://example.com/health
    timeout: 2s
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	b, err := healthboard.New(opts...)
	if err != nil {
		t.Fatalf("healthboard.New() error = %v", err)
	}

	ep := b.Endpoints()[0]
	if ep.Name() != "Core API" || ep.Timeout() != 2*time.Second {
		t.Errorf("endpoint = %q/%v", ep.Name(), ep.Timeout())
	}
	if b.Port() != 8080 || b.PollingInterval() != 15*time.Second {
		t.Errorf("board = port %d interval %v", b.Port(), b.PollingInterval())
	}
}

func TestLogConfig_LoggingOptions(t *testing.T) {
	l := LogConfig{Level: "warn", Format: "json", File: "/tmp/hb.log"}
	want := logging.Options{Level: "warn", Format: "json", File: "/tmp/hb.log"}
	if got := l.LoggingOptions(); got != want {
		t.Errorf("LoggingOptions() = %+v, want %+v", got, want)
	}
}
