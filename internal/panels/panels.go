// Package panels renders the illustrative scheduled-job and database
// replication panels from embedded fixture data.
//
// Nothing here talks to a live backend. Fixture times are stored as offsets
// and resolved against the render time, so the panels always look current.
package panels

import (
	_ "embed"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

// Job statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusRunning = "running"
)

// Replication environment statuses.
const (
	EnvConnected    = "connected"
	EnvWarning      = "warning"
	EnvDisconnected = "disconnected"
)

type fixtures struct {
	Jobs        []jobEnvFixture         `yaml:"jobs"`
	Replication []replicationEnvFixture `yaml:"replication"`
}

type jobEnvFixture struct {
	Env  string       `yaml:"env"`
	Jobs []jobFixture `yaml:"jobs"`
}

type jobFixture struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Type     string        `yaml:"type"`
	Status   string        `yaml:"status"`
	LastRun  time.Duration `yaml:"last_run"`
	Duration string        `yaml:"duration"`
	NextRun  time.Duration `yaml:"next_run"`
	Schedule string        `yaml:"schedule"`
	Error    string        `yaml:"error"`
}

func (j jobFixture) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.ID, validation.Required),
		validation.Field(&j.Name, validation.Required),
		validation.Field(&j.Status, validation.Required, validation.In(StatusSuccess, StatusFailed, StatusRunning)),
	)
}

type replicationEnvFixture struct {
	Env      string          `yaml:"env"`
	Name     string          `yaml:"name"`
	Status   string          `yaml:"status"`
	Primary  Node            `yaml:"primary"`
	Standby  Node            `yaml:"standby"`
	SyncMode string          `yaml:"sync_mode"`
	LogGap   int             `yaml:"log_gap"`
	Metrics  Metrics         `yaml:"metrics"`
	Jobs     []envJobFixture `yaml:"jobs"`
}

func (e replicationEnvFixture) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Env, validation.Required),
		validation.Field(&e.Status, validation.Required, validation.In(EnvConnected, EnvWarning, EnvDisconnected)),
		validation.Field(&e.Jobs),
	)
}

type envJobFixture struct {
	Name    string        `yaml:"name"`
	Status  string        `yaml:"status"`
	LastRun time.Duration `yaml:"last_run"`
}

func (j envJobFixture) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.Name, validation.Required),
		validation.Field(&j.Status, validation.Required, validation.In(StatusSuccess, StatusFailed, StatusRunning)),
	)
}

// Catalog holds parsed fixture data.
type Catalog struct {
	f fixtures
}

// Load parses the embedded fixtures.
func Load() (*Catalog, error) {
	return Parse(fixturesYAML)
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte) (*Catalog, error) {
	var f fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse panel fixtures: %w", err)
	}

	for i, env := range f.Jobs {
		if env.Env == "" {
			return nil, fmt.Errorf("jobs[%d]: env is required", i)
		}
		for j, job := range env.Jobs {
			if err := job.Validate(); err != nil {
				return nil, fmt.Errorf("jobs[%d] (%s).jobs[%d]: %w", i, env.Env, j, err)
			}
		}
	}
	for i, env := range f.Replication {
		if err := env.Validate(); err != nil {
			return nil, fmt.Errorf("replication[%d] (%s): %w", i, env.Env, err)
		}
	}

	return &Catalog{f: f}, nil
}

// JobStats counts jobs across all environments.
type JobStats struct {
	Total   int `json:"total"`
	Running int `json:"running"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Job is one scheduled job as rendered on the jobs panel.
type Job struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	LastRun         time.Time `json:"last_run"`
	LastRunLabel    string    `json:"last_run_label"`
	LastRunResult   string    `json:"last_run_result"`
	LastRunDuration string    `json:"last_run_duration"`
	NextRun         time.Time `json:"next_run"`
	NextRunLabel    string    `json:"next_run_label"`
	Schedule        string    `json:"schedule"`
	Error           string    `json:"error,omitempty"`
}

// JobEnvironment groups the jobs of one environment.
type JobEnvironment struct {
	Env  string `json:"env"`
	Jobs []Job  `json:"jobs"`
}

// JobsPanel is the payload of the scheduled-jobs panel.
type JobsPanel struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	Stats        JobStats         `json:"stats"`
	Environments []JobEnvironment `json:"environments"`
}

// Jobs renders the jobs panel as of now.
func (c *Catalog) Jobs(now time.Time) JobsPanel {
	panel := JobsPanel{
		GeneratedAt:  now,
		Environments: make([]JobEnvironment, 0, len(c.f.Jobs)),
	}

	for _, env := range c.f.Jobs {
		out := JobEnvironment{Env: env.Env, Jobs: make([]Job, 0, len(env.Jobs))}
		for _, j := range env.Jobs {
			lastRun := now.Add(j.LastRun)
			nextRun := now.Add(j.NextRun)
			out.Jobs = append(out.Jobs, Job{
				ID:              j.ID,
				Name:            j.Name,
				Type:            j.Type,
				Status:          j.Status,
				LastRun:         lastRun,
				LastRunLabel:    RelativeTime(lastRun, now),
				LastRunResult:   resultLabel(j.Status),
				LastRunDuration: j.Duration,
				NextRun:         nextRun,
				NextRunLabel:    RelativeTime(nextRun, now),
				Schedule:        j.Schedule,
				Error:           j.Error,
			})
			panel.Stats.add(j.Status)
		}
		panel.Environments = append(panel.Environments, out)
	}

	return panel
}

func (s *JobStats) add(status string) {
	s.Total++
	switch status {
	case StatusRunning:
		s.Running++
	case StatusSuccess:
		s.Success++
	case StatusFailed:
		s.Failed++
	}
}

func resultLabel(status string) string {
	switch status {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailed:
		return "FAILED"
	case StatusRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// Node is one side of a replication pair.
type Node struct {
	State       string `yaml:"state" json:"state"`
	LogPosition string `yaml:"log_position" json:"log_position"`
	Host        string `yaml:"host" json:"host"`
}

// Metrics are the headline numbers of a replication environment.
type Metrics struct {
	Connections    int    `yaml:"connections" json:"connections"`
	ReplicationLag string `yaml:"replication_lag" json:"replication_lag"`
}

// EnvJob is a job summary inside a replication environment card.
type EnvJob struct {
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	LastRun      time.Time `json:"last_run"`
	LastRunLabel string    `json:"last_run_label"`
}

// ReplicationEnvironment is one environment card on the replication panel.
type ReplicationEnvironment struct {
	Env  string `json:"env"`
	Name string `json:"name"`

	// Status is the displayed status: ReportedStatus escalated to warning
	// when any of the environment's jobs failed.
	Status         string   `json:"status"`
	ReportedStatus string   `json:"reported_status"`
	Primary        Node     `json:"primary"`
	Standby        Node     `json:"standby"`
	SyncMode       string   `json:"sync_mode"`
	LogGap         int      `json:"log_gap"`
	Metrics        Metrics  `json:"metrics"`
	Jobs           []EnvJob `json:"jobs"`
	FailedJobs     int      `json:"failed_jobs"`
}

// ReplicationPanel is the payload of the replication panel.
type ReplicationPanel struct {
	GeneratedAt  time.Time                `json:"generated_at"`
	Environments []ReplicationEnvironment `json:"environments"`
}

// Replication renders the replication panel as of now.
func (c *Catalog) Replication(now time.Time) ReplicationPanel {
	panel := ReplicationPanel{
		GeneratedAt:  now,
		Environments: make([]ReplicationEnvironment, 0, len(c.f.Replication)),
	}

	for _, env := range c.f.Replication {
		out := ReplicationEnvironment{
			Env:            env.Env,
			Name:           env.Name,
			ReportedStatus: env.Status,
			Primary:        env.Primary,
			Standby:        env.Standby,
			SyncMode:       env.SyncMode,
			LogGap:         env.LogGap,
			Metrics:        env.Metrics,
			Jobs:           make([]EnvJob, 0, len(env.Jobs)),
		}
		for _, j := range env.Jobs {
			lastRun := now.Add(j.LastRun)
			out.Jobs = append(out.Jobs, EnvJob{
				Name:         j.Name,
				Status:       j.Status,
				LastRun:      lastRun,
				LastRunLabel: RelativeTime(lastRun, now),
			})
			if j.Status == StatusFailed {
				out.FailedJobs++
			}
		}
		out.Status = environmentStatus(env.Status, out.FailedJobs)
		panel.Environments = append(panel.Environments, out)
	}

	return panel
}

func environmentStatus(reported string, failedJobs int) string {
	if failedJobs > 0 {
		return EnvWarning
	}
	return reported
}

// RelativeTime formats t relative to now using its largest whole unit:
// "3d ago", "2h ago", "in 5m", "in 0s".
func RelativeTime(t, now time.Time) string {
	diff := t.Sub(now)
	abs := diff
	if abs < 0 {
		abs = -abs
	}

	var n int64
	var unit string
	switch {
	case abs >= 24*time.Hour:
		n, unit = int64(abs/(24*time.Hour)), "d"
	case abs >= time.Hour:
		n, unit = int64(abs/time.Hour), "h"
	case abs >= time.Minute:
		n, unit = int64(abs/time.Minute), "m"
	default:
		n, unit = int64(abs/time.Second), "s"
	}

	if diff < 0 {
		return fmt.Sprintf("%d%s ago", n, unit)
	}
	return fmt.Sprintf("in %d%s", n, unit)
}
