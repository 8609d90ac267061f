// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Flat snake_case keys shared by YAML files and WERIS_* env vars.
// - New() returns a Config with defaults; Load layers file and env on top.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/okian/weris/internal/scheduler"
)

// Intake sources.
const (
	IntakeFile   = "file"
	IntakeRemote = "remote"
)

// Reference loading modes.
const (
	ReferenceEager     = "eager"
	ReferenceStreaming = "streaming"
)

// Sink targets.
const (
	SinkFile   = "file"
	SinkRemote = "remote"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// IntakeSource selects where symptoms come from: file or remote.
	IntakeSource string `koanf:"intake_source"`
	IntakePath   string `koanf:"intake_path"`
	IntakeURL    string `koanf:"intake_url"`

	// ReferenceMode selects eager or streaming table loading.
	ReferenceMode  string   `koanf:"reference_mode"`
	ReferencePaths []string `koanf:"reference_paths"`

	// ChunkSize is the row count per chunk in streaming mode.
	ChunkSize int `koanf:"chunk_size"`

	// ModelPath is the persisted classifier blob.
	ModelPath string `koanf:"model_path"`

	// SinkTarget selects where results go: file or remote.
	SinkTarget string `koanf:"sink_target"`
	SinkPath   string `koanf:"sink_path"`
	SinkURL    string `koanf:"sink_url"`

	// RemoteTimeoutMS bounds each remote request.
	RemoteTimeoutMS int `koanf:"remote_timeout_ms"`

	// HistoryDB enables the run history when set.
	HistoryDB string `koanf:"history_db"`

	// MetricsFile receives a Prometheus textfile after each run when set.
	MetricsFile string `koanf:"metrics_file"`

	// Schedule is the cron spec used by the schedule command.
	Schedule string `koanf:"schedule"`
	Timezone string `koanf:"timezone"`
}

// New creates a Config with defaults matching the conventional file layout
// of the working directory.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		IntakeSource:    IntakeFile,
		IntakePath:      "symptom_data.json",
		IntakeURL:       "http://api.example.com/symptoms_and_week",
		ReferenceMode:   ReferenceEager,
		ReferencePaths:  []string{"data1.csv", "data2.csv", "data3.csv"},
		ChunkSize:       1000,
		ModelPath:       "knn_model.json",
		SinkTarget:      SinkFile,
		SinkPath:        "stress_result.json",
		SinkURL:         "http://api.example.com/results",
		RemoteTimeoutMS: 10_000,
		Schedule:        "@weekly",
		Timezone:        "Local",
	}
}

// RemoteTimeout returns RemoteTimeoutMS as a duration.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutMS) * time.Millisecond
}

// Validate checks modes and the settings each mode depends on.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"text", "json"}, c.LogFormat) {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}

	switch c.IntakeSource {
	case IntakeFile:
		if c.IntakePath == "" {
			return fmt.Errorf("%w: intake_path must not be empty", ErrInvalidConfig)
		}
	case IntakeRemote:
		if c.IntakeURL == "" {
			return fmt.Errorf("%w: intake_url must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: intake_source must be file or remote, got %q", ErrInvalidConfig, c.IntakeSource)
	}

	switch c.ReferenceMode {
	case ReferenceEager, ReferenceStreaming:
	default:
		return fmt.Errorf("%w: reference_mode must be eager or streaming, got %q", ErrInvalidConfig, c.ReferenceMode)
	}
	if len(c.ReferencePaths) == 0 {
		return fmt.Errorf("%w: reference_paths must not be empty", ErrInvalidConfig)
	}
	if slices.Contains(c.ReferencePaths, "") {
		return fmt.Errorf("%w: reference_paths must not contain empty entries", ErrInvalidConfig)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}

	if c.ModelPath == "" {
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	}

	switch c.SinkTarget {
	case SinkFile:
		if c.SinkPath == "" {
			return fmt.Errorf("%w: sink_path must not be empty", ErrInvalidConfig)
		}
	case SinkRemote:
		if c.SinkURL == "" {
			return fmt.Errorf("%w: sink_url must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: sink_target must be file or remote, got %q", ErrInvalidConfig, c.SinkTarget)
	}

	if c.RemoteTimeoutMS <= 0 {
		return fmt.Errorf("%w: remote_timeout_ms must be positive, got %d", ErrInvalidConfig, c.RemoteTimeoutMS)
	}
	if err := scheduler.Validate(c.Schedule); err != nil {
		return fmt.Errorf("%w: schedule: %v", ErrInvalidConfig, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone: %v", ErrInvalidConfig, err)
	}
	return nil
}
