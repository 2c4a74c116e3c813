// Package config loads framescope settings from FRAMESCOPE_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/emiliopalmerini/framescope/internal/capture"
)

const envPrefix = "FRAMESCOPE"

// Database holds usage ledger configuration.
type Database struct {
	URL       string `envconfig:"DATABASE_URL" default:"file::memory:?cache=shared"`
	AuthToken string `envconfig:"AUTH_TOKEN"`
}

// Reasoner selects and configures the reasoning backend.
type Reasoner struct {
	UseMock       bool   `envconfig:"USE_MOCK" default:"true"`
	Provider      string `envconfig:"PROVIDER" default:"anthropic"`
	APIKey        string `envconfig:"API_KEY"`
	APIBase       string `envconfig:"API_BASE"`
	Model         string `envconfig:"MODEL" default:"claude-sonnet-4-20250514"`
	MaxTokens     int    `envconfig:"MAX_TOKENS" default:"4096"`
	MaxIterations int    `envconfig:"MAX_ITERATIONS" default:"10"`
	MaxRetries    int    `envconfig:"MAX_RETRIES" default:"3"`
}

// Uploads bounds accepted captures.
type Uploads struct {
	MaxFileSizeMB int `envconfig:"MAX_FILE_SIZE_MB" default:"100"`
	MaxRows       int `envconfig:"MAX_ROWS" default:"500000"`
}

// Telemetry configures OTLP metric export. Export is off unless enabled.
type Telemetry struct {
	Enabled  bool          `envconfig:"OTEL_ENABLED"`
	Endpoint string        `envconfig:"OTEL_ENDPOINT"`
	Insecure bool          `envconfig:"OTEL_INSECURE"`
	Interval time.Duration `envconfig:"OTEL_EXPORT_INTERVAL" default:"30s"`
}

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	CleanupInterval time.Duration `envconfig:"CLEANUP_INTERVAL" default:"10m"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	Database  Database  `ignored:"true"`
	Reasoner  Reasoner  `ignored:"true"`
	Uploads   Uploads   `ignored:"true"`
	Telemetry Telemetry `ignored:"true"`
}

// Load reads the configuration. Nested structs share the FRAMESCOPE_ prefix,
// so FRAMESCOPE_MODEL sets Reasoner.Model.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, sub := range []any{&cfg.Database, &cfg.Reasoner, &cfg.Uploads, &cfg.Telemetry} {
		if err := envconfig.Process(envPrefix, sub); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Reasoner.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("invalid FRAMESCOPE_PROVIDER %q: must be anthropic or openai", c.Reasoner.Provider)
	}
	if !c.Reasoner.UseMock && c.Reasoner.APIKey == "" {
		return fmt.Errorf("FRAMESCOPE_API_KEY is required when FRAMESCOPE_USE_MOCK=false")
	}
	if c.Uploads.MaxFileSizeMB <= 0 || c.Uploads.MaxRows <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("FRAMESCOPE_OTEL_ENDPOINT is required when FRAMESCOPE_OTEL_ENABLED=true")
	}
	if c.Reasoner.MaxIterations <= 0 {
		return fmt.Errorf("FRAMESCOPE_MAX_ITERATIONS must be positive")
	}
	return nil
}

// Limits returns the upload limits for the ingestor.
func (c *Config) Limits() capture.Limits {
	return capture.Limits{MaxFileSizeMB: c.Uploads.MaxFileSizeMB, MaxRows: c.Uploads.MaxRows}
}

// NewLogger builds the process logger: text or JSON on stderr.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
