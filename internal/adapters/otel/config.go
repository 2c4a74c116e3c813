package otel

import "time"

// Config selects the OTLP gRPC collector turn metrics are pushed to.
type Config struct {
	Enabled  bool
	Endpoint string
	Insecure bool
	// Interval between pushes; zero keeps the SDK default.
	Interval time.Duration
}

func (c Config) active() bool { return c.Enabled && c.Endpoint != "" }
