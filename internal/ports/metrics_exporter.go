package ports

import (
	"context"
	"time"
)

// MetricsExporter exports turn metrics to an external observability system.
type MetricsExporter interface {
	// ExportTurnMetrics exports metrics for a completed chat turn.
	ExportTurnMetrics(ctx context.Context, m *TurnMetrics) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// TurnMetrics describes one completed turn of the tool-dispatch loop.
type TurnMetrics struct {
	SessionID     string
	CapabilitySet string
	Model         string

	TokenInput      int64
	TokenOutput     int64
	CostEstimateUSD float64

	Iterations int64
	ToolNames  []string
	ToolErrors int64
	FinalState string

	Duration time.Duration
	EndedAt  time.Time
}
