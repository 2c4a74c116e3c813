package otel

import (
	"context"

	"github.com/emiliopalmerini/framescope/internal/ports"
)

// NoOpExporter drops turn metrics. It stands in when export is disabled or
// the collector cannot be reached at startup.
type NoOpExporter struct{}

func NewNoOpExporter() *NoOpExporter { return &NoOpExporter{} }

func (*NoOpExporter) ExportTurnMetrics(context.Context, *ports.TurnMetrics) error { return nil }

func (*NoOpExporter) Close(context.Context) error { return nil }
