package ports_test

import (
	"testing"

	"github.com/emiliopalmerini/framescope/internal/adapters/llm"
	"github.com/emiliopalmerini/framescope/internal/adapters/otel"
	"github.com/emiliopalmerini/framescope/internal/adapters/turso"
	"github.com/emiliopalmerini/framescope/internal/capture"
	"github.com/emiliopalmerini/framescope/internal/ports"
)

// Compile-time interface conformance checks.
// These verify that concrete adapters properly implement their port interfaces.

func TestTurnRepositoryConformance(t *testing.T) {
	var _ ports.TurnRepository = (*turso.TurnRepository)(nil)
}

func TestPricingRepositoryConformance(t *testing.T) {
	var _ ports.PricingRepository = (*turso.PricingRepository)(nil)
}

func TestMetricsExporterConformance(t *testing.T) {
	var _ ports.MetricsExporter = (*otel.Exporter)(nil)
	var _ ports.MetricsExporter = (*otel.NoOpExporter)(nil)
}

func TestCaptureStoreConformance(t *testing.T) {
	var _ ports.CaptureStore = (*capture.Store)(nil)
}

func TestReasonerConformance(t *testing.T) {
	var _ ports.Reasoner = (*llm.Anthropic)(nil)
	var _ ports.Reasoner = (*llm.OpenAI)(nil)
	var _ ports.Reasoner = (*llm.Mock)(nil)
	var _ ports.Reasoner = (*llm.Hybrid)(nil)
}
