package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/framescope/internal/ports"
)

const (
	serviceName    = "framescope"
	serviceVersion = "1.0.0"
)

// Exporter exports turn metrics to an OTEL Collector.
type Exporter struct {
	provider        *sdkmetric.MeterProvider
	meter           metric.Meter
	tokensTotal     metric.Int64Counter
	costTotal       metric.Float64Counter
	durationHist    metric.Float64Histogram
	iterationsHist  metric.Int64Histogram
	toolCallsTotal  metric.Int64Counter
	toolErrorsTotal metric.Int64Counter
	turnsTotal      metric.Int64Counter
}

// New returns an OTLP exporter when enabled, and a NoOpExporter otherwise.
func New(ctx context.Context, cfg Config) (ports.MetricsExporter, error) {
	if !cfg.active() {
		return NewNoOpExporter(), nil
	}
	return NewExporter(ctx, cfg)
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.active() {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	tokensTotal, err := meter.Int64Counter(
		"framescope_turn_tokens_total",
		metric.WithDescription("Total reasoner tokens used by chat turns"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tokens counter: %w", err)
	}

	costTotal, err := meter.Float64Counter(
		"framescope_turn_cost_usd",
		metric.WithDescription("Total estimated reasoner cost in USD"),
		metric.WithUnit("USD"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cost counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"framescope_turn_duration_seconds",
		metric.WithDescription("Chat turn duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	iterationsHist, err := meter.Int64Histogram(
		"framescope_turn_iterations",
		metric.WithDescription("Reasoner iterations per chat turn"),
		metric.WithUnit("{iteration}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating iterations histogram: %w", err)
	}

	toolCallsTotal, err := meter.Int64Counter(
		"framescope_tool_calls_total",
		metric.WithDescription("Total tool invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tool calls counter: %w", err)
	}

	toolErrorsTotal, err := meter.Int64Counter(
		"framescope_tool_errors_total",
		metric.WithDescription("Total tool invocations that returned an error result"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tool errors counter: %w", err)
	}

	turnsTotal, err := meter.Int64Counter(
		"framescope_turns_total",
		metric.WithDescription("Total number of chat turns"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating turns counter: %w", err)
	}

	return &Exporter{
		provider:        provider,
		meter:           meter,
		tokensTotal:     tokensTotal,
		costTotal:       costTotal,
		durationHist:    durationHist,
		iterationsHist:  iterationsHist,
		toolCallsTotal:  toolCallsTotal,
		toolErrorsTotal: toolErrorsTotal,
		turnsTotal:      turnsTotal,
	}, nil
}

// ExportTurnMetrics records metrics for a completed chat turn.
func (e *Exporter) ExportTurnMetrics(ctx context.Context, m *ports.TurnMetrics) error {
	attrs := []attribute.KeyValue{
		attribute.String("capability_set", m.CapabilitySet),
		attribute.String("model", m.Model),
		attribute.String("final_state", m.FinalState),
	}
	opt := metric.WithAttributes(attrs...)

	e.tokensTotal.Add(ctx, m.TokenInput+m.TokenOutput, opt)
	e.costTotal.Add(ctx, m.CostEstimateUSD, opt)
	e.durationHist.Record(ctx, m.Duration.Seconds(), opt)
	e.iterationsHist.Record(ctx, m.Iterations, opt)
	e.turnsTotal.Add(ctx, 1, opt)

	for _, name := range m.ToolNames {
		e.toolCallsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("capability_set", m.CapabilitySet),
			attribute.String("tool", name),
		))
	}
	if m.ToolErrors > 0 {
		e.toolErrorsTotal.Add(ctx, m.ToolErrors, opt)
	}

	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
