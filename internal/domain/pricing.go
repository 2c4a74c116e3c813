package domain

import "strings"

// ModelPricing holds per-million-token rates for a reasoning model.
type ModelPricing struct {
	Model            string // model id prefix, e.g. "claude-sonnet-4"
	DisplayName      string
	InputPerMillion  float64
	OutputPerMillion float64

	// Premium rates once a single request's input exceeds LongContextThreshold.
	LongContextInputPerMillion  *float64
	LongContextOutputPerMillion *float64
	LongContextThreshold        *int64
}

// CalculateCost estimates the USD cost of a token usage figure.
func (p *ModelPricing) CalculateCost(u TokenUsage) float64 {
	inputRate, outputRate := p.InputPerMillion, p.OutputPerMillion
	if p.LongContextThreshold != nil &&
		p.LongContextInputPerMillion != nil &&
		p.LongContextOutputPerMillion != nil &&
		u.InputTokens > *p.LongContextThreshold {
		inputRate = *p.LongContextInputPerMillion
		outputRate = *p.LongContextOutputPerMillion
	}
	return float64(u.InputTokens)*inputRate/1_000_000 + float64(u.OutputTokens)*outputRate/1_000_000
}

func ptr[T any](v T) *T { return &v }

// DefaultPricing is the built-in rate table. The first entry whose Model is a
// prefix of the requested model wins.
var DefaultPricing = []ModelPricing{
	{
		Model:                       "claude-sonnet-4",
		DisplayName:                 "Claude Sonnet 4",
		InputPerMillion:             3.00,
		OutputPerMillion:            15.00,
		LongContextInputPerMillion:  ptr(6.00),
		LongContextOutputPerMillion: ptr(22.50),
		LongContextThreshold:        ptr(int64(200_000)),
	},
	{Model: "claude-opus-4", DisplayName: "Claude Opus 4", InputPerMillion: 15.00, OutputPerMillion: 75.00},
	{Model: "claude-3-5-haiku", DisplayName: "Claude Haiku 3.5", InputPerMillion: 0.80, OutputPerMillion: 4.00},
	{Model: "gpt-4o-mini", DisplayName: "GPT-4o mini", InputPerMillion: 0.15, OutputPerMillion: 0.60},
	{Model: "gpt-4o", DisplayName: "GPT-4o", InputPerMillion: 2.50, OutputPerMillion: 10.00},
	{Model: "mock", DisplayName: "Offline mock"},
}

// PricingFor looks up the rates for a model. Unknown models cost nothing.
func PricingFor(model string) ModelPricing {
	for _, p := range DefaultPricing {
		if strings.HasPrefix(model, p.Model) {
			return p
		}
	}
	return ModelPricing{Model: model, DisplayName: model}
}
