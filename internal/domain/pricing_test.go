package domain

import (
	"math"
	"testing"
)

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestModelPricing_CalculateCost_StandardPricing(t *testing.T) {
	pricing := &ModelPricing{
		Model:            "claude-sonnet-4",
		InputPerMillion:  3.00,
		OutputPerMillion: 15.00,
	}

	// 1000 input, 500 output = $0.003 + $0.0075
	cost := pricing.CalculateCost(TokenUsage{InputTokens: 1000, OutputTokens: 500})
	if !floatEquals(cost, 0.0105) {
		t.Errorf("Expected cost %.6f, got %.6f", 0.0105, cost)
	}
}

func TestModelPricing_CalculateCost_LongContext(t *testing.T) {
	pricing := PricingFor("claude-sonnet-4-20250514")

	tests := []struct {
		name     string
		usage    TokenUsage
		expected float64
	}{
		{"under threshold", TokenUsage{InputTokens: 200_000, OutputTokens: 1000}, 0.6 + 0.015},
		{"over threshold", TokenUsage{InputTokens: 300_000, OutputTokens: 1000}, 1.8 + 0.0225},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost := pricing.CalculateCost(tt.usage)
			if !floatEquals(cost, tt.expected) {
				t.Errorf("Expected cost %.6f, got %.6f", tt.expected, cost)
			}
		})
	}
}

func TestPricingFor(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"claude-sonnet-4-20250514", "Claude Sonnet 4"},
		{"gpt-4o-mini-2024-07-18", "GPT-4o mini"},
		{"gpt-4o", "GPT-4o"},
		{"mock", "Offline mock"},
		{"llama3.1-8b", "llama3.1-8b"},
	}

	for _, tt := range tests {
		if got := PricingFor(tt.model).DisplayName; got != tt.want {
			t.Errorf("PricingFor(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}

	unknown := PricingFor("llama3.1-8b")
	if cost := unknown.CalculateCost(TokenUsage{InputTokens: 1e6, OutputTokens: 1e6}); cost != 0 {
		t.Errorf("unknown model should cost 0, got %f", cost)
	}
}
