package domain

import "time"

// TurnRecord is the ledger entry written after every chat turn.
type TurnRecord struct {
	ID            string
	SessionID     string
	CapabilitySet string
	Model         string
	Question      string
	TokenInput    int64
	TokenOutput   int64
	ToolCalls     int64
	ToolErrors    int64
	ChartCount    int64
	Iterations    int64
	FinalState    LoopState
	CostUSD       float64
	DurationMs    int64
	CreatedAt     time.Time
}

// AggregateUsage holds summary statistics across recorded turns.
type AggregateUsage struct {
	TurnCount        int64
	SessionCount     int64
	TotalIterations  int64
	TotalTokenInput  int64
	TotalTokenOutput int64
	TotalToolCalls   int64
	TotalToolErrors  int64
	TotalCharts      int64
	BudgetExceeded   int64
	FailedTurns      int64
	TotalCostUSD     float64
	TotalDurationMs  int64
}

// ToolUsageStats holds usage data for a single tool.
type ToolUsageStats struct {
	ToolName         string
	TotalInvocations int64
	TotalErrors      int64
}

// CapabilityUsage groups aggregate usage by capability set.
type CapabilityUsage struct {
	CapabilitySet string
	AggregateUsage
}

// NormalizedUsage holds pricing-independent behavioral metrics.
type NormalizedUsage struct {
	TokensPerTurn      float64
	OutputRatio        float64
	ToolCallsPerTurn   float64
	IterationsPerTurn  float64
	ToolErrorRate      float64
	BudgetExceededRate float64
	AvgTurnMs          float64
}

// ComputeNormalized derives behavioral metrics from aggregate usage.
// All divisions are zero-safe: returns 0 when the divisor is zero.
func (a *AggregateUsage) ComputeNormalized() NormalizedUsage {
	var m NormalizedUsage

	if a.TurnCount > 0 {
		turns := float64(a.TurnCount)
		m.TokensPerTurn = float64(a.TotalTokenInput+a.TotalTokenOutput) / turns
		m.ToolCallsPerTurn = float64(a.TotalToolCalls) / turns
		m.IterationsPerTurn = float64(a.TotalIterations) / turns
		m.BudgetExceededRate = float64(a.BudgetExceeded) / turns
		m.AvgTurnMs = float64(a.TotalDurationMs) / turns
	}

	if a.TotalTokenInput > 0 {
		m.OutputRatio = float64(a.TotalTokenOutput) / float64(a.TotalTokenInput)
	}

	if a.TotalToolCalls > 0 {
		m.ToolErrorRate = float64(a.TotalToolErrors) / float64(a.TotalToolCalls)
	}

	return m
}

// ToolInvocation is one tool call made during a recorded turn.
type ToolInvocation struct {
	TurnID   string
	ToolName string
	IsError  bool
}
