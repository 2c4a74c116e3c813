package turso_test

import (
	"context"
	"testing"
	"time"

	"github.com/emiliopalmerini/framescope/internal/adapters/turso"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
)

func seedTurn(t *testing.T, repo *turso.TurnRepository, id, session, set string, state domain.LoopState, at time.Time, tools ...domain.ToolInvocation) {
	t.Helper()
	turn := &domain.TurnRecord{
		ID:            id,
		SessionID:     session,
		CapabilitySet: set,
		Model:         "mock",
		Question:      "what is my fps?",
		TokenInput:    100,
		TokenOutput:   40,
		ToolCalls:     int64(len(tools)),
		Iterations:    2,
		FinalState:    state,
		CostUSD:       0.01,
		DurationMs:    250,
		CreatedAt:     at,
	}
	for _, tool := range tools {
		if tool.IsError {
			turn.ToolErrors++
		}
	}
	if err := repo.Create(context.Background(), turn, tools); err != nil {
		t.Fatalf("Create %s failed: %v", id, err)
	}
}

func TestTurnRepository(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := turso.NewTurnRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	seedTurn(t, repo, "t1", "s1", "performance", domain.StateDone, now.Add(-2*time.Minute),
		domain.ToolInvocation{ToolName: "compute_fps_statistics"},
		domain.ToolInvocation{ToolName: "detect_stutters", IsError: true},
	)
	seedTurn(t, repo, "t2", "s1", "visualization", domain.StateDoneBudgetExceeded, now.Add(-time.Minute),
		domain.ToolInvocation{ToolName: "chart_fps_histogram"},
	)
	seedTurn(t, repo, "t3", "s2", "performance", domain.StateFailed, now,
		domain.ToolInvocation{ToolName: "compute_fps_statistics"},
	)

	// ListRecent, newest first
	turns, err := repo.ListRecent(ctx, ports.ListTurnsOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].ID != "t3" {
		t.Errorf("expected newest turn t3 first, got %s", turns[0].ID)
	}
	if turns[0].FinalState != domain.StateFailed {
		t.Errorf("expected failed state, got %s", turns[0].FinalState)
	}

	session := "s1"
	turns, err = repo.ListRecent(ctx, ports.ListTurnsOptions{SessionID: &session})
	if err != nil {
		t.Fatalf("ListRecent by session failed: %v", err)
	}
	if len(turns) != 2 {
		t.Errorf("expected 2 turns for s1, got %d", len(turns))
	}

	// Aggregate
	since := now.Add(-time.Hour).Format(time.RFC3339)
	agg, err := repo.GetAggregate(ctx, since)
	if err != nil {
		t.Fatalf("GetAggregate failed: %v", err)
	}
	if agg.TurnCount != 3 || agg.SessionCount != 2 {
		t.Errorf("expected 3 turns in 2 sessions, got %d in %d", agg.TurnCount, agg.SessionCount)
	}
	if agg.TotalToolCalls != 4 || agg.TotalToolErrors != 1 {
		t.Errorf("expected 4 tool calls with 1 error, got %d/%d", agg.TotalToolCalls, agg.TotalToolErrors)
	}
	if agg.BudgetExceeded != 1 || agg.FailedTurns != 1 {
		t.Errorf("expected 1 budget-exceeded and 1 failed, got %d/%d", agg.BudgetExceeded, agg.FailedTurns)
	}
	if agg.TotalTokenInput != 300 {
		t.Errorf("expected 300 input tokens, got %d", agg.TotalTokenInput)
	}

	// By capability
	byCap, err := repo.GetAggregateByCapability(ctx, since)
	if err != nil {
		t.Fatalf("GetAggregateByCapability failed: %v", err)
	}
	if len(byCap) != 2 || byCap[0].CapabilitySet != "performance" || byCap[0].TurnCount != 2 {
		t.Errorf("unexpected capability usage: %+v", byCap)
	}

	// Top tools
	tools, err := repo.GetTopTools(ctx, since, 5)
	if err != nil {
		t.Fatalf("GetTopTools failed: %v", err)
	}
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}
	if tools[0].ToolName != "compute_fps_statistics" || tools[0].TotalInvocations != 2 {
		t.Errorf("expected compute_fps_statistics x2 first, got %+v", tools[0])
	}

	// Empty window
	empty, err := repo.GetAggregate(ctx, now.Add(time.Hour).Format(time.RFC3339))
	if err != nil {
		t.Fatalf("GetAggregate (empty) failed: %v", err)
	}
	if empty.TurnCount != 0 || empty.TotalCostUSD != 0 {
		t.Errorf("expected empty aggregate, got %+v", empty)
	}

	// DeleteBefore removes the two older turns
	deleted, err := repo.DeleteBefore(ctx, now.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}
}

func TestPricingRepository(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := turso.NewPricingRepository(db)

	missing, err := repo.GetByModel(ctx, "claude-sonnet-4")
	if err != nil {
		t.Fatalf("GetByModel failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing override, got %+v", missing)
	}

	// Falls back to the built-in table
	p, err := repo.Resolve(ctx, "claude-sonnet-4-20250514")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.InputPerMillion != 3.00 {
		t.Errorf("expected built-in rate 3.00, got %v", p.InputPerMillion)
	}

	threshold := int64(100_000)
	if err := repo.Upsert(ctx, &domain.ModelPricing{
		Model:                "claude-sonnet-4",
		DisplayName:          "Sonnet (negotiated)",
		InputPerMillion:      2.00,
		OutputPerMillion:     10.00,
		LongContextThreshold: &threshold,
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	p, err = repo.Resolve(ctx, "claude-sonnet-4-20250514")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.InputPerMillion != 2.00 || p.DisplayName != "Sonnet (negotiated)" {
		t.Errorf("expected override, got %+v", p)
	}
	if p.LongContextThreshold == nil || *p.LongContextThreshold != threshold {
		t.Errorf("expected threshold %d, got %v", threshold, p.LongContextThreshold)
	}

	// Upsert updates in place
	if err := repo.Upsert(ctx, &domain.ModelPricing{Model: "claude-sonnet-4", DisplayName: "Sonnet", InputPerMillion: 2.5, OutputPerMillion: 11}); err != nil {
		t.Fatalf("Upsert (update) failed: %v", err)
	}
	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 || all[0].InputPerMillion != 2.5 {
		t.Errorf("expected one updated override, got %+v", all)
	}

	if err := repo.Delete(ctx, "claude-sonnet-4"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	all, _ = repo.List(ctx)
	if len(all) != 0 {
		t.Errorf("expected no overrides after delete, got %d", len(all))
	}
}
