package turso

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/emiliopalmerini/framescope/internal/database"
	"github.com/emiliopalmerini/framescope/internal/domain"
	"github.com/emiliopalmerini/framescope/internal/ports"
)

const defaultListLimit = 50

type TurnRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewTurnRepository(db *sql.DB) *TurnRepository {
	return &TurnRepository{db: db, queries: NewQueries(db)}
}

// Create records a turn and its tool invocations in one transaction.
func (r *TurnRepository) Create(ctx context.Context, turn *domain.TurnRecord, tools []domain.ToolInvocation) error {
	_, err := database.WithRetry(ctx, 2, func() (struct{}, error) {
		return struct{}{}, r.create(ctx, turn, tools)
	})
	return err
}

func (r *TurnRepository) create(ctx context.Context, turn *domain.TurnRecord, tools []domain.ToolInvocation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := r.queries.WithTx(tx)
	if err := q.CreateTurn(ctx, CreateTurnParams{
		ID:            turn.ID,
		SessionID:     turn.SessionID,
		CapabilitySet: turn.CapabilitySet,
		Model:         turn.Model,
		Question:      turn.Question,
		TokenInput:    turn.TokenInput,
		TokenOutput:   turn.TokenOutput,
		ToolCalls:     turn.ToolCalls,
		ToolErrors:    turn.ToolErrors,
		ChartCount:    turn.ChartCount,
		Iterations:    turn.Iterations,
		FinalState:    string(turn.FinalState),
		CostUsd:       turn.CostUSD,
		DurationMs:    turn.DurationMs,
		CreatedAt:     turn.CreatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("failed to create turn: %w", err)
	}

	for _, tool := range tools {
		if err := q.CreateTurnTool(ctx, turn.ID, tool.ToolName, sqliteBool(tool.IsError)); err != nil {
			return fmt.Errorf("failed to record tool %s: %w", tool.ToolName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turn: %w", err)
	}
	return nil
}

func (r *TurnRepository) ListRecent(ctx context.Context, opts ports.ListTurnsOptions) ([]*domain.TurnRecord, error) {
	limit := int64(opts.Limit)
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []TurnRow
	var err error
	if opts.SessionID != nil {
		rows, err = r.queries.ListTurnsBySession(ctx, *opts.SessionID, limit)
	} else {
		rows, err = r.queries.ListTurns(ctx, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}

	turns := make([]*domain.TurnRecord, len(rows))
	for i, row := range rows {
		turns[i] = turnFromRow(row)
	}
	return turns, nil
}

func (r *TurnRepository) GetAggregate(ctx context.Context, since string) (*domain.AggregateUsage, error) {
	row, err := r.queries.GetAggregateUsage(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate usage: %w", err)
	}
	agg := aggregateFromRow(row)
	return &agg, nil
}

func (r *TurnRepository) GetAggregateByCapability(ctx context.Context, since string) ([]domain.CapabilityUsage, error) {
	rows, err := r.queries.GetAggregateUsageByCapability(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get capability usage: %w", err)
	}
	out := make([]domain.CapabilityUsage, len(rows))
	for i, row := range rows {
		out[i] = domain.CapabilityUsage{
			CapabilitySet:  row.CapabilitySet,
			AggregateUsage: aggregateFromRow(row.AggregateRow),
		}
	}
	return out, nil
}

func (r *TurnRepository) GetTopTools(ctx context.Context, since string, limit int) ([]domain.ToolUsageStats, error) {
	rows, err := r.queries.GetTopTools(ctx, since, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get top tools: %w", err)
	}
	tools := make([]domain.ToolUsageStats, len(rows))
	for i, row := range rows {
		tools[i] = domain.ToolUsageStats{
			ToolName:         row.ToolName,
			TotalInvocations: row.TotalInvocations,
			TotalErrors:      row.TotalErrors.Int64,
		}
	}
	return tools, nil
}

func (r *TurnRepository) DeleteBefore(ctx context.Context, before string) (int64, error) {
	n, err := r.queries.DeleteTurnsBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete turns: %w", err)
	}
	return n, nil
}

func turnFromRow(row TurnRow) *domain.TurnRecord {
	createdAt := parseTimestamp(row.CreatedAt)
	return &domain.TurnRecord{
		ID:            row.ID,
		SessionID:     row.SessionID,
		CapabilitySet: row.CapabilitySet,
		Model:         row.Model,
		Question:      row.Question,
		TokenInput:    row.TokenInput,
		TokenOutput:   row.TokenOutput,
		ToolCalls:     row.ToolCalls,
		ToolErrors:    row.ToolErrors,
		ChartCount:    row.ChartCount,
		Iterations:    row.Iterations,
		FinalState:    domain.LoopState(row.FinalState),
		CostUSD:       row.CostUsd,
		DurationMs:    row.DurationMs,
		CreatedAt:     createdAt,
	}
}

func aggregateFromRow(row AggregateRow) domain.AggregateUsage {
	return domain.AggregateUsage{
		TurnCount:        row.TurnCount,
		SessionCount:     row.SessionCount,
		TotalIterations:  row.TotalIterations.Int64,
		TotalTokenInput:  row.TotalTokenInput.Int64,
		TotalTokenOutput: row.TotalTokenOutput.Int64,
		TotalToolCalls:   row.TotalToolCalls.Int64,
		TotalToolErrors:  row.TotalToolErrors.Int64,
		TotalCharts:      row.TotalCharts.Int64,
		BudgetExceeded:   row.BudgetExceeded.Int64,
		FailedTurns:      row.FailedTurns.Int64,
		TotalCostUSD:     row.TotalCostUsd.Float64,
		TotalDurationMs:  row.TotalDurationMs.Int64,
	}
}
