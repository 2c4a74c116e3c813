package turso

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the ledger's SQL statements.
type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createTurn = `
INSERT INTO turns (
    id, session_id, capability_set, model, question, token_input, token_output,
    tool_calls, tool_errors, chart_count, iterations, final_state, cost_usd,
    duration_ms, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateTurnParams struct {
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
	FinalState    string
	CostUsd       float64
	DurationMs    int64
	CreatedAt     string
}

func (q *Queries) CreateTurn(ctx context.Context, arg CreateTurnParams) error {
	_, err := q.db.ExecContext(ctx, createTurn,
		arg.ID, arg.SessionID, arg.CapabilitySet, arg.Model, arg.Question,
		arg.TokenInput, arg.TokenOutput, arg.ToolCalls, arg.ToolErrors,
		arg.ChartCount, arg.Iterations, arg.FinalState, arg.CostUsd,
		arg.DurationMs, arg.CreatedAt,
	)
	return err
}

const createTurnTool = `INSERT INTO turn_tools (turn_id, tool_name, is_error) VALUES (?, ?, ?)`

func (q *Queries) CreateTurnTool(ctx context.Context, turnID, toolName string, isError int64) error {
	_, err := q.db.ExecContext(ctx, createTurnTool, turnID, toolName, isError)
	return err
}

type TurnRow struct {
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
	FinalState    string
	CostUsd       float64
	DurationMs    int64
	CreatedAt     string
}

const turnColumns = `id, session_id, capability_set, model, question, token_input, token_output,
    tool_calls, tool_errors, chart_count, iterations, final_state, cost_usd, duration_ms, created_at`

const listTurns = `SELECT ` + turnColumns + ` FROM turns ORDER BY created_at DESC, id LIMIT ?`

const listTurnsBySession = `SELECT ` + turnColumns + ` FROM turns WHERE session_id = ? ORDER BY created_at DESC, id LIMIT ?`

func (q *Queries) ListTurns(ctx context.Context, limit int64) ([]TurnRow, error) {
	rows, err := q.db.QueryContext(ctx, listTurns, limit)
	if err != nil {
		return nil, err
	}
	return scanTurns(rows)
}

func (q *Queries) ListTurnsBySession(ctx context.Context, sessionID string, limit int64) ([]TurnRow, error) {
	rows, err := q.db.QueryContext(ctx, listTurnsBySession, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return scanTurns(rows)
}

func scanTurns(rows *sql.Rows) ([]TurnRow, error) {
	defer func() { _ = rows.Close() }()
	var items []TurnRow
	for rows.Next() {
		var i TurnRow
		if err := rows.Scan(
			&i.ID, &i.SessionID, &i.CapabilitySet, &i.Model, &i.Question,
			&i.TokenInput, &i.TokenOutput, &i.ToolCalls, &i.ToolErrors,
			&i.ChartCount, &i.Iterations, &i.FinalState, &i.CostUsd,
			&i.DurationMs, &i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const aggregateColumns = `
    COUNT(*) AS turn_count,
    COUNT(DISTINCT session_id) AS session_count,
    SUM(iterations) AS total_iterations,
    SUM(token_input) AS total_token_input,
    SUM(token_output) AS total_token_output,
    SUM(tool_calls) AS total_tool_calls,
    SUM(tool_errors) AS total_tool_errors,
    SUM(chart_count) AS total_charts,
    SUM(CASE WHEN final_state = 'done_budget_exceeded' THEN 1 ELSE 0 END) AS budget_exceeded,
    SUM(CASE WHEN final_state = 'failed' THEN 1 ELSE 0 END) AS failed_turns,
    SUM(cost_usd) AS total_cost_usd,
    SUM(duration_ms) AS total_duration_ms`

const getAggregateUsage = `SELECT` + aggregateColumns + ` FROM turns WHERE created_at >= ?`

const getAggregateUsageByCapability = `SELECT capability_set,` + aggregateColumns + `
FROM turns WHERE created_at >= ?
GROUP BY capability_set
ORDER BY turn_count DESC, capability_set`

// AggregateRow carries nullable sums; SUM over zero rows is NULL.
type AggregateRow struct {
	TurnCount        int64
	SessionCount     int64
	TotalIterations  sql.NullInt64
	TotalTokenInput  sql.NullInt64
	TotalTokenOutput sql.NullInt64
	TotalToolCalls   sql.NullInt64
	TotalToolErrors  sql.NullInt64
	TotalCharts      sql.NullInt64
	BudgetExceeded   sql.NullInt64
	FailedTurns      sql.NullInt64
	TotalCostUsd     sql.NullFloat64
	TotalDurationMs  sql.NullInt64
}

func (r *AggregateRow) scanTargets() []any {
	return []any{
		&r.TurnCount, &r.SessionCount, &r.TotalIterations, &r.TotalTokenInput,
		&r.TotalTokenOutput, &r.TotalToolCalls, &r.TotalToolErrors, &r.TotalCharts,
		&r.BudgetExceeded, &r.FailedTurns, &r.TotalCostUsd, &r.TotalDurationMs,
	}
}

func (q *Queries) GetAggregateUsage(ctx context.Context, since string) (AggregateRow, error) {
	var r AggregateRow
	err := q.db.QueryRowContext(ctx, getAggregateUsage, since).Scan(r.scanTargets()...)
	return r, err
}

type CapabilityAggregateRow struct {
	CapabilitySet string
	AggregateRow
}

func (q *Queries) GetAggregateUsageByCapability(ctx context.Context, since string) ([]CapabilityAggregateRow, error) {
	rows, err := q.db.QueryContext(ctx, getAggregateUsageByCapability, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []CapabilityAggregateRow
	for rows.Next() {
		var i CapabilityAggregateRow
		targets := append([]any{&i.CapabilitySet}, i.AggregateRow.scanTargets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getTopTools = `
SELECT tt.tool_name, COUNT(*) AS total_invocations, SUM(tt.is_error) AS total_errors
FROM turn_tools tt
JOIN turns t ON t.id = tt.turn_id
WHERE t.created_at >= ?
GROUP BY tt.tool_name
ORDER BY total_invocations DESC, tt.tool_name
LIMIT ?`

type TopToolRow struct {
	ToolName         string
	TotalInvocations int64
	TotalErrors      sql.NullInt64
}

func (q *Queries) GetTopTools(ctx context.Context, since string, limit int64) ([]TopToolRow, error) {
	rows, err := q.db.QueryContext(ctx, getTopTools, since, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []TopToolRow
	for rows.Next() {
		var i TopToolRow
		if err := rows.Scan(&i.ToolName, &i.TotalInvocations, &i.TotalErrors); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteTurnToolsBefore = `DELETE FROM turn_tools WHERE turn_id IN (SELECT id FROM turns WHERE created_at < ?)`

const deleteTurnsBefore = `DELETE FROM turns WHERE created_at < ?`

func (q *Queries) DeleteTurnsBefore(ctx context.Context, before string) (int64, error) {
	if _, err := q.db.ExecContext(ctx, deleteTurnToolsBefore, before); err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, deleteTurnsBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const upsertModelPricing = `
INSERT INTO model_pricing (
    model, display_name, input_per_million, output_per_million,
    long_context_input_per_million, long_context_output_per_million,
    long_context_threshold, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(model) DO UPDATE SET
    display_name = excluded.display_name,
    input_per_million = excluded.input_per_million,
    output_per_million = excluded.output_per_million,
    long_context_input_per_million = excluded.long_context_input_per_million,
    long_context_output_per_million = excluded.long_context_output_per_million,
    long_context_threshold = excluded.long_context_threshold`

type UpsertModelPricingParams struct {
	Model                       string
	DisplayName                 string
	InputPerMillion             float64
	OutputPerMillion            float64
	LongContextInputPerMillion  sql.NullFloat64
	LongContextOutputPerMillion sql.NullFloat64
	LongContextThreshold        sql.NullInt64
	CreatedAt                   string
}

func (q *Queries) UpsertModelPricing(ctx context.Context, arg UpsertModelPricingParams) error {
	_, err := q.db.ExecContext(ctx, upsertModelPricing,
		arg.Model, arg.DisplayName, arg.InputPerMillion, arg.OutputPerMillion,
		arg.LongContextInputPerMillion, arg.LongContextOutputPerMillion,
		arg.LongContextThreshold, arg.CreatedAt,
	)
	return err
}

type ModelPricingRow struct {
	Model                       string
	DisplayName                 string
	InputPerMillion             float64
	OutputPerMillion            float64
	LongContextInputPerMillion  sql.NullFloat64
	LongContextOutputPerMillion sql.NullFloat64
	LongContextThreshold        sql.NullInt64
}

const pricingColumns = `model, display_name, input_per_million, output_per_million,
    long_context_input_per_million, long_context_output_per_million, long_context_threshold`

func (r *ModelPricingRow) scanTargets() []any {
	return []any{
		&r.Model, &r.DisplayName, &r.InputPerMillion, &r.OutputPerMillion,
		&r.LongContextInputPerMillion, &r.LongContextOutputPerMillion, &r.LongContextThreshold,
	}
}

const getModelPricing = `SELECT ` + pricingColumns + ` FROM model_pricing WHERE model = ?`

func (q *Queries) GetModelPricing(ctx context.Context, model string) (ModelPricingRow, error) {
	var r ModelPricingRow
	err := q.db.QueryRowContext(ctx, getModelPricing, model).Scan(r.scanTargets()...)
	return r, err
}

const listModelPricing = `SELECT ` + pricingColumns + ` FROM model_pricing ORDER BY model`

func (q *Queries) ListModelPricing(ctx context.Context) ([]ModelPricingRow, error) {
	rows, err := q.db.QueryContext(ctx, listModelPricing)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ModelPricingRow
	for rows.Next() {
		var i ModelPricingRow
		if err := rows.Scan(i.scanTargets()...); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteModelPricing = `DELETE FROM model_pricing WHERE model = ?`

func (q *Queries) DeleteModelPricing(ctx context.Context, model string) error {
	_, err := q.db.ExecContext(ctx, deleteModelPricing, model)
	return err
}
