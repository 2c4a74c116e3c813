package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

// PricingRepository stores per-model rate overrides.
type PricingRepository struct {
	queries *Queries
}

func NewPricingRepository(db *sql.DB) *PricingRepository {
	return &PricingRepository{queries: NewQueries(db)}
}

func (r *PricingRepository) Upsert(ctx context.Context, p *domain.ModelPricing) error {
	err := r.queries.UpsertModelPricing(ctx, UpsertModelPricingParams{
		Model:                       p.Model,
		DisplayName:                 p.DisplayName,
		InputPerMillion:             p.InputPerMillion,
		OutputPerMillion:            p.OutputPerMillion,
		LongContextInputPerMillion:  nullFloat(p.LongContextInputPerMillion),
		LongContextOutputPerMillion: nullFloat(p.LongContextOutputPerMillion),
		LongContextThreshold:        nullInt(p.LongContextThreshold),
		CreatedAt:                   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert model pricing: %w", err)
	}
	return nil
}

// GetByModel returns the override stored for exactly this model, or nil.
func (r *PricingRepository) GetByModel(ctx context.Context, model string) (*domain.ModelPricing, error) {
	row, err := r.queries.GetModelPricing(ctx, model)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get model pricing: %w", err)
	}
	return pricingFromRow(row), nil
}

func (r *PricingRepository) List(ctx context.Context) ([]*domain.ModelPricing, error) {
	rows, err := r.queries.ListModelPricing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list model pricing: %w", err)
	}

	pricing := make([]*domain.ModelPricing, len(rows))
	for i, row := range rows {
		pricing[i] = pricingFromRow(row)
	}
	return pricing, nil
}

func (r *PricingRepository) Delete(ctx context.Context, model string) error {
	return r.queries.DeleteModelPricing(ctx, model)
}

// Resolve returns the stored override whose model is the longest prefix of
// model, falling back to the built-in table.
func (r *PricingRepository) Resolve(ctx context.Context, model string) (domain.ModelPricing, error) {
	overrides, err := r.List(ctx)
	if err != nil {
		return domain.ModelPricing{}, err
	}
	var best *domain.ModelPricing
	for _, p := range overrides {
		if strings.HasPrefix(model, p.Model) && (best == nil || len(p.Model) > len(best.Model)) {
			best = p
		}
	}
	if best != nil {
		return *best, nil
	}
	return domain.PricingFor(model), nil
}

func pricingFromRow(row ModelPricingRow) *domain.ModelPricing {
	p := &domain.ModelPricing{
		Model:            row.Model,
		DisplayName:      row.DisplayName,
		InputPerMillion:  row.InputPerMillion,
		OutputPerMillion: row.OutputPerMillion,
	}
	p.LongContextInputPerMillion = floatPtr(row.LongContextInputPerMillion)
	p.LongContextOutputPerMillion = floatPtr(row.LongContextOutputPerMillion)
	p.LongContextThreshold = intPtr(row.LongContextThreshold)
	return p
}
