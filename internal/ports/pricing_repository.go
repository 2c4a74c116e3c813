package ports

import (
	"context"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

type PricingRepository interface {
	Upsert(ctx context.Context, pricing *domain.ModelPricing) error
	GetByModel(ctx context.Context, model string) (*domain.ModelPricing, error)
	List(ctx context.Context) ([]*domain.ModelPricing, error)
	Delete(ctx context.Context, model string) error
	// Resolve finds the rates that apply to a model, falling back to domain.PricingFor.
	Resolve(ctx context.Context, model string) (domain.ModelPricing, error)
}
