package ports

import (
	"context"

	"github.com/emiliopalmerini/framescope/internal/domain"
)

// TurnRepository is the usage ledger of completed chat turns.
type TurnRepository interface {
	Create(ctx context.Context, turn *domain.TurnRecord, tools []domain.ToolInvocation) error
	ListRecent(ctx context.Context, opts ListTurnsOptions) ([]*domain.TurnRecord, error)
	GetAggregate(ctx context.Context, since string) (*domain.AggregateUsage, error)
	GetAggregateByCapability(ctx context.Context, since string) ([]domain.CapabilityUsage, error)
	GetTopTools(ctx context.Context, since string, limit int) ([]domain.ToolUsageStats, error)
	DeleteBefore(ctx context.Context, before string) (int64, error)
}

type ListTurnsOptions struct {
	Limit     int
	SessionID *string
}
