package repositories

import (
	"context"

	"github.com/cashkeep/cashkeep/internal/core/domain"
)

// CommitmentRepository persists recurring obligations.
type CommitmentRepository interface {
	Upsert(ctx context.Context, c domain.Commitment) error
	Get(ctx context.Context, id string) (*domain.Commitment, error)
	ListActive(ctx context.Context) ([]domain.Commitment, error)
	Delete(ctx context.Context, id string) error
}

// ScheduledInflowRepository persists recurring inflows.
type ScheduledInflowRepository interface {
	Upsert(ctx context.Context, i domain.ScheduledInflow) error
	Get(ctx context.Context, id string) (*domain.ScheduledInflow, error)
	ListActive(ctx context.Context) ([]domain.ScheduledInflow, error)
	Delete(ctx context.Context, id string) error
}

// KeySpendEventRepository persists discrete dated events.
type KeySpendEventRepository interface {
	Upsert(ctx context.Context, e domain.KeySpendEvent) error
	Get(ctx context.Context, id string) (*domain.KeySpendEvent, error)
	ListAll(ctx context.Context) ([]domain.KeySpendEvent, error)
	ListInRange(ctx context.Context, from, to domain.Day) ([]domain.KeySpendEvent, error)
	ListUpcoming(ctx context.Context, asOf domain.Day) ([]domain.KeySpendEvent, error)
	Delete(ctx context.Context, id string) error
}
