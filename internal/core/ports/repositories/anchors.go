package repositories

import (
	"context"

	"github.com/cashkeep/cashkeep/internal/core/domain"
)

// AnchorRepository persists operator-declared ground-truth balances, one per account.
type AnchorRepository interface {
	Upsert(ctx context.Context, a domain.AccountAnchor) error
	Get(ctx context.Context, accountID string) (*domain.AccountAnchor, error)
	ListAll(ctx context.Context) ([]domain.AccountAnchor, error)
}
