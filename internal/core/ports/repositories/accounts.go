package repositories

import (
	"context"

	"github.com/cashkeep/cashkeep/internal/core/domain"
)

// AccountRepository persists Account rows. Accounts are created by the
// Ingestor on first sight and never deleted, only deactivated.
type AccountRepository interface {
	UpsertAccount(ctx context.Context, account domain.Account) error
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	FindAccountByExternalID(ctx context.Context, source, externalID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error)
	Deactivate(ctx context.Context, accountID string) error
}
