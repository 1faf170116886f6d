package repositories

import (
	"context"

	"github.com/cashkeep/cashkeep/internal/core/domain"
)

// TransactionFilter narrows ListTransactions/SumCleared queries.
type TransactionFilter struct {
	AccountIDs   []string
	CategoryID   string
	From, To     *domain.Day
	ClearedOnly  bool
	Limit        int
	Offset       int
}

// TransactionRepository persists Transaction rows. Upsert-only: re-ingesting
// an existing idempotency_key may only change CategoryID, IsCleared, and
// ImportMeta.
type TransactionRepository interface {
	// UpsertTransaction inserts a new transaction or, if idempotency_key
	// already exists, updates only category_id/is_cleared/import_meta.
	// Returns true if a new row was inserted.
	UpsertTransaction(ctx context.Context, txn domain.Transaction) (inserted bool, err error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error)
	SumCleared(ctx context.Context, accountIDs []string, from, to *domain.Day) (int64, error)
	CountDistinctMonthsForPayee(ctx context.Context, payee string) (int, error)
}
