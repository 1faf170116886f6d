package services

import (
	"context"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

// AnchorResolver computes opening balances from operator-declared ground
// truth plus cleared-transaction deltas. Every method here is a pure
// function of stored state; it never reads the wall clock.
type AnchorResolver struct {
	repos repositories.Repos
}

func NewAnchorResolver(repos repositories.Repos) *AnchorResolver {
	return &AnchorResolver{repos: repos}
}

// Opening returns the opening balance across accountIDs as of asOf.
func (r *AnchorResolver) Opening(ctx context.Context, asOf domain.Day, accountIDs []string) (int64, error) {
	var total int64
	for _, accountID := range accountIDs {
		bal, err := r.openingForAccount(ctx, asOf, accountID)
		if err != nil {
			return 0, err
		}
		total += bal
	}
	return total, nil
}

func (r *AnchorResolver) openingForAccount(ctx context.Context, asOf domain.Day, accountID string) (int64, error) {
	anchor, err := r.repos.Anchors.Get(ctx, accountID)
	if err != nil {
		if !isNotFound(err) {
			return 0, err
		}
		return r.repos.Transactions.SumCleared(ctx, []string{accountID}, nil, &asOf)
	}

	if !asOf.Before(anchor.AnchorDate) {
		delta, err := r.repos.Transactions.SumCleared(ctx, []string{accountID}, &anchor.AnchorDate, &asOf)
		if err != nil {
			return 0, err
		}
		return anchor.AnchorBalanceCents + delta, nil
	}

	delta, err := r.repos.Transactions.SumCleared(ctx, []string{accountID}, &asOf, &anchor.AnchorDate)
	if err != nil {
		return 0, err
	}
	return anchor.AnchorBalanceCents - delta, nil
}
