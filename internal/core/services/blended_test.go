package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
	"github.com/cashkeep/cashkeep/internal/core/services"
)

func clearedFilter(from, to domain.Day) repositories.TransactionFilter {
	return repositories.TransactionFilter{From: &from, To: &to, ClearedOnly: true}
}

func TestBlendedOverlay_ComputeDailyStats_ExcludesIncomeAndFixedCategories(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	asOf := day("2025-06-30")
	start := asOf.AddDays(-179)

	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{
		{CommitmentID: "rent", CategoryID: "cat-rent", IsActive: true},
	}, nil)
	repos.KeyEvents.On("ListAll", ctx).Return([]domain.KeySpendEvent{}, nil)
	repos.Transactions.On("ListTransactions", ctx, clearedFilter(start, asOf)).Return([]domain.Transaction{
		{PostedAt: asOf, AmountCents: -2000, CategoryID: "cat-groceries"},
		{PostedAt: asOf, AmountCents: 500000, CategoryID: "cat-salary"},          // income excluded
		{PostedAt: asOf, AmountCents: -150000, CategoryID: "cat-rent"},           // fixed cost excluded
		{PostedAt: asOf.AddDays(-1), AmountCents: -1000, CategoryID: "cat-fuel"},
	}, nil)

	overlay := services.NewBlendedOverlay(repos.Repos())
	stats, err := overlay.ComputeDailyStats(ctx, asOf)
	require.NoError(t, err)
	// Only the two variable-spend debits count: 2000 on asOf, 1000 the day
	// before, zero everywhere else across 180 days.
	require.Greater(t, stats.MeanCents, int64(0))
	require.Less(t, stats.MeanCents, int64(2000))
}

func TestBlendedOverlay_ComputeWeekdayMultipliers_NeutralWhenSparse(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	asOf := day("2025-06-30")
	start := asOf.AddDays(-179)

	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{}, nil)
	repos.KeyEvents.On("ListAll", ctx).Return([]domain.KeySpendEvent{}, nil)
	repos.Transactions.On("ListTransactions", ctx, clearedFilter(start, asOf)).Return([]domain.Transaction{
		{PostedAt: asOf, AmountCents: -1000},
	}, nil)

	overlay := services.NewBlendedOverlay(repos.Repos())
	mult, err := overlay.ComputeWeekdayMultipliers(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, [7]float64{1, 1, 1, 1, 1, 1, 1}, mult)
}

func TestBlendedOverlay_Blend_SubtractsExpectedAndAddsBands(t *testing.T) {
	fc := &services.Forecast{
		Start: day("2025-01-01"), End: day("2025-01-02"),
		Balances: services.Series{"2025-01-01": 10000, "2025-01-02": 9500},
	}
	stats := services.DailyStats{MeanCents: 200, StdDevCents: 50}
	neutral := [7]float64{1, 1, 1, 1, 1, 1, 1}

	blended := services.NewBlendedOverlay(newMockRepos().Repos()).Blend(fc, stats, neutral, 2.0)
	require.Equal(t, int64(9800), blended.Baseline["2025-01-01"])
	require.Equal(t, int64(9700), blended.Lower["2025-01-01"])
	require.Equal(t, int64(9900), blended.Upper["2025-01-01"])
}
