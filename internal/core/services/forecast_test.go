package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/services"
)

func TestForecastEngine_ComposeFromEntries_TracksMinBalanceAndCliff(t *testing.T) {
	start, end := day("2025-01-01"), day("2025-01-10")
	entries := []domain.Entry{
		{Date: day("2025-01-02"), SignedAmountCents: -8000, Type: domain.EntryCommitment, SourceID: "c1"},
		{Date: day("2025-01-05"), SignedAmountCents: 5000, Type: domain.EntryInflow, SourceID: "i1"},
	}

	fc := services.NewForecastEngine(newMockRepos().Repos()).ComposeFromEntries(start, end, 10000, entries, 5000)

	require.Equal(t, int64(2000), fc.MinBalanceCents)
	require.Equal(t, day("2025-01-02"), fc.MinBalanceDate)
	require.NotNil(t, fc.NextCliffDate)
	require.Equal(t, day("2025-01-02"), *fc.NextCliffDate) // first day the running balance drops to/below the 5000 floor
}

func TestForecastEngine_ComposeFromEntries_NoCliffWhenAboveFloor(t *testing.T) {
	start, end := day("2025-01-01"), day("2025-01-05")
	entries := []domain.Entry{
		{Date: day("2025-01-02"), SignedAmountCents: -1000, Type: domain.EntryCommitment, SourceID: "c1"},
	}

	fc := services.NewForecastEngine(newMockRepos().Repos()).ComposeFromEntries(start, end, 10000, entries, 0)
	require.Nil(t, fc.NextCliffDate)
	require.Equal(t, int64(9000), fc.MinBalanceCents)
}

func TestForecastEngine_ComposeFromEntries_EmptySeriesFlag(t *testing.T) {
	start, end := day("2025-01-01"), day("2025-01-05")
	fc := services.NewForecastEngine(newMockRepos().Repos()).ComposeFromEntries(start, end, 10000, nil, 0)
	require.True(t, fc.EmptySeries)
	require.Equal(t, int64(10000), fc.MinBalanceCents)
}

func TestForecastEngine_SafeToSpend_MatchesExpectedHeadroom(t *testing.T) {
	start, end := day("2025-01-01"), day("2025-01-10")
	// Opening 10000, one future outflow of 3000 on day 5, floor 0.
	// Spending x on day 1 propagates through the whole horizon; the tightest
	// day is day 5 with balance (10000 - x - 3000). Max safe x is 7000.
	entries := []domain.Entry{
		{Date: day("2025-01-05"), SignedAmountCents: -3000, Type: domain.EntryCommitment, SourceID: "c1"},
	}
	fc := services.NewForecastEngine(newMockRepos().Repos()).ComposeFromEntries(start, end, 10000, entries, 0)
	require.Equal(t, int64(7000), fc.SafeToSpendCents)
}

func TestForecastEngine_Compute_ComposesOpeningAndCalendar(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	start, end := day("2025-01-01"), day("2025-01-05")
	openingAsOf := start.AddDays(-1)

	repos.Anchors.On("Get", ctx, "acct-1").Return(nil, apperrors.NotFound("no anchor"))
	repos.Transactions.On("SumCleared", ctx, []string{"acct-1"}, (*domain.Day)(nil), &openingAsOf).Return(int64(50000), nil)
	repos.Inflows.On("ListActive", ctx).Return([]domain.ScheduledInflow{}, nil)
	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{}, nil)
	repos.KeyEvents.On("ListAll", ctx).Return([]domain.KeySpendEvent{}, nil)

	fc, err := services.NewForecastEngine(repos.Repos()).Compute(ctx, start, end, []string{"acct-1"}, 0)
	require.NoError(t, err)
	require.Equal(t, int64(50000), fc.OpeningCents)
	require.Equal(t, int64(50000), fc.MinBalanceCents)
}
