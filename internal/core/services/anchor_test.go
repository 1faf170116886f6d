package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/services"
)

func TestAnchorResolver_NoAnchor_FallsBackToClearedSum(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	asOf := day("2025-03-01")

	repos.Anchors.On("Get", ctx, "acct-1").Return(nil, apperrors.NotFound("no anchor"))
	repos.Transactions.On("SumCleared", ctx, []string{"acct-1"}, (*domain.Day)(nil), &asOf).Return(int64(12345), nil)

	resolver := services.NewAnchorResolver(repos.Repos())
	opening, err := resolver.Opening(ctx, asOf, []string{"acct-1"})
	require.NoError(t, err)
	require.Equal(t, int64(12345), opening)
}

func TestAnchorResolver_AnchorInPast_AddsForwardDelta(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	anchorDate := day("2025-02-01")
	asOf := day("2025-03-01")

	repos.Anchors.On("Get", ctx, "acct-1").Return(&domain.AccountAnchor{
		AccountID: "acct-1", AnchorDate: anchorDate, AnchorBalanceCents: 100000,
	}, nil)
	repos.Transactions.On("SumCleared", ctx, []string{"acct-1"}, &anchorDate, &asOf).Return(int64(-5000), nil)

	resolver := services.NewAnchorResolver(repos.Repos())
	opening, err := resolver.Opening(ctx, asOf, []string{"acct-1"})
	require.NoError(t, err)
	require.Equal(t, int64(95000), opening)
}

func TestAnchorResolver_AnchorInFuture_SubtractsBackwardDelta(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	anchorDate := day("2025-04-01")
	asOf := day("2025-03-01")

	repos.Anchors.On("Get", ctx, "acct-1").Return(&domain.AccountAnchor{
		AccountID: "acct-1", AnchorDate: anchorDate, AnchorBalanceCents: 100000,
	}, nil)
	repos.Transactions.On("SumCleared", ctx, []string{"acct-1"}, &asOf, &anchorDate).Return(int64(7000), nil)

	resolver := services.NewAnchorResolver(repos.Repos())
	opening, err := resolver.Opening(ctx, asOf, []string{"acct-1"})
	require.NoError(t, err)
	require.Equal(t, int64(93000), opening)
}

func TestAnchorResolver_SumsAcrossMultipleAccounts(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	asOf := day("2025-03-01")

	repos.Anchors.On("Get", ctx, "acct-1").Return(nil, apperrors.NotFound("no anchor"))
	repos.Anchors.On("Get", ctx, "acct-2").Return(nil, apperrors.NotFound("no anchor"))
	repos.Transactions.On("SumCleared", ctx, []string{"acct-1"}, (*domain.Day)(nil), &asOf).Return(int64(1000), nil)
	repos.Transactions.On("SumCleared", ctx, []string{"acct-2"}, (*domain.Day)(nil), &asOf).Return(int64(2000), nil)

	resolver := services.NewAnchorResolver(repos.Repos())
	opening, err := resolver.Opening(ctx, asOf, []string{"acct-1", "acct-2"})
	require.NoError(t, err)
	require.Equal(t, int64(3000), opening)
}
