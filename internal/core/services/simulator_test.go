package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/services"
)

func TestSimulator_SimulateSpend_SafeWhenWithinFloor(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	date := day("2025-01-01")
	openingAsOf := date.AddDays(-1)

	repos.Anchors.On("Get", ctx, "acct-1").Return(nil, apperrors.NotFound("no anchor"))
	repos.Transactions.On("SumCleared", ctx, []string{"acct-1"}, (*domain.Day)(nil), &openingAsOf).Return(int64(20000), nil)
	repos.Inflows.On("ListActive", ctx).Return([]domain.ScheduledInflow{}, nil)
	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{}, nil)
	repos.KeyEvents.On("ListAll", ctx).Return([]domain.KeySpendEvent{}, nil)

	sim := services.NewSimulator(repos.Repos())
	result, err := sim.SimulateSpend(ctx, date, 5000, []string{"acct-1"}, 0, 10)
	require.NoError(t, err)
	require.True(t, result.Safe)
	require.Equal(t, int64(15000), result.NewMinBalanceCents)
	require.Equal(t, int64(20000), result.MaxSafeTodayCents)
}

func TestSimulator_SimulateSpend_UnsafeWhenBelowFloor(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	date := day("2025-01-01")
	openingAsOf := date.AddDays(-1)

	repos.Anchors.On("Get", ctx, "acct-1").Return(nil, apperrors.NotFound("no anchor"))
	repos.Transactions.On("SumCleared", ctx, []string{"acct-1"}, (*domain.Day)(nil), &openingAsOf).Return(int64(3000), nil)
	repos.Inflows.On("ListActive", ctx).Return([]domain.ScheduledInflow{}, nil)
	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{}, nil)
	repos.KeyEvents.On("ListAll", ctx).Return([]domain.KeySpendEvent{}, nil)

	sim := services.NewSimulator(repos.Repos())
	result, err := sim.SimulateSpend(ctx, date, 5000, []string{"acct-1"}, 0, 10)
	require.NoError(t, err)
	require.False(t, result.Safe)
	require.Equal(t, int64(-2000), result.NewMinBalanceCents)
	require.Equal(t, int64(3000), result.MaxSafeTodayCents)
}
