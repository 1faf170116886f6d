package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/services"
)

func TestSnapshotJob_Run_PersistsSnapshotAndEvaluatesAlerts(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	today := day("2025-01-01")
	end := today.AddDays(120)

	repos.Inflows.On("ListActive", ctx).Return([]domain.ScheduledInflow{}, nil)
	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{}, nil)
	repos.KeyEvents.On("ListAll", ctx).Return([]domain.KeySpendEvent{}, nil)
	repos.Snapshots.On("Insert", ctx, mock.AnythingOfType("domain.ForecastSnapshot")).Return(nil)

	repos.Snapshots.On("Previous", ctx, mock.AnythingOfType("string")).Return(nil, apperrors.NotFound("no previous"))
	repos.Anchors.On("ListAll", ctx).Return([]domain.AccountAnchor{}, nil)
	repos.Transactions.On("ListTransactions", ctx, mock.Anything).Return([]domain.Transaction{}, nil)
	repos.Alerts.On("ListUnresolved", ctx).Return([]domain.Alert{}, nil)

	job := services.NewSnapshotJob(repos.Repos(), services.AlertThresholds{
		MinBalanceDropCents: 10000, LargeDebitCents: 50000,
		DriftAmountToleranceCents: 500, DriftDateToleranceDays: 2,
	})
	snap, err := job.Run(ctx, today, []string{}, -100)
	require.NoError(t, err)
	require.Equal(t, today, snap.HorizonStart)
	require.Equal(t, end, snap.HorizonEnd)
	require.Equal(t, int64(0), snap.MinBalanceCents)
	repos.Snapshots.AssertCalled(t, "Insert", ctx, mock.AnythingOfType("domain.ForecastSnapshot"))
}

func TestSnapshotJob_Digest_ComputesSafeToSpendAndTopCommitments(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	horizonStart := day("2025-01-01")
	horizonEnd := day("2025-01-02")

	rent := domain.Commitment{
		CommitmentID: "rent", Name: "Rent", AmountCents: 150000, DueRule: "fixed:2025-01-05",
		NextDueDate: day("2025-01-05"), Priority: 1, IsActive: true,
	}

	latest := domain.ForecastSnapshot{
		SnapshotID:      "snap-9",
		CreatedAt:       time.Now().UTC(),
		HorizonStart:    horizonStart,
		HorizonEnd:      horizonEnd,
		Payload:         `{"entries":[],"balances":{"2025-01-01":15000,"2025-01-02":14500},"openingCents":15000}`,
		MinBalanceCents: 3000,
		MinBalanceDate:  day("2025-01-10"),
	}

	repos.Snapshots.On("Latest", ctx).Return(&latest, nil)
	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{rent}, nil)
	repos.KeyEvents.On("ListUpcoming", ctx, horizonStart).Return([]domain.KeySpendEvent{}, nil)

	job := services.NewSnapshotJob(repos.Repos(), services.AlertThresholds{})
	digest, err := job.Digest(ctx, 24*time.Hour, 5000)
	require.NoError(t, err)
	require.Equal(t, int64(15000), digest.CurrentBalanceCents)
	require.Equal(t, int64(10000), digest.SafeToSpendCents)
	require.Nil(t, digest.NextCliffDate)
	require.Equal(t, int64(3000), digest.MinBalanceCents)
	require.False(t, digest.Stale)
	require.Len(t, digest.TopCommitments, 1)
	require.Equal(t, "rent", digest.TopCommitments[0].CommitmentID)
}

func TestSnapshotJob_Digest_MarksStaleWhenOlderThanThreshold(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	horizonStart := day("2025-01-01")
	horizonEnd := day("2025-01-02")

	latest := domain.ForecastSnapshot{
		SnapshotID:   "snap-old",
		CreatedAt:    time.Now().UTC().Add(-2 * time.Hour),
		HorizonStart: horizonStart,
		HorizonEnd:   horizonEnd,
		Payload:      `{"entries":[],"balances":{"2025-01-01":1000,"2025-01-02":1000}}`,
	}

	repos.Snapshots.On("Latest", ctx).Return(&latest, nil)
	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{}, nil)
	repos.KeyEvents.On("ListUpcoming", ctx, horizonStart).Return([]domain.KeySpendEvent{}, nil)

	job := services.NewSnapshotJob(repos.Repos(), services.AlertThresholds{})
	digest, err := job.Digest(ctx, 1*time.Hour, 500)
	require.NoError(t, err)
	require.True(t, digest.Stale)
}
