package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/services"
	"github.com/cashkeep/cashkeep/internal/upstream"
)

type stubSource struct {
	delta, backfill []upstream.RawTransaction
	err             error
}

func (s stubSource) Delta(ctx context.Context, since string) ([]upstream.RawTransaction, error) {
	return s.delta, s.err
}
func (s stubSource) Backfill(ctx context.Context, months int) ([]upstream.RawTransaction, error) {
	return s.backfill, s.err
}

func TestIngestor_RunDelta_CreatesAccountAndUpsertsTransaction(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()

	repos.Cursors.On("Get", ctx, "ynab").Return(nil, apperrors.NotFound("no cursor"))
	repos.Accounts.On("FindAccountByExternalID", ctx, "ynab", "ext-acct-1").Return(nil, apperrors.NotFound("no account"))
	repos.Accounts.On("UpsertAccount", ctx, mock.AnythingOfType("domain.Account")).Return(nil)
	repos.Categories.On("GetMapping", ctx, "ynab", "").Return(nil, apperrors.NotFound("no mapping")).Maybe()
	repos.Transactions.On("UpsertTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(true, nil)
	repos.Cursors.On("Advance", ctx, "ynab", mock.AnythingOfType("string")).Return(nil)
	repos.Audits.On("Insert", ctx, mock.MatchedBy(func(a domain.IngestAudit) bool {
		return a.Source == "ynab" && a.Status == domain.IngestSuccess && a.RowsUpserted == 1
	})).Return(nil)

	source := stubSource{delta: []upstream.RawTransaction{
		{ExternalID: "tx-1", AccountExternalID: "ext-acct-1", AccountName: "Checking", PostedAt: "2025-01-15", AmountCents: -2000},
	}}

	ing := services.NewIngestor(repos.Repos(), fakeUnitOfWork{repos: repos.Repos()})
	result, err := ing.RunDelta(ctx, "ynab", source)
	require.NoError(t, err)
	require.Equal(t, domain.IngestSuccess, result.Status)
	require.Equal(t, 1, result.RowsUpserted)
}

func TestIngestor_RunDelta_UpstreamFailureWritesFailureAudit(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()

	repos.Cursors.On("Get", ctx, "ynab").Return(nil, apperrors.NotFound("no cursor"))
	repos.Audits.On("Insert", ctx, mock.MatchedBy(func(a domain.IngestAudit) bool {
		return a.Status == domain.IngestFailure
	})).Return(nil)

	source := stubSource{err: apperrors.Upstream("boom", nil)}

	ing := services.NewIngestor(repos.Repos(), fakeUnitOfWork{repos: repos.Repos()})
	result, err := ing.RunDelta(ctx, "ynab", source)
	require.NoError(t, err) // upstream failures are reported via the audit, not returned
	require.Equal(t, domain.IngestFailure, result.Status)
}

func TestIngestor_RunBackfill_DoesNotAdvanceCursor(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()

	repos.Accounts.On("FindAccountByExternalID", ctx, "csv", "ext-1").Return(&domain.Account{AccountID: "acct-1"}, nil)
	repos.Categories.On("GetMapping", ctx, "csv", "").Return(nil, apperrors.NotFound("no mapping")).Maybe()
	repos.Transactions.On("UpsertTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(false, nil)
	repos.Audits.On("Insert", ctx, mock.MatchedBy(func(a domain.IngestAudit) bool {
		return a.RowsUpserted == 0
	})).Return(nil)

	source := stubSource{backfill: []upstream.RawTransaction{
		{ExternalID: "tx-2", AccountExternalID: "ext-1", PostedAt: "2025-01-10", AmountCents: -500},
	}}

	ing := services.NewIngestor(repos.Repos(), fakeUnitOfWork{repos: repos.Repos()})
	result, err := ing.RunBackfill(ctx, "csv", source, 3)
	require.NoError(t, err)
	require.Equal(t, domain.IngestSuccess, result.Status)
	repos.Cursors.AssertNotCalled(t, "Advance", mock.Anything, mock.Anything, mock.Anything)
}
