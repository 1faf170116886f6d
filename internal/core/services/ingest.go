package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
	"github.com/cashkeep/cashkeep/internal/upstream"
	"github.com/google/uuid"
)

// Ingestor pulls transactions from an upstream.Source in delta, backfill, or
// CSV mode, upserts them idempotently, maintains a per-source cursor, and
// writes an IngestAudit row per run regardless of outcome.
type Ingestor struct {
	repos repositories.Repos
	uow   repositories.UnitOfWork
}

func NewIngestor(repos repositories.Repos, uow repositories.UnitOfWork) *Ingestor {
	return &Ingestor{repos: repos, uow: uow}
}

// IngestResult mirrors the audit row written for the run.
type IngestResult struct {
	AuditID      string
	RowsUpserted int
	Status       domain.IngestStatus
	Notes        string
}

// RunDelta fetches transactions since the source's last cursor (minus one
// day for clock-skew safety) and upserts them.
func (in *Ingestor) RunDelta(ctx context.Context, source string, src upstream.Source) (*IngestResult, error) {
	since := ""
	cursor, err := in.repos.Cursors.Get(ctx, source)
	if err == nil {
		if t, perr := time.Parse("2006-01-02", cursor.LastCursor); perr == nil {
			since = t.AddDate(0, 0, -1).Format("2006-01-02")
		}
	} else if !isNotFound(err) {
		return nil, err
	}
	if since == "" {
		since = time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")
	}

	raw, err := src.Delta(ctx, since)
	if err != nil {
		return in.writeFailureAudit(ctx, source, "delta", err), nil
	}
	return in.commit(ctx, source, raw, time.Now().UTC().Format("2006-01-02"))
}

// RunBackfill fetches the last N months of transactions and upserts them
// without advancing the cursor (a backfill is a supplementary pull, not the
// delta watermark).
func (in *Ingestor) RunBackfill(ctx context.Context, source string, src upstream.Source, months int) (*IngestResult, error) {
	raw, err := src.Backfill(ctx, months)
	if err != nil {
		return in.writeFailureAudit(ctx, source, "backfill", err), nil
	}
	return in.commit(ctx, source, raw, "")
}

// commit upserts every raw record and, if newCursor is non-empty, advances
// the source cursor, all inside one transaction so cursor movement and the
// upsert batch are atomic.
func (in *Ingestor) commit(ctx context.Context, source string, raw []upstream.RawTransaction, newCursor string) (*IngestResult, error) {
	started := time.Now().UTC()
	auditID := uuid.NewString()
	rowsUpserted := 0

	err := in.uow.WithTx(ctx, func(repos repositories.Repos) error {
		accountIDs := map[string]string{} // external id -> internal id

		for _, rt := range raw {
			accountID, ok := accountIDs[rt.AccountExternalID]
			if !ok {
				acct, err := repos.Accounts.FindAccountByExternalID(ctx, source, rt.AccountExternalID)
				if err != nil {
					if !isNotFound(err) {
						return err
					}
					acct = &domain.Account{
						AccountID:  uuid.NewString(),
						Name:       rt.AccountName,
						Type:       domain.AccountType(rt.AccountType),
						Currency:   rt.Currency,
						ExternalID: rt.AccountExternalID,
						Source:     source,
						IsActive:   true,
					}
					if err := repos.Accounts.UpsertAccount(ctx, *acct); err != nil {
						return err
					}
				}
				accountID = acct.AccountID
				accountIDs[rt.AccountExternalID] = accountID
			}

			postedAt, err := domain.ParseDay(rt.PostedAt)
			if err != nil {
				return apperrors.Validation(fmt.Sprintf("malformed posted_at %q for external id %q", rt.PostedAt, rt.ExternalID))
			}

			categoryID := ""
			if rt.CategoryExternalID != "" {
				resolved, err := NewCategoryMapper(repos).Resolve(ctx, source, rt.CategoryExternalID)
				if err != nil {
					return err
				}
				categoryID = resolved
			}

			txn := domain.Transaction{
				TransactionID:  uuid.NewString(),
				IdempotencyKey: domain.IdempotencyKey(source, rt.ExternalID, postedAt, rt.AmountCents),
				AccountID:      accountID,
				PostedAt:       postedAt,
				AmountCents:    rt.AmountCents,
				Payee:          rt.Payee,
				Memo:           rt.Memo,
				ExternalID:     rt.ExternalID,
				Source:         source,
				CategoryID:     categoryID,
				IsCleared:      rt.Cleared,
				ImportMeta:     rt.ImportMeta,
			}
			inserted, err := repos.Transactions.UpsertTransaction(ctx, txn)
			if err != nil {
				return err
			}
			if inserted {
				rowsUpserted++
			}
		}

		if newCursor != "" {
			if err := repos.Cursors.Advance(ctx, source, newCursor); err != nil {
				return err
			}
		}

		return repos.Audits.Insert(ctx, domain.IngestAudit{
			AuditID:       auditID,
			Source:        source,
			RunStartedAt:  started,
			RunFinishedAt: time.Now().UTC(),
			RowsUpserted:  rowsUpserted,
			Status:        domain.IngestSuccess,
		})
	})
	if err != nil {
		return in.writeFailureAudit(ctx, source, "commit", err), err
	}

	return &IngestResult{AuditID: auditID, RowsUpserted: rowsUpserted, Status: domain.IngestSuccess}, nil
}

// writeFailureAudit records a failed run outside the (rolled-back) main
// transaction, so the cursor stays untouched but the operator still sees why
// the run failed.
func (in *Ingestor) writeFailureAudit(ctx context.Context, source, mode string, cause error) *IngestResult {
	auditID := uuid.NewString()
	now := time.Now().UTC()
	audit := domain.IngestAudit{
		AuditID:       auditID,
		Source:        source,
		RunStartedAt:  now,
		RunFinishedAt: now,
		RowsUpserted:  0,
		Status:        domain.IngestFailure,
		Notes:         fmt.Sprintf("%s: %v", mode, cause),
	}
	_ = in.repos.Audits.Insert(ctx, audit)
	return &IngestResult{AuditID: auditID, Status: domain.IngestFailure, Notes: audit.Notes}
}
