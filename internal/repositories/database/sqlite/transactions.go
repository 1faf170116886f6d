package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

type transactionRepo Queries

// UpsertTransaction inserts a new row for idempotency_key, or - if it
// already exists - updates only category_id/is_cleared/import_meta,
// matching the Data Model invariant that a transaction is otherwise
// immutable once ingested.
func (r *transactionRepo) UpsertTransaction(ctx context.Context, t domain.Transaction) (bool, error) {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO transactions
			(transaction_id, idempotency_key, account_id, posted_at, amount_cents, payee, memo, external_id, source, category_id, is_cleared, import_meta, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.TransactionID, t.IdempotencyKey, t.AccountID, t.PostedAt.String(), t.AmountCents, t.Payee, t.Memo, t.ExternalID, t.Source,
		nullableString(t.CategoryID), t.IsCleared, t.ImportMeta, t.CreatedAt.Format(time.RFC3339Nano), t.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return false, wrapIntegrity("insert transaction", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return true, nil
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE transactions SET category_id = ?, is_cleared = ?, import_meta = ?, updated_at = ?
		WHERE idempotency_key = ?
	`, nullableString(t.CategoryID), t.IsCleared, t.ImportMeta, t.UpdatedAt.Format(time.RFC3339Nano), t.IdempotencyKey)
	if err != nil {
		return false, wrapIntegrity("update transaction", err)
	}
	return false, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanTransactionRow(scan func(dest ...any) error) (domain.Transaction, error) {
	var t domain.Transaction
	var postedAt, createdAt, updatedAt string
	var categoryID sql.NullString
	err := scan(&t.TransactionID, &t.IdempotencyKey, &t.AccountID, &postedAt, &t.AmountCents, &t.Payee, &t.Memo,
		&t.ExternalID, &t.Source, &categoryID, &t.IsCleared, &t.ImportMeta, &createdAt, &updatedAt)
	if err != nil {
		return t, err
	}
	if categoryID.Valid {
		t.CategoryID = categoryID.String
	}
	t.PostedAt, _ = domain.ParseDay(postedAt)
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return t, nil
}

const transactionColumns = `transaction_id, idempotency_key, account_id, posted_at, amount_cents, payee, memo, external_id, source, category_id, is_cleared, import_meta, created_at, updated_at`

func (r *transactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE idempotency_key = ?`, key)
	t, err := scanTransactionRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("transaction not found")
		}
		return nil, wrapIntegrity("read transaction", err)
	}
	return &t, nil
}

func (r *transactionRepo) ListTransactions(ctx context.Context, f repositories.TransactionFilter) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	var args []any

	if len(f.AccountIDs) > 0 {
		placeholders := make([]string, len(f.AccountIDs))
		for i, id := range f.AccountIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += ` AND account_id IN (` + strings.Join(placeholders, ",") + `)`
	}
	if f.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.From != nil {
		query += ` AND posted_at >= ?`
		args = append(args, f.From.String())
	}
	if f.To != nil {
		query += ` AND posted_at <= ?`
		args = append(args, f.To.String())
	}
	if f.ClearedOnly {
		query += ` AND is_cleared = 1`
	}
	query += ` ORDER BY posted_at, transaction_id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapIntegrity("list transactions", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransactionRow(rows.Scan)
		if err != nil {
			return nil, wrapIntegrity("scan transaction", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transactionRepo) SumCleared(ctx context.Context, accountIDs []string, from, to *domain.Day) (int64, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE is_cleared = 1`
	var args []any
	if len(accountIDs) > 0 {
		placeholders := make([]string, len(accountIDs))
		for i, id := range accountIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += ` AND account_id IN (` + strings.Join(placeholders, ",") + `)`
	}
	if from != nil {
		query += ` AND posted_at > ?`
		args = append(args, from.String())
	}
	if to != nil {
		query += ` AND posted_at <= ?`
		args = append(args, to.String())
	}
	var sum int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, wrapIntegrity("sum cleared transactions", err)
	}
	return sum, nil
}

func (r *transactionRepo) CountDistinctMonthsForPayee(ctx context.Context, payee string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT substr(posted_at, 1, 7)) FROM transactions
		WHERE lower(trim(payee)) = lower(trim(?)) AND is_cleared = 1
	`, payee).Scan(&count)
	if err != nil {
		return 0, wrapIntegrity("count distinct months for payee", err)
	}
	return count, nil
}
