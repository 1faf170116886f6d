package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
)

type accountRepo Queries

func (r *accountRepo) UpsertAccount(ctx context.Context, a domain.Account) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (account_id, name, type, currency, external_id, source, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, external_id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			currency = excluded.currency,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`, a.AccountID, a.Name, string(a.Type), a.Currency, a.ExternalID, a.Source, a.IsActive, a.CreatedAt.Format(time.RFC3339Nano), a.UpdatedAt.Format(time.RFC3339Nano))
	return wrapIntegrity("upsert account", err)
}

func (r *accountRepo) scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	var createdAt, updatedAt string
	var accType string
	err := row.Scan(&a.AccountID, &a.Name, &accType, &a.Currency, &a.ExternalID, &a.Source, &a.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("account not found")
		}
		return nil, wrapIntegrity("read account", err)
	}
	a.Type = domain.AccountType(accType)
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &a, nil
}

func (r *accountRepo) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT account_id, name, type, currency, external_id, source, is_active, created_at, updated_at
		FROM accounts WHERE account_id = ?`, accountID)
	return r.scanAccount(row)
}

func (r *accountRepo) FindAccountByExternalID(ctx context.Context, source, externalID string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT account_id, name, type, currency, external_id, source, is_active, created_at, updated_at
		FROM accounts WHERE source = ? AND external_id = ?`, source, externalID)
	return r.scanAccount(row)
}

func (r *accountRepo) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	query := `SELECT account_id, name, type, currency, external_id, source, is_active, created_at, updated_at FROM accounts`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapIntegrity("list accounts", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		var createdAt, updatedAt, accType string
		if err := rows.Scan(&a.AccountID, &a.Name, &accType, &a.Currency, &a.ExternalID, &a.Source, &a.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, wrapIntegrity("scan account", err)
		}
		a.Type = domain.AccountType(accType)
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountRepo) Deactivate(ctx context.Context, accountID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_active = 0, updated_at = ? WHERE account_id = ?`, time.Now().UTC().Format(time.RFC3339Nano), accountID)
	if err != nil {
		return wrapIntegrity("deactivate account", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperrors.NotFound("account not found")
	}
	return nil
}
