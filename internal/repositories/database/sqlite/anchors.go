package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
)

type anchorRepo Queries

func (r *anchorRepo) Upsert(ctx context.Context, a domain.AccountAnchor) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account_anchor (account_id, anchor_date, anchor_balance_cents, min_floor_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			anchor_date = excluded.anchor_date,
			anchor_balance_cents = excluded.anchor_balance_cents,
			min_floor_cents = excluded.min_floor_cents,
			updated_at = excluded.updated_at
	`, a.AccountID, a.AnchorDate.String(), a.AnchorBalanceCents, a.MinFloorCents,
		a.CreatedAt.Format(time.RFC3339Nano), a.UpdatedAt.Format(time.RFC3339Nano))
	return wrapIntegrity("upsert account anchor", err)
}

func scanAnchor(scan func(dest ...any) error) (*domain.AccountAnchor, error) {
	var a domain.AccountAnchor
	var anchorDate, createdAt, updatedAt string
	var minFloor sql.NullInt64
	err := scan(&a.AccountID, &anchorDate, &a.AnchorBalanceCents, &minFloor, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("account anchor not found")
		}
		return nil, wrapIntegrity("read account anchor", err)
	}
	if minFloor.Valid {
		a.MinFloorCents = &minFloor.Int64
	}
	a.AnchorDate, _ = domain.ParseDay(anchorDate)
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &a, nil
}

func (r *anchorRepo) Get(ctx context.Context, accountID string) (*domain.AccountAnchor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT account_id, anchor_date, anchor_balance_cents, min_floor_cents, created_at, updated_at
		FROM account_anchor WHERE account_id = ?`, accountID)
	return scanAnchor(row.Scan)
}

func (r *anchorRepo) ListAll(ctx context.Context) ([]domain.AccountAnchor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT account_id, anchor_date, anchor_balance_cents, min_floor_cents, created_at, updated_at
		FROM account_anchor ORDER BY account_id`)
	if err != nil {
		return nil, wrapIntegrity("list account anchors", err)
	}
	defer rows.Close()
	var out []domain.AccountAnchor
	for rows.Next() {
		a, err := scanAnchor(rows.Scan)
		if err != nil {
			return nil, wrapIntegrity("scan account anchor", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
