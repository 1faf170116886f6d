package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
)

type commitmentRepo Queries

const commitmentColumns = `commitment_id, name, amount_cents, due_rule, next_due_date, priority, account_id, flexible_window_days, category_id, type, shift_policy, is_active, created_at, updated_at`

func (r *commitmentRepo) Upsert(ctx context.Context, c domain.Commitment) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO commitments (`+commitmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(commitment_id) DO UPDATE SET
			name = excluded.name, amount_cents = excluded.amount_cents, due_rule = excluded.due_rule,
			next_due_date = excluded.next_due_date, priority = excluded.priority, account_id = excluded.account_id,
			flexible_window_days = excluded.flexible_window_days, category_id = excluded.category_id,
			type = excluded.type, shift_policy = excluded.shift_policy, is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`, c.CommitmentID, c.Name, c.AmountCents, c.DueRule, c.NextDueDate.String(), c.Priority, c.AccountID,
		c.FlexibleWindowDays, nullableString(c.CategoryID), c.Type, string(c.ShiftPolicy), c.IsActive,
		c.CreatedAt.Format(time.RFC3339Nano), c.UpdatedAt.Format(time.RFC3339Nano))
	return wrapIntegrity("upsert commitment", err)
}

func scanCommitment(scan func(dest ...any) error) (*domain.Commitment, error) {
	var c domain.Commitment
	var nextDueDate, createdAt, updatedAt, shiftPolicy string
	var categoryID sql.NullString
	err := scan(&c.CommitmentID, &c.Name, &c.AmountCents, &c.DueRule, &nextDueDate, &c.Priority, &c.AccountID,
		&c.FlexibleWindowDays, &categoryID, &c.Type, &shiftPolicy, &c.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("commitment not found")
		}
		return nil, wrapIntegrity("read commitment", err)
	}
	c.CategoryID = categoryID.String
	c.ShiftPolicy = domain.ShiftPolicy(shiftPolicy)
	c.NextDueDate, _ = domain.ParseDay(nextDueDate)
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &c, nil
}

func (r *commitmentRepo) Get(ctx context.Context, id string) (*domain.Commitment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+commitmentColumns+` FROM commitments WHERE commitment_id = ?`, id)
	return scanCommitment(row.Scan)
}

func (r *commitmentRepo) ListActive(ctx context.Context) ([]domain.Commitment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+commitmentColumns+` FROM commitments WHERE is_active = 1 ORDER BY next_due_date`)
	if err != nil {
		return nil, wrapIntegrity("list commitments", err)
	}
	defer rows.Close()
	var out []domain.Commitment
	for rows.Next() {
		c, err := scanCommitment(rows.Scan)
		if err != nil {
			return nil, wrapIntegrity("scan commitment", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *commitmentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM commitments WHERE commitment_id = ?`, id)
	if err != nil {
		return wrapIntegrity("delete commitment", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("commitment not found")
	}
	return nil
}

type inflowRepo Queries

const inflowColumns = `inflow_id, name, amount_cents, due_rule, next_due_date, account_id, type, is_active, created_at, updated_at`

func (r *inflowRepo) Upsert(ctx context.Context, i domain.ScheduledInflow) error {
	now := time.Now().UTC()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scheduled_inflows (`+inflowColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(inflow_id) DO UPDATE SET
			name = excluded.name, amount_cents = excluded.amount_cents, due_rule = excluded.due_rule,
			next_due_date = excluded.next_due_date, account_id = excluded.account_id, type = excluded.type,
			is_active = excluded.is_active, updated_at = excluded.updated_at
	`, i.InflowID, i.Name, i.AmountCents, i.DueRule, i.NextDueDate.String(), i.AccountID, i.Type, i.IsActive,
		i.CreatedAt.Format(time.RFC3339Nano), i.UpdatedAt.Format(time.RFC3339Nano))
	return wrapIntegrity("upsert scheduled inflow", err)
}

func scanInflow(scan func(dest ...any) error) (*domain.ScheduledInflow, error) {
	var i domain.ScheduledInflow
	var nextDueDate, createdAt, updatedAt string
	err := scan(&i.InflowID, &i.Name, &i.AmountCents, &i.DueRule, &nextDueDate, &i.AccountID, &i.Type, &i.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("scheduled inflow not found")
		}
		return nil, wrapIntegrity("read scheduled inflow", err)
	}
	i.NextDueDate, _ = domain.ParseDay(nextDueDate)
	i.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	i.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &i, nil
}

func (r *inflowRepo) Get(ctx context.Context, id string) (*domain.ScheduledInflow, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+inflowColumns+` FROM scheduled_inflows WHERE inflow_id = ?`, id)
	return scanInflow(row.Scan)
}

func (r *inflowRepo) ListActive(ctx context.Context) ([]domain.ScheduledInflow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+inflowColumns+` FROM scheduled_inflows WHERE is_active = 1 ORDER BY next_due_date`)
	if err != nil {
		return nil, wrapIntegrity("list scheduled inflows", err)
	}
	defer rows.Close()
	var out []domain.ScheduledInflow
	for rows.Next() {
		i, err := scanInflow(rows.Scan)
		if err != nil {
			return nil, wrapIntegrity("scan scheduled inflow", err)
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

func (r *inflowRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_inflows WHERE inflow_id = ?`, id)
	if err != nil {
		return wrapIntegrity("delete scheduled inflow", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("scheduled inflow not found")
	}
	return nil
}

type keyEventRepo Queries

const keyEventColumns = `key_event_id, name, event_date, repeat_rule, planned_amount_cents, category_id, lead_time_days, shift_policy, account_id, created_at, updated_at`

func (r *keyEventRepo) Upsert(ctx context.Context, e domain.KeySpendEvent) error {
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO key_spend_events (`+keyEventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key_event_id) DO UPDATE SET
			name = excluded.name, event_date = excluded.event_date, repeat_rule = excluded.repeat_rule,
			planned_amount_cents = excluded.planned_amount_cents, category_id = excluded.category_id,
			lead_time_days = excluded.lead_time_days, shift_policy = excluded.shift_policy,
			account_id = excluded.account_id, updated_at = excluded.updated_at
	`, e.KeyEventID, e.Name, e.EventDate.String(), e.RepeatRule, e.PlannedAmountCents, nullableString(e.CategoryID),
		e.LeadTimeDays, string(e.ShiftPolicy), nullableString(e.AccountID),
		e.CreatedAt.Format(time.RFC3339Nano), e.UpdatedAt.Format(time.RFC3339Nano))
	return wrapIntegrity("upsert key spend event", err)
}

func scanKeyEvent(scan func(dest ...any) error) (*domain.KeySpendEvent, error) {
	var e domain.KeySpendEvent
	var eventDate, createdAt, updatedAt, shiftPolicy string
	var categoryID, accountID sql.NullString
	err := scan(&e.KeyEventID, &e.Name, &eventDate, &e.RepeatRule, &e.PlannedAmountCents, &categoryID,
		&e.LeadTimeDays, &shiftPolicy, &accountID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("key spend event not found")
		}
		return nil, wrapIntegrity("read key spend event", err)
	}
	e.CategoryID = categoryID.String
	e.AccountID = accountID.String
	e.ShiftPolicy = domain.ShiftPolicy(shiftPolicy)
	e.EventDate, _ = domain.ParseDay(eventDate)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &e, nil
}

func (r *keyEventRepo) Get(ctx context.Context, id string) (*domain.KeySpendEvent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+keyEventColumns+` FROM key_spend_events WHERE key_event_id = ?`, id)
	return scanKeyEvent(row.Scan)
}

// ListAll returns every key event regardless of its base event_date. The
// Calendar Expander needs the full set, not a date-filtered one: a recurring
// event's base event_date can precede a horizon it still recurs into.
func (r *keyEventRepo) ListAll(ctx context.Context) ([]domain.KeySpendEvent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+keyEventColumns+` FROM key_spend_events ORDER BY event_date`)
	if err != nil {
		return nil, wrapIntegrity("list key spend events", err)
	}
	defer rows.Close()
	var out []domain.KeySpendEvent
	for rows.Next() {
		e, err := scanKeyEvent(rows.Scan)
		if err != nil {
			return nil, wrapIntegrity("scan key spend event", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *keyEventRepo) ListInRange(ctx context.Context, from, to domain.Day) ([]domain.KeySpendEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+keyEventColumns+` FROM key_spend_events WHERE event_date >= ? AND event_date <= ? ORDER BY event_date`,
		from.String(), to.String())
	if err != nil {
		return nil, wrapIntegrity("list key spend events in range", err)
	}
	defer rows.Close()
	var out []domain.KeySpendEvent
	for rows.Next() {
		e, err := scanKeyEvent(rows.Scan)
		if err != nil {
			return nil, wrapIntegrity("scan key spend event", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *keyEventRepo) ListUpcoming(ctx context.Context, asOf domain.Day) ([]domain.KeySpendEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+keyEventColumns+` FROM key_spend_events WHERE event_date >= ? ORDER BY event_date`, asOf.String())
	if err != nil {
		return nil, wrapIntegrity("list upcoming key spend events", err)
	}
	defer rows.Close()
	var out []domain.KeySpendEvent
	for rows.Next() {
		e, err := scanKeyEvent(rows.Scan)
		if err != nil {
			return nil, wrapIntegrity("scan key spend event", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *keyEventRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM key_spend_events WHERE key_event_id = ?`, id)
	if err != nil {
		return wrapIntegrity("delete key spend event", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("key spend event not found")
	}
	return nil
}
