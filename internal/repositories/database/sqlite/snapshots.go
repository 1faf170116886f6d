package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
)

type snapshotRepo Queries

const snapshotColumns = `snapshot_id, created_at, horizon_start, horizon_end, payload, min_balance_cents, min_balance_date`

func (r *snapshotRepo) Insert(ctx context.Context, s domain.ForecastSnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO forecast_snapshot (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.SnapshotID, s.CreatedAt.Format(time.RFC3339Nano), s.HorizonStart.String(), s.HorizonEnd.String(),
		s.Payload, s.MinBalanceCents, s.MinBalanceDate.String())
	return wrapIntegrity("insert forecast snapshot", err)
}

func scanSnapshot(scan func(dest ...any) error) (*domain.ForecastSnapshot, error) {
	var s domain.ForecastSnapshot
	var createdAt, horizonStart, horizonEnd, minBalanceDate string
	err := scan(&s.SnapshotID, &createdAt, &horizonStart, &horizonEnd, &s.Payload, &s.MinBalanceCents, &minBalanceDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("forecast snapshot not found")
		}
		return nil, wrapIntegrity("read forecast snapshot", err)
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	s.HorizonStart, _ = domain.ParseDay(horizonStart)
	s.HorizonEnd, _ = domain.ParseDay(horizonEnd)
	s.MinBalanceDate, _ = domain.ParseDay(minBalanceDate)
	return &s, nil
}

func (r *snapshotRepo) Latest(ctx context.Context) (*domain.ForecastSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM forecast_snapshot ORDER BY created_at DESC LIMIT 1`)
	return scanSnapshot(row.Scan)
}

func (r *snapshotRepo) Previous(ctx context.Context, beforeID string) (*domain.ForecastSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+` FROM forecast_snapshot
		WHERE created_at < (SELECT created_at FROM forecast_snapshot WHERE snapshot_id = ?)
		ORDER BY created_at DESC LIMIT 1`, beforeID)
	return scanSnapshot(row.Scan)
}

type cursorRepo Queries

func (r *cursorRepo) Get(ctx context.Context, source string) (*domain.SourceCursor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT source, last_cursor, updated_at FROM source_cursor WHERE source = ?`, source)
	var c domain.SourceCursor
	var updatedAt string
	err := row.Scan(&c.Source, &c.LastCursor, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("source cursor not found")
		}
		return nil, wrapIntegrity("read source cursor", err)
	}
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &c, nil
}

// Advance is invoked from within the ingest transaction only, so the
// upserted transactions and the watermark move together or not at all.
func (r *cursorRepo) Advance(ctx context.Context, source, cursor string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO source_cursor (source, last_cursor, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET last_cursor = excluded.last_cursor, updated_at = excluded.updated_at
	`, source, cursor, now)
	return wrapIntegrity("advance source cursor", err)
}

type auditRepo Queries

func (r *auditRepo) Insert(ctx context.Context, a domain.IngestAudit) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ingest_audit (audit_id, source, run_started_at, run_finished_at, rows_upserted, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.AuditID, a.Source, a.RunStartedAt.Format(time.RFC3339Nano), a.RunFinishedAt.Format(time.RFC3339Nano),
		a.RowsUpserted, string(a.Status), a.Notes)
	return wrapIntegrity("insert ingest audit", err)
}

func (r *auditRepo) ListBySource(ctx context.Context, source string, limit int) ([]domain.IngestAudit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT audit_id, source, run_started_at, run_finished_at, rows_upserted, status, notes
		FROM ingest_audit WHERE source = ? ORDER BY run_started_at DESC LIMIT ?`, source, limit)
	if err != nil {
		return nil, wrapIntegrity("list ingest audits", err)
	}
	defer rows.Close()

	var out []domain.IngestAudit
	for rows.Next() {
		var a domain.IngestAudit
		var runStartedAt, runFinishedAt, status string
		if err := rows.Scan(&a.AuditID, &a.Source, &runStartedAt, &runFinishedAt, &a.RowsUpserted, &status, &a.Notes); err != nil {
			return nil, wrapIntegrity("scan ingest audit", err)
		}
		a.Status = domain.IngestStatus(status)
		a.RunStartedAt, _ = time.Parse(time.RFC3339Nano, runStartedAt)
		a.RunFinishedAt, _ = time.Parse(time.RFC3339Nano, runFinishedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

type alertRepo Queries

const alertColumns = `alert_id, created_at, type, dedupe_key, severity, title, message, details, resolved_at`

// Upsert relies on the UNIQUE(type, dedupe_key) constraint: a re-evaluation
// that reproduces the same alert updates the existing row's timestamp and
// payload rather than paging the user again.
func (r *alertRepo) Upsert(ctx context.Context, a domain.Alert) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(type, dedupe_key) DO UPDATE SET
			severity = excluded.severity, title = excluded.title, message = excluded.message,
			details = excluded.details, resolved_at = NULL
	`, a.AlertID, a.CreatedAt.Format(time.RFC3339Nano), string(a.Type), a.DedupeKey, string(a.Severity),
		a.Title, a.Message, a.Details, nullableTime(a.ResolvedAt))
	if err != nil {
		return false, wrapIntegrity("upsert alert", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func (r *alertRepo) ListUnresolved(ctx context.Context) ([]domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE resolved_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapIntegrity("list unresolved alerts", err)
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		var a domain.Alert
		var createdAt, alertType, severity string
		var resolvedAt sql.NullString
		if err := rows.Scan(&a.AlertID, &createdAt, &alertType, &a.DedupeKey, &severity, &a.Title, &a.Message, &a.Details, &resolvedAt); err != nil {
			return nil, wrapIntegrity("scan alert", err)
		}
		a.Type = domain.AlertType(alertType)
		a.Severity = domain.AlertSeverity(severity)
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if resolvedAt.Valid {
			t, _ := time.Parse(time.RFC3339Nano, resolvedAt.String)
			a.ResolvedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *alertRepo) Resolve(ctx context.Context, alertID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE alerts SET resolved_at = ? WHERE alert_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), alertID)
	if err != nil {
		return wrapIntegrity("resolve alert", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("alert not found")
	}
	return nil
}
