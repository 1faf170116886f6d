package repositories

import (
	"context"

	"github.com/cashkeep/cashkeep/internal/core/domain"
)

// SnapshotRepository persists the append-only ForecastSnapshot series.
type SnapshotRepository interface {
	Insert(ctx context.Context, s domain.ForecastSnapshot) error
	Latest(ctx context.Context) (*domain.ForecastSnapshot, error)
	Previous(ctx context.Context, beforeID string) (*domain.ForecastSnapshot, error)
}

// CursorRepository persists per-source ingest watermarks.
type CursorRepository interface {
	Get(ctx context.Context, source string) (*domain.SourceCursor, error)
	// Advance is called only from inside the same transaction as the final
	// upsert batch of a successful ingest run.
	Advance(ctx context.Context, source, cursor string) error
}

// AuditRepository persists one row per ingest invocation.
type AuditRepository interface {
	Insert(ctx context.Context, a domain.IngestAudit) error
	ListBySource(ctx context.Context, source string, limit int) ([]domain.IngestAudit, error)
}

// AlertRepository persists dedup-keyed alerts.
type AlertRepository interface {
	// Upsert inserts a new alert or updates the existing row for the same
	// (type, dedupe_key), never creating a duplicate.
	Upsert(ctx context.Context, a domain.Alert) (inserted bool, err error)
	ListUnresolved(ctx context.Context) ([]domain.Alert, error)
	Resolve(ctx context.Context, alertID string) error
}
