package domain

import "time"

// ForecastSnapshot is an append-only time-series row; the latest one wins
// for the digest, but older ones remain for staleness/history reporting.
type ForecastSnapshot struct {
	SnapshotID       string    `json:"snapshotID"`
	CreatedAt        time.Time `json:"createdAt"`
	HorizonStart     Day       `json:"horizonStart"`
	HorizonEnd       Day       `json:"horizonEnd"`
	Payload          string    `json:"payload"` // serialized series+entries, stable JSON
	MinBalanceCents  int64     `json:"minBalanceCents"`
	MinBalanceDate   Day       `json:"minBalanceDate"`
}

// SourceCursor tracks the delta-ingest watermark per upstream source.
type SourceCursor struct {
	Source     string    `json:"source"`
	LastCursor string    `json:"lastCursor"` // opaque token or ISO date
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IngestStatus is the terminal state of one Ingestor run.
type IngestStatus string

const (
	IngestSuccess IngestStatus = "success"
	IngestPartial IngestStatus = "partial"
	IngestFailure IngestStatus = "failure"
)

// IngestAudit is one row per ingest invocation, regardless of outcome.
type IngestAudit struct {
	AuditID       string       `json:"auditID"`
	Source        string       `json:"source"`
	RunStartedAt  time.Time    `json:"runStartedAt"`
	RunFinishedAt time.Time    `json:"runFinishedAt"`
	RowsUpserted  int          `json:"rowsUpserted"`
	Status        IngestStatus `json:"status"`
	Notes         string       `json:"notes,omitempty"`
}

// AlertType enumerates the kinds Alerts derives from snapshot comparisons.
type AlertType string

const (
	AlertThresholdBreach   AlertType = "threshold_breach"
	AlertLargeUnplanned    AlertType = "large_unplanned_debit"
	AlertCommitmentDrift   AlertType = "suggest_update"
)

// AlertSeverity ranks how urgently an alert should surface in the digest.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is unique on (type, dedupe_key); re-evaluation updates the existing
// row instead of inserting a duplicate.
type Alert struct {
	AlertID    string        `json:"alertID"`
	CreatedAt  time.Time     `json:"createdAt"`
	Type       AlertType     `json:"type"`
	DedupeKey  string        `json:"dedupeKey"`
	Severity   AlertSeverity `json:"severity"`
	Title      string        `json:"title"`
	Message    string        `json:"message"`
	Details    string        `json:"details,omitempty"` // JSON blob, e.g. proposed new commitment values
	ResolvedAt *time.Time    `json:"resolvedAt,omitempty"`
}
