package repositories

import "context"

// Repos bundles one instance of every repository, all bound to the same
// underlying connection or transaction. Services depend on Repos rather than
// on the concrete sqlite package so the core stays storage-agnostic.
type Repos struct {
	Accounts     AccountRepository
	Transactions TransactionRepository
	Categories   CategoryRepository
	Commitments  CommitmentRepository
	Inflows      ScheduledInflowRepository
	KeyEvents    KeySpendEventRepository
	Anchors      AnchorRepository
	Snapshots    SnapshotRepository
	Cursors      CursorRepository
	Audits       AuditRepository
	Alerts       AlertRepository
}

// UnitOfWork runs fn against a Repos bound to a single database
// transaction, committing on success and rolling back on error or panic.
// Used for the operations spec.md requires to be atomic (cursor
// advancement, snapshot insertion, anchor upsert, alert dedup).
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(Repos) error) error
}
