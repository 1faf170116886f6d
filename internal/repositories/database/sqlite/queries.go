// Package sqlite implements the core/ports/repositories interfaces against
// an embedded sqlite file via database/sql + mattn/go-sqlite3, following the
// teacher's internal/repositories/database/pgsql layout with the pgx pool
// swapped for database/sql (see DESIGN.md).
package sqlite

import (
	"context"
	"database/sql"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, letting every repository
// method run unmodified whether it's called against the pool or inside a
// transaction opened by Store.WithTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries binds every repository implementation to one dbtx.
type Queries struct {
	db dbtx
}

func newRepos(db dbtx) repositories.Repos {
	q := &Queries{db: db}
	return repositories.Repos{
		Accounts:     (*accountRepo)(q),
		Transactions: (*transactionRepo)(q),
		Categories:   (*categoryRepo)(q),
		Commitments:  (*commitmentRepo)(q),
		Inflows:      (*inflowRepo)(q),
		KeyEvents:    (*keyEventRepo)(q),
		Anchors:      (*anchorRepo)(q),
		Snapshots:    (*snapshotRepo)(q),
		Cursors:      (*cursorRepo)(q),
		Audits:       (*auditRepo)(q),
		Alerts:       (*alertRepo)(q),
	}
}

func wrapIntegrity(op string, err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Integrity("failed to "+op, err)
}
