package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

// Store binds repositories.Repos to a *sql.DB for reads and implements
// repositories.UnitOfWork for writes that must be atomic, following the
// teacher's pgsql store's pool-plus-WithTx shape.
type Store struct {
	repositories.Repos
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{Repos: newRepos(db), db: db}
}

// WithTx runs fn against a Repos bound to one transaction, committing on
// success and rolling back on error or panic. SQLite's single-writer model
// means these transactions serialize against each other; SetMaxOpenConns(1)
// on the pool already enforces that at the driver level.
func (s *Store) WithTx(ctx context.Context, fn func(repositories.Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newRepos(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
