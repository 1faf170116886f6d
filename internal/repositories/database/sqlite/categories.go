package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
)

type categoryRepo Queries

const categoryColumns = `category_id, name, parent_id, is_archived, source, external_id, created_at, updated_at`

func (r *categoryRepo) UpsertCategory(ctx context.Context, c domain.Category) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (category_id, name, parent_id, is_archived, source, external_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, external_id) DO UPDATE SET
			name = excluded.name,
			parent_id = excluded.parent_id,
			is_archived = excluded.is_archived,
			updated_at = excluded.updated_at
	`, c.CategoryID, c.Name, nullableString(c.ParentID), c.IsArchived, c.Source, nullableString(c.ExternalID),
		c.CreatedAt.Format(time.RFC3339Nano), c.UpdatedAt.Format(time.RFC3339Nano))
	return wrapIntegrity("upsert category", err)
}

func (r *categoryRepo) GetCategoryByID(ctx context.Context, categoryID string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE category_id = ?`, categoryID)
	return scanCategory(row.Scan)
}

func (r *categoryRepo) FindInternalByName(ctx context.Context, name string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE source = ? AND lower(name) = lower(?)`, domain.InternalSource, name)
	return scanCategory(row.Scan)
}

func scanCategory(scan func(dest ...any) error) (*domain.Category, error) {
	var c domain.Category
	var createdAt, updatedAt string
	var parentID, externalID sql.NullString
	err := scan(&c.CategoryID, &c.Name, &parentID, &c.IsArchived, &c.Source, &externalID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("category not found")
		}
		return nil, wrapIntegrity("read category", err)
	}
	c.ParentID = parentID.String
	c.ExternalID = externalID.String
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &c, nil
}

func (r *categoryRepo) ListCategories(ctx context.Context, source string) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	var args []any
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapIntegrity("list categories", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, wrapIntegrity("scan category", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *categoryRepo) GetMapping(ctx context.Context, source, externalID string) (*domain.CategoryMap, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT source, external_id, internal_category_id, created_at, updated_at
		FROM category_map WHERE source = ? AND external_id = ?`, source, externalID)
	var m domain.CategoryMap
	var createdAt, updatedAt string
	err := row.Scan(&m.Source, &m.ExternalID, &m.InternalCategoryID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("category mapping not found")
		}
		return nil, wrapIntegrity("read category mapping", err)
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &m, nil
}

// SetMapping always overwrites the current internal_category_id. Mappings
// stay frozen because the Category Mapper only calls it for a
// (source, external_id) that has no mapping yet.
func (r *categoryRepo) SetMapping(ctx context.Context, m domain.CategoryMap) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_map (source, external_id, internal_category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source, external_id) DO UPDATE SET
			internal_category_id = excluded.internal_category_id,
			updated_at = excluded.updated_at
	`, m.Source, m.ExternalID, m.InternalCategoryID, m.CreatedAt.Format(time.RFC3339Nano), m.UpdatedAt.Format(time.RFC3339Nano))
	return wrapIntegrity("set category mapping", err)
}

func (r *categoryRepo) ResolveAlias(ctx context.Context, questionText string) (string, error) {
	var categoryID string
	err := r.db.QueryRowContext(ctx, `
		SELECT category_id FROM question_category_alias WHERE lower(alias) = lower(?)`, questionText).Scan(&categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperrors.NotFound("no alias for question text")
		}
		return "", wrapIntegrity("resolve category alias", err)
	}
	return categoryID, nil
}
