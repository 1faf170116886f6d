package services

import (
	"context"
	"strings"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
	"github.com/google/uuid"
)

// CategoryMapper snapshots upstream categories and maintains a frozen
// (source, external_id) -> internal_category_id mapping. Runs are
// monotonic: an internal ID, once assigned, is never rewritten.
type CategoryMapper struct {
	repos repositories.Repos
}

func NewCategoryMapper(repos repositories.Repos) *CategoryMapper {
	return &CategoryMapper{repos: repos}
}

// RawCategory is one category record as reported by an upstream source.
type RawCategory struct {
	ExternalID string
	Name       string
	ParentID   string
}

// Sync upserts the external category snapshot and resolves each one to an
// internal category: keep any existing mapping, else match an internal
// category by case-insensitive name, else fall back to the singleton
// Holding category.
func (m *CategoryMapper) Sync(ctx context.Context, source string, raw []RawCategory) error {
	holdingID, err := m.ensureHolding(ctx)
	if err != nil {
		return err
	}

	for _, rc := range raw {
		extCategory := domain.Category{
			CategoryID: uuid.NewString(),
			Name:       rc.Name,
			ParentID:   rc.ParentID,
			Source:     source,
			ExternalID: rc.ExternalID,
		}
		if err := m.repos.Categories.UpsertCategory(ctx, extCategory); err != nil {
			return err
		}

		if _, err := m.repos.Categories.GetMapping(ctx, source, rc.ExternalID); err == nil {
			continue // mapping already exists: never rewritten
		} else if !isNotFound(err) {
			return err
		}

		internalID := holdingID
		if match, err := m.repos.Categories.FindInternalByName(ctx, strings.TrimSpace(rc.Name)); err == nil {
			internalID = match.CategoryID
		} else if !isNotFound(err) {
			return err
		}

		if err := m.repos.Categories.SetMapping(ctx, domain.CategoryMap{
			Source: source, ExternalID: rc.ExternalID, InternalCategoryID: internalID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// ensureHolding creates the singleton internal Holding category on first
// need and returns its ID.
func (m *CategoryMapper) ensureHolding(ctx context.Context) (string, error) {
	existing, err := m.repos.Categories.FindInternalByName(ctx, domain.HoldingCategoryName)
	if err == nil {
		return existing.CategoryID, nil
	}
	if !isNotFound(err) {
		return "", err
	}
	holding := domain.Category{
		CategoryID: "holding",
		Name:       domain.HoldingCategoryName,
		Source:     domain.InternalSource,
	}
	if err := m.repos.Categories.UpsertCategory(ctx, holding); err != nil {
		return "", err
	}
	return holding.CategoryID, nil
}

// Resolve returns the internal category for a (source, external_id) pair,
// or the Holding category if no mapping exists yet.
func (m *CategoryMapper) Resolve(ctx context.Context, source, externalID string) (string, error) {
	mapping, err := m.repos.Categories.GetMapping(ctx, source, externalID)
	if err == nil {
		return mapping.InternalCategoryID, nil
	}
	if !isNotFound(err) {
		return "", err
	}
	return m.ensureHolding(ctx)
}
