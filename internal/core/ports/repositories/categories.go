package repositories

import (
	"context"

	"github.com/cashkeep/cashkeep/internal/core/domain"
)

// CategoryRepository persists Category rows, the frozen CategoryMap, and
// question-vocabulary aliases.
type CategoryRepository interface {
	UpsertCategory(ctx context.Context, c domain.Category) error
	GetCategoryByID(ctx context.Context, id string) (*domain.Category, error)
	FindInternalByName(ctx context.Context, name string) (*domain.Category, error)
	ListCategories(ctx context.Context, source string) ([]domain.Category, error)

	// GetMapping returns apperrors.ErrNotFound if (source, externalID) has
	// no mapping yet.
	GetMapping(ctx context.Context, source, externalID string) (*domain.CategoryMap, error)
	// SetMapping overwrites any existing mapping; callers keep mappings
	// frozen by checking GetMapping first (the Category Mapper only calls it
	// for a key that has no mapping yet, Holding mappings included).
	SetMapping(ctx context.Context, m domain.CategoryMap) error

	// ResolveAlias returns apperrors.ErrNotFound if questionText has no
	// registered alias.
	ResolveAlias(ctx context.Context, questionText string) (string, error)
}
