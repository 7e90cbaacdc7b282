package output

import (
	"context"

	"contentd/internal/domain/entities"
)

// ContentRepository reads the normalised content tables.
type ContentRepository interface {
	// FindScreenRows returns every active item of screen joined with its
	// approved translations, all languages, in one call.
	FindScreenRows(ctx context.Context, screen string) ([]entities.ContentRow, error)
}

// DropdownConfigRepository reads the denormalised JSONB dropdown table.
type DropdownConfigRepository interface {
	FindDropdownGroups(ctx context.Context, screen string) ([]entities.DropdownGroup, error)
}
