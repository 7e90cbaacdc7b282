package input

import (
	"context"

	"contentd/internal/ports/output"
	"contentd/pkg/dropdown"
)

// ResolutionUseCase is the read surface driven by the HTTP adapter.
type ResolutionUseCase interface {
	GetDropdowns(ctx context.Context, screen, language string) (*dropdown.Response, error)
	GetField(ctx context.Context, screen, field, language string) (*dropdown.FieldResponse, error)
	GetContent(ctx context.Context, screen, language, componentType string) (*dropdown.ContentResponse, error)
	ClearCache() int
	CacheStats() output.CacheStats
}
