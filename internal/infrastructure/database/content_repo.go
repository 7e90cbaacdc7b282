package database

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"contentd/internal/domain/entities"
	"contentd/internal/ports/output"
)

var (
	_ output.ContentRepository        = (*ContentRepository)(nil)
	_ output.DropdownConfigRepository = (*ContentRepository)(nil)
)

// Querier is the subset of pgxpool.Pool used by the repositories.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ContentRepository implements the content read ports with pgx.
type ContentRepository struct {
	q  Querier
	SQ sq.StatementBuilderType
}

// NewContentRepository creates a ContentRepository.
func NewContentRepository(q Querier) *ContentRepository {
	return &ContentRepository{q: q, SQ: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// screenRowsQuery selects every active item of screen, left-joined with its
// approved translations so items without one still come back.
func (r *ContentRepository) screenRowsQuery(screen string) (string, []any, error) {
	return r.SQ.Select(
		"ci.id",
		"ci.content_key",
		"ci.screen_location",
		"ci.component_type",
		"ci.category",
		"ci.is_active",
		"ci.default_language",
		"ct.language_code",
		"ct.content_value",
		"ct.status",
	).
		From("content_items ci").
		LeftJoin("content_translations ct ON ct.content_item_id = ci.id AND ct.status = ?", entities.TranslationApproved).
		Where(sq.Eq{"ci.screen_location": screen, "ci.is_active": true}).
		OrderBy("ci.content_key", "ct.language_code").
		ToSql()
}

func (r *ContentRepository) dropdownConfigsQuery(screen string) (string, []any, error) {
	return r.SQ.Select("dropdown_key", "field_name", "screen_location", "dropdown_data").
		From("dropdown_configs").
		Where(sq.Eq{"screen_location": screen, "is_active": true}).
		OrderBy("dropdown_key").
		ToSql()
}

func (r *ContentRepository) FindScreenRows(ctx context.Context, screen string) ([]entities.ContentRow, error) {
	query, args, err := r.screenRowsQuery(screen)
	if err != nil {
		return nil, fmt.Errorf("build screen rows query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query screen rows: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[contentRowRecord])
	if err != nil {
		return nil, fmt.Errorf("collect screen rows: %w", err)
	}
	out := make([]entities.ContentRow, len(records))
	for i := range records {
		out[i] = contentRowToDomain(records[i])
	}
	return out, nil
}

func (r *ContentRepository) FindDropdownGroups(ctx context.Context, screen string) ([]entities.DropdownGroup, error) {
	query, args, err := r.dropdownConfigsQuery(screen)
	if err != nil {
		return nil, fmt.Errorf("build dropdown configs query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dropdown configs: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[dropdownConfigRecord])
	if err != nil {
		return nil, fmt.Errorf("collect dropdown configs: %w", err)
	}
	out := make([]entities.DropdownGroup, 0, len(records))
	for i := range records {
		g, err := dropdownConfigToDomain(records[i])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
