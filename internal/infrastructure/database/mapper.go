package database

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"contentd/internal/domain/entities"
)

// contentRowRecord is one line of the screen query. Translation columns are
// NULL for items without any approved translation.
type contentRowRecord struct {
	ID              int64       `db:"id"`
	ContentKey      string      `db:"content_key"`
	ScreenLocation  string      `db:"screen_location"`
	ComponentType   string      `db:"component_type"`
	Category        pgtype.Text `db:"category"`
	IsActive        bool        `db:"is_active"`
	DefaultLanguage pgtype.Text `db:"default_language"`
	LanguageCode    pgtype.Text `db:"language_code"`
	ContentValue    pgtype.Text `db:"content_value"`
	Status          pgtype.Text `db:"status"`
}

type dropdownConfigRecord struct {
	DropdownKey    string      `db:"dropdown_key"`
	FieldName      pgtype.Text `db:"field_name"`
	ScreenLocation string      `db:"screen_location"`
	DropdownData   []byte      `db:"dropdown_data"`
}

// dropdownData mirrors the JSONB document stored in dropdown_configs.
type dropdownData struct {
	Label       map[string]string      `json:"label"`
	Placeholder map[string]string      `json:"placeholder"`
	Options     []entities.GroupOption `json:"options"`
}

// pgtypeTextToString returns t.String when Valid, else "".
func pgtypeTextToString(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func contentRowToDomain(r contentRowRecord) entities.ContentRow {
	return entities.ContentRow{
		Item: entities.ContentItem{
			ID:              r.ID,
			ContentKey:      r.ContentKey,
			ScreenLocation:  r.ScreenLocation,
			ComponentType:   entities.ParseComponentType(r.ComponentType),
			Category:        pgtypeTextToString(r.Category),
			IsActive:        r.IsActive,
			DefaultLanguage: pgtypeTextToString(r.DefaultLanguage),
		},
		Translation: entities.Translation{
			ContentItemID: r.ID,
			LanguageCode:  pgtypeTextToString(r.LanguageCode),
			ContentValue:  pgtypeTextToString(r.ContentValue),
			Status:        pgtypeTextToString(r.Status),
		},
	}
}

func dropdownConfigToDomain(r dropdownConfigRecord) (entities.DropdownGroup, error) {
	g := entities.DropdownGroup{
		DropdownKey:    r.DropdownKey,
		FieldName:      pgtypeTextToString(r.FieldName),
		ScreenLocation: r.ScreenLocation,
	}
	if len(r.DropdownData) == 0 {
		return g, nil
	}
	var data dropdownData
	if err := json.Unmarshal(r.DropdownData, &data); err != nil {
		return g, fmt.Errorf("decode dropdown_data of %s: %w", r.DropdownKey, err)
	}
	g.Label = data.Label
	g.Placeholder = data.Placeholder
	g.Options = data.Options
	return g, nil
}
