package application

import (
	"sort"
	"strconv"
	"strings"

	"contentd/internal/domain/entities"
	"contentd/pkg/dropdown"
	"contentd/pkg/fieldkey"
)

// Aggregator turns store rows into the dropdown Structure for one language.
type Aggregator struct {
	defaultLanguage string
}

func NewAggregator(defaultLanguage string) *Aggregator {
	return &Aggregator{defaultLanguage: defaultLanguage}
}

// localizedItem is one content item with its approved values per language.
type localizedItem struct {
	item   entities.ContentItem
	values map[string]string
}

type pendingOption struct {
	key    fieldkey.FieldKey
	option dropdown.Option
}

// groupRows folds joined rows back into items, keeping first-seen order.
func groupRows(rows []entities.ContentRow) []*localizedItem {
	byID := make(map[int64]*localizedItem, len(rows))
	out := make([]*localizedItem, 0, len(rows))
	for _, row := range rows {
		li, ok := byID[row.Item.ID]
		if !ok {
			li = &localizedItem{item: row.Item, values: map[string]string{}}
			byID[row.Item.ID] = li
			out = append(out, li)
		}
		tr := row.Translation
		if tr.LanguageCode == "" || !tr.IsApproved() {
			continue
		}
		li.values[tr.LanguageCode] = tr.ContentValue
	}
	return out
}

// text picks the requested language, then the item default, then the
// deployment default. A missing value yields "".
func (a *Aggregator) text(values map[string]string, language, itemDefault string) string {
	for _, lang := range []string{language, itemDefault, a.defaultLanguage} {
		if lang == "" {
			continue
		}
		if v, ok := values[lang]; ok {
			return v
		}
	}
	return ""
}

// Aggregate builds the structure for the relational storage shape. Inactive
// items and non-dropdown component types are ignored.
func (a *Aggregator) Aggregate(screen, language string, rows []entities.ContentRow) *dropdown.Structure {
	out := dropdown.NewStructure()
	options := map[string][]pendingOption{}
	names := map[string]string{}
	containers := map[string]string{}

	for _, li := range groupRows(rows) {
		item := li.item
		if !item.IsActive || !item.ComponentType.IsDropdownPart() {
			continue
		}
		text := a.text(li.values, language, item.DefaultLanguage)

		switch item.ComponentType {
		case entities.ComponentOption:
			fk := fieldkey.Parse(screen, item.ContentKey, fieldkey.KindOption)
			field := fk.Field()
			names[field] = fk.Name
			options[field] = append(options[field], pendingOption{
				key:    fk,
				option: dropdown.Option{Value: optionValue(fk, item.ContentKey), Text: text},
			})
		case entities.ComponentPlaceholder:
			fk := fieldkey.Parse(screen, item.ContentKey, fieldkey.KindPlaceholder)
			out.Placeholders[fk.Field()] = text
		case entities.ComponentLabel:
			fk := fieldkey.Parse(screen, item.ContentKey, fieldkey.KindLabel)
			out.Labels[fk.Field()] = text
		case entities.ComponentDropdownContainer:
			fk := fieldkey.Parse(screen, item.ContentKey, fieldkey.KindLabel)
			containers[fk.Field()] = text
		}
	}

	// An explicit label beats the container title.
	for field, text := range containers {
		if _, ok := out.Labels[field]; !ok {
			out.Labels[field] = text
		}
	}

	for field, pending := range options {
		sort.SliceStable(pending, func(i, j int) bool {
			return fieldkey.Less(pending[i].key, pending[j].key)
		})
		list := make([]dropdown.Option, len(pending))
		for i, p := range pending {
			list[i] = p.option
		}
		out.Options[field] = list
		out.Dropdowns = append(out.Dropdowns, dropdown.Entry{
			Key:   field,
			Label: entryLabel(out.Labels[field], names[field]),
		})
	}
	sortEntries(out.Dropdowns)
	return out
}

// AggregateGroups builds the structure for the JSONB storage shape. For the
// same data it yields the same payload as Aggregate.
func (a *Aggregator) AggregateGroups(screen, language string, groups []entities.DropdownGroup) *dropdown.Structure {
	out := dropdown.NewStructure()
	for _, g := range groups {
		key := g.DropdownKey
		if key == "" {
			key = fieldkey.Join(screen, g.FieldName)
		}
		if len(g.Label) > 0 {
			out.Labels[key] = a.text(g.Label, language, "")
		}
		if len(g.Placeholder) > 0 {
			out.Placeholders[key] = a.text(g.Placeholder, language, "")
		}
		if len(g.Options) == 0 {
			continue
		}
		list := make([]dropdown.Option, len(g.Options))
		for i, opt := range g.Options {
			list[i] = dropdown.Option{Value: opt.Value, Text: a.text(opt.Text, language, "")}
		}
		out.Options[key] = list

		name := g.FieldName
		if name == "" {
			name = fieldkey.Parse(screen, key, fieldkey.KindLabel).Name
		}
		out.Dropdowns = append(out.Dropdowns, dropdown.Entry{
			Key:   key,
			Label: entryLabel(out.Labels[key], name),
		})
	}
	sortEntries(out.Dropdowns)
	return out
}

// optionValue is the ordinal when the key carries one, else the raw key.
func optionValue(fk fieldkey.FieldKey, contentKey string) string {
	if fk.Ordinal > 0 {
		return strconv.Itoa(fk.Ordinal)
	}
	return contentKey
}

func entryLabel(label, name string) string {
	if label != "" {
		return label
	}
	return strings.ReplaceAll(name, "_", " ")
}

func sortEntries(entries []dropdown.Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}
