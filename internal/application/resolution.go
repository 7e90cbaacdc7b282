package application

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"contentd/internal/domain"
	"contentd/internal/domain/entities"
	"contentd/internal/ports/input"
	"contentd/internal/ports/output"
	"contentd/pkg/alias"
	"contentd/pkg/dropdown"
	"contentd/pkg/fieldkey"
)

var _ input.ResolutionUseCase = (*ResolutionService)(nil)

// Source selects the storage shape backing the dropdown endpoints.
type Source string

const (
	// SourceRelational reads content_items + content_translations. System of record.
	SourceRelational Source = "relational"
	// SourceJSONB reads dropdown_configs. Deprecated read path, never merged with the other.
	SourceJSONB Source = "jsonb"
)

var screenPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,128}$`)

// ResolutionOptions configures a ResolutionService.
type ResolutionOptions struct {
	Source          Source
	DefaultLanguage string
	Aliases         *alias.Table
	Logger          zerolog.Logger
}

// ResolutionService assembles, caches and serves dropdown and content payloads.
type ResolutionService struct {
	contents   output.ContentRepository
	groups     output.DropdownConfigRepository
	cache      output.ContentCache
	languages  output.LanguageMatcher
	aggregator *Aggregator
	aliases    *alias.Table
	source     Source
	log        zerolog.Logger
	flight     singleflight.Group
	now        func() time.Time
}

func NewResolutionService(
	contents output.ContentRepository,
	groups output.DropdownConfigRepository,
	cache output.ContentCache,
	languages output.LanguageMatcher,
	opts ResolutionOptions,
) *ResolutionService {
	if opts.Source == "" {
		opts.Source = SourceRelational
	}
	if opts.Aliases == nil {
		opts.Aliases = alias.Default()
	}
	return &ResolutionService{
		contents:   contents,
		groups:     groups,
		cache:      cache,
		languages:  languages,
		aggregator: NewAggregator(opts.DefaultLanguage),
		aliases:    opts.Aliases,
		source:     opts.Source,
		log:        opts.Logger,
		now:        time.Now,
	}
}

// GetDropdowns returns the structured dropdown read. On error the returned
// response still carries the full shape with empty collections.
func (s *ResolutionService) GetDropdowns(ctx context.Context, screen, language string) (*dropdown.Response, error) {
	start := s.now()
	resp := &dropdown.Response{
		Status:         dropdown.StatusSuccess,
		ScreenLocation: screen,
		LanguageCode:   language,
		Structure:      *dropdown.NewStructure(),
		Source:         string(s.source),
	}

	lang, err := s.validate(screen, language)
	if err != nil {
		resp.Status = dropdown.StatusError
		return resp, err
	}
	resp.LanguageCode = lang

	structure, hit, err := s.dropdownStructure(ctx, screen, lang)
	if err != nil {
		resp.Status = dropdown.StatusError
		return resp, err
	}
	resp.Structure = *structure
	resp.Cached = hit
	resp.CacheInfo = &dropdown.CacheInfo{
		Hit:              hit,
		ProcessingTimeMS: float64(s.now().Sub(start).Microseconds()) / 1000,
	}
	return resp, nil
}

// GetField resolves a single field through the alias table.
func (s *ResolutionService) GetField(ctx context.Context, screen, field, language string) (*dropdown.FieldResponse, error) {
	resp := &dropdown.FieldResponse{
		Status:         dropdown.StatusSuccess,
		ScreenLocation: screen,
		LanguageCode:   language,
		Field:          field,
		FieldProps:     dropdown.FieldProps{Options: []dropdown.Option{}},
	}

	lang, err := s.validate(screen, language)
	if err != nil {
		resp.Status = dropdown.StatusError
		return resp, err
	}
	resp.LanguageCode = lang

	structure, _, err := s.dropdownStructure(ctx, screen, lang)
	if err != nil {
		resp.Status = dropdown.StatusError
		return resp, err
	}
	resp.FieldProps = dropdown.Lookup(structure, screen, field, s.aliases)
	return resp, nil
}

// GetContent returns the flat content_key -> value read, optionally filtered
// by component type.
func (s *ResolutionService) GetContent(ctx context.Context, screen, language, componentType string) (*dropdown.ContentResponse, error) {
	resp := &dropdown.ContentResponse{
		Status:         dropdown.StatusSuccess,
		ScreenLocation: screen,
		LanguageCode:   language,
		Content:        map[string]string{},
		FilteredByType: componentType,
	}

	lang, err := s.validate(screen, language)
	if err != nil {
		resp.Status = dropdown.StatusError
		return resp, err
	}
	resp.LanguageCode = lang

	variant := "content_all"
	if componentType != "" {
		variant = "content_" + string(entities.ParseComponentType(componentType))
	}
	key := output.CacheKey{Screen: screen, Language: lang, Variant: variant}

	content, hit, err := s.cached(ctx, key, func(ctx context.Context) (any, error) {
		return s.buildContent(ctx, screen, lang, componentType)
	})
	if err != nil {
		resp.Status = dropdown.StatusError
		return resp, err
	}
	resp.Content = content.(map[string]string)
	resp.ContentCount = len(resp.Content)
	resp.Cached = hit
	return resp, nil
}

// ClearCache drops every cached payload and returns how many were removed.
func (s *ResolutionService) ClearCache() int {
	n := s.cache.Clear()
	s.log.Info().Int("keys_cleared", n).Msg("🧹 Content cache cleared")
	return n
}

func (s *ResolutionService) CacheStats() output.CacheStats {
	return s.cache.Stats()
}

func (s *ResolutionService) validate(screen, language string) (string, error) {
	if !screenPattern.MatchString(screen) {
		return "", fmt.Errorf("validate %q: %w", screen, domain.ErrInvalidScreen)
	}
	lang, err := s.languages.Match(language)
	if err != nil {
		return "", fmt.Errorf("match language %q: %w", language, err)
	}
	return lang, nil
}

func (s *ResolutionService) dropdownStructure(ctx context.Context, screen, lang string) (*dropdown.Structure, bool, error) {
	key := output.CacheKey{Screen: screen, Language: lang, Variant: "dropdowns_" + string(s.source)}
	v, hit, err := s.cached(ctx, key, func(ctx context.Context) (any, error) {
		return s.buildDropdowns(ctx, screen, lang)
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*dropdown.Structure), hit, nil
}

// cached is the cache-aside step shared by every read. Concurrent misses on
// one key collapse into a single build; the value is fully assembled before
// it is published. The build runs detached from the caller's cancellation so
// one aborted request does not fail the readers waiting on it.
func (s *ResolutionService) cached(ctx context.Context, key output.CacheKey, build func(context.Context) (any, error)) (any, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		s.log.Debug().Str("key", key.String()).Msg("✅ Cache HIT")
		return v, true, nil
	}

	s.log.Debug().Str("key", key.String()).Msg("❄️ Cache MISS")
	buildCtx := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(key.String(), func() (any, error) {
		v, err := build(buildCtx)
		if err != nil {
			return nil, err
		}
		s.cache.Put(key, v)
		s.log.Debug().Str("key", key.String()).Msg("💾 Cached")
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, false, nil
}

func (s *ResolutionService) buildDropdowns(ctx context.Context, screen, lang string) (*dropdown.Structure, error) {
	var structure *dropdown.Structure
	switch s.source {
	case SourceJSONB:
		groups, err := s.groups.FindDropdownGroups(ctx, screen)
		if err != nil {
			s.log.Error().Err(err).Str("screen", screen).Msg("❌ Failed to read dropdown configs")
			return nil, fmt.Errorf("find dropdown groups: %w: %w", domain.ErrStoreUnavailable, err)
		}
		structure = s.aggregator.AggregateGroups(screen, lang, groups)
	default:
		rows, err := s.contents.FindScreenRows(ctx, screen)
		if err != nil {
			s.log.Error().Err(err).Str("screen", screen).Msg("❌ Failed to read content rows")
			return nil, fmt.Errorf("find screen rows: %w: %w", domain.ErrStoreUnavailable, err)
		}
		structure = s.aggregator.Aggregate(screen, lang, rows)
	}
	s.publishAliases(screen, structure)
	return structure, nil
}

// publishAliases mirrors each declared pair of screen into the structure so
// that either spelling finds the data. Slots already filled are kept.
func (s *ResolutionService) publishAliases(screen string, st *dropdown.Structure) {
	pairs := s.aliases.Reciprocal(screen)
	if len(pairs) == 0 {
		return
	}
	type resolved struct {
		name  string
		props dropdown.FieldProps
	}
	var todo []resolved
	for _, p := range pairs {
		for _, name := range []string{p.A, p.B} {
			todo = append(todo, resolved{name: name, props: dropdown.Lookup(st, screen, name, s.aliases)})
		}
	}

	for _, r := range todo {
		key := fieldkey.Join(screen, r.name)
		if _, ok := st.Options[key]; !ok && len(r.props.Options) > 0 {
			st.Options[key] = r.props.Options
		}
		if _, ok := st.Labels[key]; !ok && r.props.Label != "" {
			st.Labels[key] = r.props.Label
		}
		if _, ok := st.Placeholders[key]; !ok && r.props.Placeholder != "" {
			st.Placeholders[key] = r.props.Placeholder
		}
		if len(st.Options[key]) > 0 && !st.HasDropdown(key) {
			st.Dropdowns = append(st.Dropdowns, dropdown.Entry{
				Key:   key,
				Label: entryLabel(st.Labels[key], r.name),
			})
		}
	}
	sortEntries(st.Dropdowns)
}

func (s *ResolutionService) buildContent(ctx context.Context, screen, lang, componentType string) (map[string]string, error) {
	rows, err := s.contents.FindScreenRows(ctx, screen)
	if err != nil {
		s.log.Error().Err(err).Str("screen", screen).Msg("❌ Failed to read content rows")
		return nil, fmt.Errorf("find screen rows: %w: %w", domain.ErrStoreUnavailable, err)
	}

	var filter entities.ComponentType
	if componentType != "" {
		filter = entities.ParseComponentType(componentType)
	}

	content := map[string]string{}
	kinds := map[string]fieldkey.Kind{}
	for _, li := range groupRows(rows) {
		item := li.item
		if !item.IsActive {
			continue
		}
		if filter != "" && item.ComponentType != filter {
			continue
		}
		content[item.ContentKey] = s.aggregator.text(li.values, lang, item.DefaultLanguage)
		kinds[item.ContentKey] = kindOf(item.ComponentType)
	}

	s.publishContentAliases(screen, content, kinds)
	return content, nil
}

// publishContentAliases applies the same reciprocal pairs as publishAliases
// to flat content keys. Each slot (label, placeholder, option group) of a
// field is copied as a whole, and only when the other spelling has nothing
// in that slot.
func (s *ResolutionService) publishContentAliases(screen string, content map[string]string, kinds map[string]fieldkey.Kind) {
	pairs := s.aliases.Reciprocal(screen)
	if len(pairs) == 0 {
		return
	}

	type slot struct {
		name string
		kind fieldkey.Kind
	}
	type entry struct {
		key string
		fk  fieldkey.FieldKey
	}
	slots := map[slot][]entry{}
	for key := range content {
		fk := fieldkey.Parse(screen, key, kinds[key])
		if fk.Screen != screen {
			continue
		}
		sl := slot{name: fk.Name, kind: fk.Kind}
		slots[sl] = append(slots[sl], entry{key: key, fk: fk})
	}

	added := map[string]string{}
	for _, p := range pairs {
		for _, dir := range [][2]string{{p.A, p.B}, {p.B, p.A}} {
			from, to := dir[0], dir[1]
			for _, kind := range []fieldkey.Kind{fieldkey.KindLabel, fieldkey.KindPlaceholder, fieldkey.KindOption} {
				if len(slots[slot{name: to, kind: kind}]) > 0 {
					continue
				}
				for _, e := range slots[slot{name: from, kind: kind}] {
					mirrored := e.fk.WithName(to).Format()
					if _, exists := content[mirrored]; !exists {
						added[mirrored] = content[e.key]
					}
				}
			}
		}
	}
	for k, v := range added {
		content[k] = v
	}
}

func kindOf(c entities.ComponentType) fieldkey.Kind {
	switch c {
	case entities.ComponentOption:
		return fieldkey.KindOption
	case entities.ComponentPlaceholder:
		return fieldkey.KindPlaceholder
	}
	return fieldkey.KindLabel
}
