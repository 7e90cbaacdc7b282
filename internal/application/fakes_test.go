package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/viccon/sturdyc"

	"contentd/internal/domain/entities"
	"contentd/internal/infrastructure/cache"
	"contentd/pkg/alias"
)

type fakeContentRepo struct {
	mu    sync.Mutex
	rows  map[string][]entities.ContentRow
	err   error
	calls atomic.Int32

	// gate, when set, holds every read until it is closed or ctx ends.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeContentRepo) FindScreenRows(ctx context.Context, screen string) ([]entities.ContentRow, error) {
	f.calls.Add(1)
	if f.gate != nil {
		if f.entered != nil {
			f.entered <- struct{}{}
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[screen], nil
}

func (f *fakeContentRepo) set(screen string, rows []entities.ContentRow) {
	f.mu.Lock()
	f.rows[screen] = rows
	f.mu.Unlock()
}

type fakeGroupRepo struct {
	groups map[string][]entities.DropdownGroup
	err    error
}

func (f *fakeGroupRepo) FindDropdownGroups(_ context.Context, screen string) ([]entities.DropdownGroup, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.groups[screen], nil
}

// passMatcher accepts known codes and rejects empty ones.
type passMatcher struct{}

func (passMatcher) Match(code string) (string, error) {
	switch code {
	case "en", "he", "ru":
		return code, nil
	}
	return "", fmt.Errorf("unsupported %q", code)
}

// rowBuilder assigns stable item ids per content key.
type rowBuilder struct {
	screen string
	ids    map[string]int64
	rows   []entities.ContentRow
}

func newRows(screen string) *rowBuilder {
	return &rowBuilder{screen: screen, ids: map[string]int64{}}
}

func (b *rowBuilder) add(key string, ct entities.ComponentType, texts ...string) *rowBuilder {
	id, ok := b.ids[key]
	if !ok {
		id = int64(len(b.ids) + 1)
		b.ids[key] = id
	}
	item := entities.ContentItem{
		ID:             id,
		ContentKey:     key,
		ScreenLocation: b.screen,
		ComponentType:  ct,
		IsActive:       true,
	}
	if len(texts) == 0 {
		b.rows = append(b.rows, entities.ContentRow{Item: item, Translation: entities.Translation{ContentItemID: id}})
		return b
	}
	for i := 0; i+1 < len(texts); i += 2 {
		b.rows = append(b.rows, entities.ContentRow{
			Item: item,
			Translation: entities.Translation{
				ContentItemID: id,
				LanguageCode:  texts[i],
				ContentValue:  texts[i+1],
				Status:        entities.TranslationApproved,
			},
		})
	}
	return b
}

func (b *rowBuilder) build() []entities.ContentRow {
	return b.rows
}

func newService(repo *fakeContentRepo, groups *fakeGroupRepo, source Source) (*ResolutionService, *cache.Memory) {
	return newServiceWithCache(repo, groups, source, cache.NewMemory(0))
}

// newExpiringService wires a cache that expires after ttl on a test clock.
func newExpiringService(repo *fakeContentRepo, ttl time.Duration) (*ResolutionService, *sturdyc.TestClock) {
	clock := sturdyc.NewTestClock(time.Date(2025, 8, 6, 10, 0, 0, 0, time.UTC))
	svc, _ := newServiceWithCache(repo, &fakeGroupRepo{}, SourceRelational, cache.NewMemory(ttl, cache.WithClock(clock)))
	return svc, clock
}

func newServiceWithCache(repo *fakeContentRepo, groups *fakeGroupRepo, source Source, c *cache.Memory) (*ResolutionService, *cache.Memory) {
	svc := NewResolutionService(repo, groups, c, passMatcher{}, ResolutionOptions{
		Source:          source,
		DefaultLanguage: "en",
		Aliases:         alias.Default(),
		Logger:          zerolog.Nop(),
	})
	return svc, c
}
