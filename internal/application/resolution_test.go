package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"contentd/internal/domain"
	"contentd/internal/domain/entities"
	"contentd/pkg/dropdown"
)

// legacyWhenRows stores mortgage_step1 "when needed" data under the old key only.
func legacyWhenRows() []entities.ContentRow {
	return newRows("mortgage_step1").
		add("mortgage_step1_when", entities.ComponentLabel, "en", "When do you need the money?", "he", "מתי תזדקק לכסף?").
		add("mortgage_step1_when_ph", entities.ComponentPlaceholder, "en", "Select timeframe", "he", "בחר מסגרת זמן").
		add("mortgage_step1_when_option_1", entities.ComponentOption, "en", "Within 3 months", "he", "תוך 3 חודשים").
		add("mortgage_step1_when_option_2", entities.ComponentOption, "en", "3-6 months", "he", "3-6 חודשים").
		add("mortgage_step1_when_option_3", entities.ComponentOption, "en", "6-12 months", "he", "6-12 חודשים").
		add("mortgage_step1_when_option_4", entities.ComponentOption, "en", "Over 12 months", "he", "מעל 12 חודשים").
		build()
}

func newRepo() *fakeContentRepo {
	return &fakeContentRepo{rows: map[string][]entities.ContentRow{}}
}

func TestGetFieldResolvesLegacyKey(t *testing.T) {
	repo := newRepo()
	repo.set("mortgage_step1", legacyWhenRows())
	svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)
	ctx := context.Background()

	got, err := svc.GetField(ctx, "mortgage_step1", "when_needed", "he")
	if err != nil {
		t.Fatal(err)
	}
	want := dropdown.FieldProps{
		Options: []dropdown.Option{
			{Value: "1", Text: "תוך 3 חודשים"},
			{Value: "2", Text: "3-6 חודשים"},
			{Value: "3", Text: "6-12 חודשים"},
			{Value: "4", Text: "מעל 12 חודשים"},
		},
		Label:       "מתי תזדקק לכסף?",
		Placeholder: "בחר מסגרת זמן",
	}
	if diff := cmp.Diff(want, got.FieldProps); diff != "" {
		t.Errorf("GetField mismatch (-want +got):\n%s", diff)
	}

	direct, err := svc.GetField(ctx, "mortgage_step1", "when", "he")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(direct.FieldProps, got.FieldProps); diff != "" {
		t.Errorf("alias and direct reads disagree (-direct +alias):\n%s", diff)
	}
}

func TestGetDropdownsPublishesReciprocalAlias(t *testing.T) {
	repo := newRepo()
	repo.set("mortgage_step1", legacyWhenRows())
	svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)

	resp, err := svc.GetDropdowns(context.Background(), "mortgage_step1", "he")
	if err != nil {
		t.Fatal(err)
	}
	legacy := resp.Options["mortgage_step1_when"]
	published := resp.Options["mortgage_step1_when_needed"]
	if len(legacy) != 4 {
		t.Fatalf("expected 4 legacy options, got %d", len(legacy))
	}
	if diff := cmp.Diff(legacy, published); diff != "" {
		t.Errorf("published alias differs (-legacy +published):\n%s", diff)
	}
	if resp.Labels["mortgage_step1_when_needed"] != resp.Labels["mortgage_step1_when"] {
		t.Error("label not published under alias")
	}
	if resp.Placeholders["mortgage_step1_when_needed"] != resp.Placeholders["mortgage_step1_when"] {
		t.Error("placeholder not published under alias")
	}
	if !resp.HasDropdown("mortgage_step1_when_needed") || !resp.HasDropdown("mortgage_step1_when") {
		t.Errorf("both spellings must be listed, got %+v", resp.Dropdowns)
	}
}

func TestAliasSymmetryForEveryPair(t *testing.T) {
	pairs := [][2]string{{"when", "when_needed"}, {"first", "first_home"}}
	for _, pair := range pairs {
		for i := 0; i < 2; i++ {
			stored, requested := pair[i], pair[1-i]
			t.Run(stored+"->"+requested, func(t *testing.T) {
				repo := newRepo()
				repo.set("mortgage_step1", newRows("mortgage_step1").
					add("mortgage_step1_"+stored, entities.ComponentLabel, "en", "Label").
					add("mortgage_step1_"+stored+"_ph", entities.ComponentPlaceholder, "en", "Placeholder").
					add("mortgage_step1_"+stored+"_option_1", entities.ComponentOption, "en", "Yes").
					add("mortgage_step1_"+stored+"_option_2", entities.ComponentOption, "en", "No").
					build())
				svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)

				direct, err := svc.GetField(context.Background(), "mortgage_step1", stored, "en")
				if err != nil {
					t.Fatal(err)
				}
				viaAlias, err := svc.GetField(context.Background(), "mortgage_step1", requested, "en")
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(direct.FieldProps, viaAlias.FieldProps); diff != "" {
					t.Errorf("mismatch (-direct +alias):\n%s", diff)
				}
			})
		}
	}
}

func TestCanonicalDataWinsOverAlias(t *testing.T) {
	repo := newRepo()
	repo.set("mortgage_step1", newRows("mortgage_step1").
		add("mortgage_step1_when_needed", entities.ComponentLabel, "en", "Canonical").
		add("mortgage_step1_when_needed_option_1", entities.ComponentOption, "en", "canonical option").
		add("mortgage_step1_when", entities.ComponentLabel, "en", "Legacy").
		add("mortgage_step1_when_ph", entities.ComponentPlaceholder, "en", "Legacy placeholder").
		add("mortgage_step1_when_option_1", entities.ComponentOption, "en", "legacy 1").
		add("mortgage_step1_when_option_2", entities.ComponentOption, "en", "legacy 2").
		build())
	svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)

	resp, err := svc.GetDropdowns(context.Background(), "mortgage_step1", "en")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]dropdown.Option{{Value: "1", Text: "canonical option"}}, resp.Options["mortgage_step1_when_needed"]); diff != "" {
		t.Errorf("canonical options overwritten (-want +got):\n%s", diff)
	}
	if resp.Labels["mortgage_step1_when_needed"] != "Canonical" {
		t.Errorf("canonical label overwritten: %q", resp.Labels["mortgage_step1_when_needed"])
	}
	if len(resp.Options["mortgage_step1_when"]) != 2 {
		t.Errorf("legacy options overwritten: %+v", resp.Options["mortgage_step1_when"])
	}

	field, err := svc.GetField(context.Background(), "mortgage_step1", "when_needed", "en")
	if err != nil {
		t.Fatal(err)
	}
	want := dropdown.FieldProps{
		Options: []dropdown.Option{{Value: "1", Text: "canonical option"}},
		Label:   "Canonical",
	}
	if diff := cmp.Diff(want, field.FieldProps); diff != "" {
		t.Errorf("GetField mismatch (-want +got):\n%s", diff)
	}
}

func TestCitizenshipPublishedOnStep2(t *testing.T) {
	repo := newRepo()
	repo.set("mortgage_step2", newRows("mortgage_step2").
		add("mortgage_step2_citizenship_option_1", entities.ComponentOption, "en", "Israel").
		build())
	svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)

	resp, err := svc.GetDropdowns(context.Background(), "mortgage_step2", "en")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Options["mortgage_step2_citizenship_countries"]) != 1 {
		t.Errorf("citizenship_countries not published: %+v", resp.Options)
	}
}

func TestNoPublicationOutsideDeclaredScreens(t *testing.T) {
	repo := newRepo()
	repo.set("refinance_step1", newRows("refinance_step1").
		add("refinance_step1_when_option_1", entities.ComponentOption, "en", "Soon").
		build())
	svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)

	resp, err := svc.GetDropdowns(context.Background(), "refinance_step1", "en")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := resp.Options["refinance_step1_when_needed"]; ok {
		t.Error("alias published on an undeclared screen")
	}
	field, err := svc.GetField(context.Background(), "refinance_step1", "when_needed", "en")
	if err != nil {
		t.Fatal(err)
	}
	if len(field.Options) != 1 {
		t.Error("field lookup should still use the alias table")
	}
}

func TestGetDropdownsEmptyScreen(t *testing.T) {
	svc, _ := newService(newRepo(), &fakeGroupRepo{}, SourceRelational)

	resp, err := svc.GetDropdowns(context.Background(), "not_configured", "en")
	if err != nil {
		t.Fatalf("empty screen must not fail: %v", err)
	}
	if resp.Status != dropdown.StatusSuccess {
		t.Errorf("status = %q", resp.Status)
	}
	if diff := cmp.Diff(*dropdown.NewStructure(), resp.Structure); diff != "" {
		t.Errorf("expected empty structure (-want +got):\n%s", diff)
	}
}

func TestStoreFailureKeepsShape(t *testing.T) {
	repo := newRepo()
	repo.err = errors.New("connection refused")
	svc, c := newService(repo, &fakeGroupRepo{}, SourceRelational)

	resp, err := svc.GetDropdowns(context.Background(), "mortgage_step1", "en")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if resp == nil || resp.Status != dropdown.StatusError {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Dropdowns == nil || resp.Options == nil || resp.Labels == nil || resp.Placeholders == nil {
		t.Error("degraded response must keep empty collections")
	}
	if c.Stats().Entries != 0 {
		t.Error("failures must not be cached")
	}

	content, err := svc.GetContent(context.Background(), "mortgage_step1", "en", "")
	if !errors.Is(err, domain.ErrStoreUnavailable) || content.Content == nil {
		t.Errorf("content read: err=%v content=%v", err, content.Content)
	}
}

func TestInvalidInput(t *testing.T) {
	svc, _ := newService(newRepo(), &fakeGroupRepo{}, SourceRelational)

	if _, err := svc.GetDropdowns(context.Background(), "bad screen!", "en"); !errors.Is(err, domain.ErrInvalidScreen) {
		t.Errorf("expected ErrInvalidScreen, got %v", err)
	}
	if _, err := svc.GetDropdowns(context.Background(), "s", "xx"); err == nil {
		t.Error("expected language error")
	}
}

func TestCacheServesIdenticalStructure(t *testing.T) {
	repo := newRepo()
	repo.set("mortgage_step1", legacyWhenRows())
	svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)
	ctx := context.Background()

	first, err := svc.GetDropdowns(ctx, "mortgage_step1", "he")
	if err != nil {
		t.Fatal(err)
	}
	repo.set("mortgage_step1", nil)
	second, err := svc.GetDropdowns(ctx, "mortgage_step1", "he")
	if err != nil {
		t.Fatal(err)
	}

	if first.Cached || !second.Cached {
		t.Errorf("cached flags: first=%v second=%v", first.Cached, second.Cached)
	}
	if diff := cmp.Diff(first.Structure, second.Structure); diff != "" {
		t.Errorf("cached structure differs (-first +second):\n%s", diff)
	}
	if n := repo.calls.Load(); n != 1 {
		t.Errorf("store read %d times, want 1", n)
	}

	svc.ClearCache()
	third, err := svc.GetDropdowns(ctx, "mortgage_step1", "he")
	if err != nil {
		t.Fatal(err)
	}
	if len(third.Options) != 0 {
		t.Error("read after clear should reflect the store change")
	}
}

func TestConcurrentMissesCollapse(t *testing.T) {
	repo := newRepo()
	repo.set("mortgage_step1", legacyWhenRows())
	svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)

	var wg sync.WaitGroup
	results := make([]*dropdown.Response, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.GetDropdowns(context.Background(), "mortgage_step1", "en")
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = resp
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		if r == nil || results[0] == nil {
			continue
		}
		if diff := cmp.Diff(results[0].Structure, r.Structure); diff != "" {
			t.Errorf("concurrent readers disagree:\n%s", diff)
		}
	}
}

func TestJSONBSource(t *testing.T) {
	groups := &fakeGroupRepo{groups: map[string][]entities.DropdownGroup{
		"mortgage_step1": {{
			DropdownKey: "mortgage_step1_first",
			FieldName:   "first",
			Label:       map[string]string{"en": "First home?"},
			Options: []entities.GroupOption{
				{Value: "yes", Text: map[string]string{"en": "Yes"}},
				{Value: "no", Text: map[string]string{"en": "No"}},
			},
		}},
	}}
	repo := newRepo()
	svc, _ := newService(repo, groups, SourceJSONB)

	resp, err := svc.GetDropdowns(context.Background(), "mortgage_step1", "en")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Source != "jsonb" {
		t.Errorf("source = %q", resp.Source)
	}
	if diff := cmp.Diff(resp.Options["mortgage_step1_first"], resp.Options["mortgage_step1_first_home"]); diff != "" {
		t.Errorf("first_home not published (-first +first_home):\n%s", diff)
	}
	if repo.calls.Load() != 0 {
		t.Error("jsonb source must not read the relational tables")
	}
}

func TestGetContentFiltersAndPublishesAliases(t *testing.T) {
	repo := newRepo()
	rows := newRows("mortgage_step1").
		add("mortgage_step1_title", entities.ComponentTitle, "en", "Mortgage calculator").
		add("mortgage_step1_when", entities.ComponentLabel, "en", "When").
		add("mortgage_step1_when_option_1", entities.ComponentOption, "en", "Soon").
		add("mortgage_step1_hidden", entities.ComponentText, "en", "Hidden").
		build()
	for i := range rows {
		if rows[i].Item.ContentKey == "mortgage_step1_hidden" {
			rows[i].Item.IsActive = false
		}
	}
	repo.set("mortgage_step1", rows)
	svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)
	ctx := context.Background()

	all, err := svc.GetContent(ctx, "mortgage_step1", "en", "")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"mortgage_step1_title":                "Mortgage calculator",
		"mortgage_step1_when":                 "When",
		"mortgage_step1_when_needed":          "When",
		"mortgage_step1_when_option_1":        "Soon",
		"mortgage_step1_when_needed_option_1": "Soon",
	}
	if diff := cmp.Diff(want, all.Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	if all.ContentCount != len(want) {
		t.Errorf("ContentCount = %d", all.ContentCount)
	}

	titles, err := svc.GetContent(ctx, "mortgage_step1", "en", "title")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"mortgage_step1_title": "Mortgage calculator"}, titles.Content); diff != "" {
		t.Errorf("filtered content mismatch (-want +got):\n%s", diff)
	}
}

// assertReadsAgree checks that every key of the dropdown read has its flat
// counterpart in the content read, and that option groups match one to one.
func assertReadsAgree(t *testing.T, drops *dropdown.Response, content map[string]string) {
	t.Helper()
	for key := range drops.Labels {
		if _, ok := content[key]; !ok {
			t.Errorf("label key %s missing from content read", key)
		}
	}
	for key := range drops.Placeholders {
		if _, ok := content[key+"_ph"]; !ok {
			t.Errorf("placeholder key %s_ph missing from content read", key)
		}
	}
	for field, opts := range drops.Options {
		for _, opt := range opts {
			if got, ok := content[field+"_option_"+opt.Value]; !ok || got != opt.Text {
				t.Errorf("option %s_option_%s = %q, want %q", field, opt.Value, got, opt.Text)
			}
		}
		n := 0
		for key := range content {
			if strings.HasPrefix(key, field+"_option_") {
				n++
			}
		}
		if n != len(opts) {
			t.Errorf("%s: content read has %d options, dropdown read %d", field, n, len(opts))
		}
	}
}

func TestContentAndDropdownsAgreeOnAliasKeys(t *testing.T) {
	cases := map[string][]entities.ContentRow{
		"legacy key only": legacyWhenRows(),
		"both spellings populated": newRows("mortgage_step1").
			add("mortgage_step1_when_needed_option_1", entities.ComponentOption, "en", "Canonical 1").
			add("mortgage_step1_when_needed_option_2", entities.ComponentOption, "en", "Canonical 2").
			add("mortgage_step1_when_option_1", entities.ComponentOption, "en", "Legacy 1").
			add("mortgage_step1_when_option_2", entities.ComponentOption, "en", "Legacy 2").
			add("mortgage_step1_when_option_3", entities.ComponentOption, "en", "Legacy 3").
			add("mortgage_step1_when", entities.ComponentLabel, "en", "Legacy label").
			build(),
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newRepo()
			repo.set("mortgage_step1", rows)
			svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)
			ctx := context.Background()

			drops, err := svc.GetDropdowns(ctx, "mortgage_step1", "en")
			if err != nil {
				t.Fatal(err)
			}
			content, err := svc.GetContent(ctx, "mortgage_step1", "en", "")
			if err != nil {
				t.Fatal(err)
			}
			assertReadsAgree(t, drops, content.Content)
		})
	}
}

func TestContentReadKeepsCanonicalOptions(t *testing.T) {
	repo := newRepo()
	repo.set("mortgage_step1", newRows("mortgage_step1").
		add("mortgage_step1_when_needed_option_1", entities.ComponentOption, "en", "Canonical 1").
		add("mortgage_step1_when_needed_option_2", entities.ComponentOption, "en", "Canonical 2").
		add("mortgage_step1_when_option_1", entities.ComponentOption, "en", "Legacy 1").
		add("mortgage_step1_when_option_2", entities.ComponentOption, "en", "Legacy 2").
		add("mortgage_step1_when_option_3", entities.ComponentOption, "en", "Legacy 3").
		build())
	svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)

	got, err := svc.GetContent(context.Background(), "mortgage_step1", "en", "option")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"mortgage_step1_when_needed_option_1": "Canonical 1",
		"mortgage_step1_when_needed_option_2": "Canonical 2",
		"mortgage_step1_when_option_1":        "Legacy 1",
		"mortgage_step1_when_option_2":        "Legacy 2",
		"mortgage_step1_when_option_3":        "Legacy 3",
	}
	if diff := cmp.Diff(want, got.Content); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestReadAfterTTLReaggregatesOnce(t *testing.T) {
	repo := newRepo()
	repo.set("mortgage_step1", legacyWhenRows())
	svc, clock := newExpiringService(repo, 5*time.Minute)
	ctx := context.Background()

	first, err := svc.GetDropdowns(ctx, "mortgage_step1", "en")
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Options["mortgage_step1_when"]) != 4 {
		t.Fatalf("unexpected first read %+v", first.Options)
	}

	repo.set("mortgage_step1", newRows("mortgage_step1").
		add("mortgage_step1_when_option_1", entities.ComponentOption, "en", "Now").
		add("mortgage_step1_when_option_2", entities.ComponentOption, "en", "Later").
		build())

	clock.Add(4 * time.Minute)
	within, err := svc.GetDropdowns(ctx, "mortgage_step1", "en")
	if err != nil {
		t.Fatal(err)
	}
	if !within.Cached || len(within.Options["mortgage_step1_when"]) != 4 {
		t.Errorf("read within TTL should be the cached structure: %+v", within.Options)
	}

	clock.Add(2 * time.Minute)
	after, err := svc.GetDropdowns(ctx, "mortgage_step1", "en")
	if err != nil {
		t.Fatal(err)
	}
	if after.Cached {
		t.Error("read after TTL should re-aggregate")
	}
	want := []dropdown.Option{{Value: "1", Text: "Now"}, {Value: "2", Text: "Later"}}
	if diff := cmp.Diff(want, after.Options["mortgage_step1_when"]); diff != "" {
		t.Errorf("store change not reflected (-want +got):\n%s", diff)
	}

	again, err := svc.GetDropdowns(ctx, "mortgage_step1", "en")
	if err != nil {
		t.Fatal(err)
	}
	if !again.Cached {
		t.Error("re-aggregated structure was not cached")
	}
	if n := repo.calls.Load(); n != 2 {
		t.Errorf("store read %d times, want 2", n)
	}
}

func TestCancelledCallerDoesNotFailWaiters(t *testing.T) {
	repo := newRepo()
	repo.set("mortgage_step1", legacyWhenRows())
	repo.gate = make(chan struct{})
	repo.entered = make(chan struct{}, 2)
	svc, _ := newService(repo, &fakeGroupRepo{}, SourceRelational)

	first, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.GetDropdowns(first, "mortgage_step1", "en")
		firstErr <- err
	}()
	<-repo.entered

	type result struct {
		resp *dropdown.Response
		err  error
	}
	second := make(chan result, 1)
	go func() {
		resp, err := svc.GetDropdowns(context.Background(), "mortgage_step1", "en")
		second <- result{resp, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)

	got := <-second
	if got.err != nil {
		t.Fatalf("waiter failed because another caller cancelled: %v", got.err)
	}
	if len(got.resp.Options["mortgage_step1_when"]) != 4 {
		t.Errorf("unexpected options %+v", got.resp.Options)
	}
	if err := <-firstErr; err != nil {
		t.Errorf("shared build failed: %v", err)
	}
	if n := repo.calls.Load(); n != 1 {
		t.Errorf("store read %d times, want 1", n)
	}
}
