package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/usecase"
)

func seedCatalog(t *testing.T, f *fixture) (domain.Keyword, domain.Locality) {
	t.Helper()
	ctx := context.Background()

	kw, err := f.store.SaveKeyword(ctx, domain.Keyword{
		WordPressConfigID: f.config.ID,
		CategoryID:        "12",
		CategoryName:      "Plomberie",
		Keyword:           "plombier urgence",
	})
	if err != nil {
		t.Fatalf("save keyword: %v", err)
	}
	loc, err := f.store.SaveLocality(ctx, domain.Locality{
		WordPressConfigID: f.config.ID,
		Name:              "Lyon",
		Region:            "Rhône",
		Active:            true,
	})
	if err != nil {
		t.Fatalf("save locality: %v", err)
	}
	return kw, loc
}

func TestGenerateDraft(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	kw, loc := seedCatalog(t, f)
	ctx := context.Background()

	g, err := f.lifecycle.Create(ctx, domain.NewGeneration{
		WordPressConfigID: f.config.ID,
		CategoryID:        "12",
		KeywordID:         kw.ID,
		LocalityID:        loc.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	draft, err := f.drafts.GenerateDraft(ctx, g.ID)
	if err != nil {
		t.Fatalf("GenerateDraft: %v", err)
	}
	if draft.Status != domain.StatusDraft {
		t.Fatalf("status = %q, want draft", draft.Status)
	}
	if draft.Title != "Plombier à Lyon" {
		t.Fatalf("title = %q", draft.Title)
	}
	if !strings.Contains(draft.Content, "<h1>") {
		t.Fatalf("content not rendered to HTML: %q", draft.Content)
	}
	for _, want := range []string{"Rédige pour une agence locale.", "Plomberie", "plombier urgence", "Lyon (Rhône)"} {
		if !strings.Contains(f.chat.prompt.User, want) {
			t.Fatalf("prompt missing %q:\n%s", want, f.chat.prompt.User)
		}
	}
}

func TestGenerateDraftFailureMarksFailed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.chat.err = errors.New("rate limited")
	ctx := context.Background()

	g, _ := f.lifecycle.Create(ctx, domain.NewGeneration{WordPressConfigID: f.config.ID, CategoryID: "3"})
	if _, err := f.drafts.GenerateDraft(ctx, g.ID); err == nil {
		t.Fatalf("expected error")
	}
	got, _ := f.store.GetGeneration(ctx, g.ID)
	if got.Status != domain.StatusFailed || !strings.Contains(got.ErrorMessage, "rate limited") {
		t.Fatalf("unexpected record: status=%q message=%q", got.Status, got.ErrorMessage)
	}
}

type hangupChat struct {
	cancel context.CancelFunc
	reply  string
}

func (h hangupChat) Complete(context.Context, domain.Prompt) (string, error) {
	h.cancel()
	return h.reply, nil
}

func TestGenerateDraftStoresAfterCancel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	drafts := usecase.NewDraftGenerator(usecase.DraftDeps{
		Lifecycle: f.lifecycle,
		Configs:   f.store,
		Catalog:   f.store,
		Chat:      hangupChat{cancel: cancel, reply: "# Titre\n\nCorps."},
	})

	g, _ := f.lifecycle.Create(context.Background(), domain.NewGeneration{WordPressConfigID: f.config.ID})
	if _, err := drafts.GenerateDraft(ctx, g.ID); err != nil {
		t.Fatalf("GenerateDraft: %v", err)
	}
	got, _ := f.store.GetGeneration(context.Background(), g.ID)
	if got.Status != domain.StatusDraft || !got.HasContent() {
		t.Fatalf("unexpected record: status=%q content=%q", got.Status, got.Content)
	}
}

func TestGenerateDraftUnknownCategory(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	g, _ := f.lifecycle.Create(ctx, domain.NewGeneration{WordPressConfigID: f.config.ID, CategoryID: "12"})
	if _, err := f.drafts.GenerateDraft(ctx, g.ID); err != nil {
		t.Fatalf("GenerateDraft: %v", err)
	}
	if !strings.Contains(f.chat.prompt.User, "Catégorie: Non spécifiée") {
		t.Fatalf("prompt should use the unknown category label:\n%s", f.chat.prompt.User)
	}
	if strings.Contains(f.chat.prompt.User, "Catégorie: 12") {
		t.Fatalf("prompt leaks raw category id:\n%s", f.chat.prompt.User)
	}
}

func TestGenerateAndPublish(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	g, _ := f.lifecycle.Create(ctx, domain.NewGeneration{WordPressConfigID: f.config.ID, CategoryID: "12"})
	res, err := usecase.GenerateAndPublish(ctx, f.drafts, f.publisher, g.ID)
	if err != nil {
		t.Fatalf("GenerateAndPublish: %v", err)
	}
	if res.Generation.Status != domain.StatusPublished || res.Post.ID != 42 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestShouldGenerate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		at := now.Add(-d)
		return &at
	}

	cases := []struct {
		name      string
		last      *time.Time
		frequency float64
		want      bool
	}{
		{"never generated", nil, 1, true},
		{"fifteen minutes reached", ago(16 * time.Minute), 0.0105, true},
		{"fifteen minutes not reached", ago(14 * time.Minute), 0.0105, false},
		{"one day reached", ago(25 * time.Hour), 1, true},
		{"one day not reached", ago(23 * time.Hour), 1, false},
		{"partial days floor", ago(47 * time.Hour), 2, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := usecase.ShouldGenerate(tc.last, tc.frequency, now); got != tc.want {
				t.Fatalf("ShouldGenerate = %v, want %v", got, tc.want)
			}
		})
	}
}

func newAutomation(f *fixture) *usecase.Automation {
	return usecase.NewAutomation(usecase.AutomationDeps{
		Settings:    f.store,
		Generations: f.store,
		Catalog:     f.store,
		Lifecycle:   f.lifecycle,
		Drafts:      f.drafts,
		Publisher:   f.publisher,
		Intn:        func(int) int { return 0 },
	})
}

func TestAutomationRun(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	kw, loc := seedCatalog(t, f)
	ctx := context.Background()

	if _, err := f.store.SaveAutomationSetting(ctx, domain.AutomationSetting{
		WordPressConfigID: f.config.ID,
		Enabled:           true,
		Frequency:         1,
		APIKey:            "key-1",
	}); err != nil {
		t.Fatalf("save automation: %v", err)
	}
	a := newAutomation(f)

	report, err := a.Run(ctx, usecase.RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.GenerationsCreated != 1 || len(report.Details) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	g, err := f.store.GetGeneration(ctx, report.Details[0].GenerationID)
	if err != nil {
		t.Fatalf("get generation: %v", err)
	}
	if g.Status != domain.StatusDraft || g.KeywordID != kw.ID || g.LocalityID != loc.ID || g.CategoryID != "12" {
		t.Fatalf("unexpected generation: %+v", g)
	}

	report, err = a.Run(ctx, usecase.RunOptions{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.GenerationsCreated != 0 || report.Details[0].Reason != "frequency_not_reached" {
		t.Fatalf("second run should skip: %+v", report)
	}

	report, err = a.Run(ctx, usecase.RunOptions{APIKey: "key-1"})
	if err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	if report.GenerationsCreated != 1 {
		t.Fatalf("api key run should force generation: %+v", report)
	}

	report, err = a.Run(ctx, usecase.RunOptions{ConfigCheck: true})
	if err != nil {
		t.Fatalf("config check: %v", err)
	}
	if len(report.Settings) != 1 || report.GenerationsCreated != 0 {
		t.Fatalf("unexpected config check report: %+v", report)
	}
}

func TestAutomationAPIKeyValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.store.SaveAutomationSetting(ctx, domain.AutomationSetting{
		WordPressConfigID: f.config.ID,
		Enabled:           false,
		Frequency:         1,
		APIKey:            "off-key",
	}); err != nil {
		t.Fatalf("save automation: %v", err)
	}
	a := newAutomation(f)

	if _, err := a.Run(ctx, usecase.RunOptions{APIKey: "nope"}); !errors.Is(err, domain.ErrInvalidAPIKey) {
		t.Fatalf("error = %v, want ErrInvalidAPIKey", err)
	}
	if _, err := a.Run(ctx, usecase.RunOptions{APIKey: "off-key"}); !errors.Is(err, domain.ErrAutomationOff) {
		t.Fatalf("error = %v, want ErrAutomationOff", err)
	}
}

func TestAutomationWithoutCategories(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.store.SaveAutomationSetting(ctx, domain.AutomationSetting{
		WordPressConfigID: f.config.ID,
		Enabled:           true,
		Frequency:         1,
	}); err != nil {
		t.Fatalf("save automation: %v", err)
	}

	report, err := newAutomation(f).Run(ctx, usecase.RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Details) != 1 || report.Details[0].Result != usecase.ResultFailed || report.Details[0].Reason != "no_categories" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestAutomationTickPublishesDue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	g := f.draft(t)

	if _, err := f.lifecycle.Schedule(ctx, g.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	report := newAutomation(f).Tick(ctx, time.Now())
	if report.Published != 1 {
		t.Fatalf("published = %d, want 1", report.Published)
	}
	got, _ := f.store.GetGeneration(ctx, g.ID)
	if got.Status != domain.StatusPublished {
		t.Fatalf("status = %q, want published", got.Status)
	}
}

func TestAutomationTickRecoversStale(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	g, _ := f.lifecycle.Create(ctx, domain.NewGeneration{WordPressConfigID: f.config.ID, CategoryID: "12"})
	if _, err := f.lifecycle.MarkProcessing(ctx, g.ID); err != nil {
		t.Fatalf("processing: %v", err)
	}

	auto := newAutomation(f)
	if report := auto.Tick(ctx, time.Now()); report.Recovered != 0 {
		t.Fatalf("recovered fresh record: %+v", report)
	}
	report := auto.Tick(ctx, time.Now().Add(time.Hour))
	if report.Recovered != 1 {
		t.Fatalf("recovered = %d, want 1", report.Recovered)
	}
	got, _ := f.store.GetGeneration(ctx, g.ID)
	if got.Status != domain.StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
}
