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

func TestPublishAnnouncementScheduled(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	future := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	ann, err := f.store.SaveAnnouncement(ctx, domain.Announcement{
		WordPressConfigID:   f.config.ID,
		Title:               "Portes ouvertes",
		Description:         "Venez **nombreux**.",
		Images:              []string{"https://cdn.example.com/a.png"},
		SEOSlug:             "portes-ouvertes",
		PublishDate:         &future,
		WordPressCategoryID: "7",
	})
	if err != nil {
		t.Fatalf("save announcement: %v", err)
	}

	f.prober.target = domain.CustomTarget(domain.PathCustom)
	p := usecase.NewAnnouncementPublisher(usecase.AnnouncementDeps{
		Announcements: f.store,
		Configs:       f.store,
		Prober:        f.prober,
		Media:         fakeMedia{id: 99, ok: true},
		Posts:         f.posts,
	})

	res, err := p.Publish(ctx, ann.ID, "")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.PostID != 42 || !res.Custom || res.Status != domain.AnnouncementScheduled || res.MediaID != 99 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.prober.fallback != domain.PathPosts {
		t.Fatalf("probe fallback = %q, want posts", f.prober.fallback)
	}

	in := f.posts.calls[0]
	if in.Status != "future" || in.Date != future.Format("2006-01-02T15:04:05") {
		t.Fatalf("unexpected status/date: %q %q", in.Status, in.Date)
	}
	if in.CategoryID != 7 || in.FeaturedMediaID != 99 || in.Slug != "portes-ouvertes" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if !strings.Contains(in.Content, "<strong>nombreux</strong>") {
		t.Fatalf("description not rendered: %q", in.Content)
	}

	stored, err := f.store.GetAnnouncement(ctx, ann.ID)
	if err != nil {
		t.Fatalf("get announcement: %v", err)
	}
	if stored.WordPressPostID == nil || *stored.WordPressPostID != 42 || !stored.IsDivipixel || stored.Status != domain.AnnouncementScheduled {
		t.Fatalf("unexpected stored announcement: %+v", stored)
	}

	// A second publish updates the existing remote post.
	if _, err := p.Publish(ctx, ann.ID, "8"); err != nil {
		t.Fatalf("republish: %v", err)
	}
	if f.posts.calls[1].ExistingID != 42 || f.posts.calls[1].CategoryID != 8 {
		t.Fatalf("unexpected update input: %+v", f.posts.calls[1])
	}
}

func TestPublishAnnouncementDegradesMediaAndStoresFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	ann, err := f.store.SaveAnnouncement(ctx, domain.Announcement{
		WordPressConfigID: f.config.ID,
		Title:             "Promo",
		Description:       "<p>Déjà du HTML</p>",
		Images:            []string{"https://cdn.example.com/broken.png"},
	})
	if err != nil {
		t.Fatalf("save announcement: %v", err)
	}

	f.posts.err = &domain.PublishError{Kind: domain.FailureTimeout}
	p := usecase.NewAnnouncementPublisher(usecase.AnnouncementDeps{
		Announcements: f.store,
		Configs:       f.store,
		Prober:        f.prober,
		Media:         fakeMedia{},
		Posts:         f.posts,
	})

	_, err = p.Publish(ctx, ann.ID, "")
	var pubErr *domain.PublishError
	if !errors.As(err, &pubErr) || pubErr.Kind != domain.FailureTimeout {
		t.Fatalf("error = %v, want timeout", err)
	}
	if in := f.posts.calls[0]; in.FeaturedMediaID != 0 || in.Status != "publish" || in.Content != "<p>Déjà du HTML</p>" {
		t.Fatalf("unexpected input: %+v", in)
	}

	stored, _ := f.store.GetAnnouncement(ctx, ann.ID)
	if !strings.Contains(stored.ErrorMessage, "timeout") || stored.Status != domain.AnnouncementDraft {
		t.Fatalf("unexpected stored announcement: %+v", stored)
	}
}

type fakeCategories struct {
	key   string
	site  string
	items []domain.WordPressCategory
}

func (f *fakeCategories) Get(_ context.Context, key, site string, _ domain.Credentials) ([]domain.WordPressCategory, error) {
	f.key, f.site = key, site
	return f.items, nil
}

func TestCategoriesList(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	src := &fakeCategories{items: []domain.WordPressCategory{{ID: 3, Name: "Actualités"}}}
	got, err := usecase.NewCategories(f.store, src).List(context.Background(), f.config.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("unexpected categories: %+v", got)
	}
	if src.key != f.config.ID || src.site != "https://example.com" {
		t.Fatalf("source called with key=%q site=%q", src.key, src.site)
	}

	if _, err := usecase.NewCategories(f.store, src).List(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
