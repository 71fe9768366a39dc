package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DigiiBuz/internal/content"
	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

const wordpressDateLayout = "2006-01-02T15:04:05"

// AnnouncementDeps wires the announcement publish flow.
type AnnouncementDeps struct {
	Announcements ports.AnnouncementRepository
	Configs       ports.ConfigRepository
	Prober        ports.EndpointProber
	Media         ports.MediaUploader
	Posts         ports.PostPublisher
	Logger        *slog.Logger
}

// AnnouncementPublisher creates or updates the WordPress post of an announcement.
type AnnouncementPublisher struct {
	announcements ports.AnnouncementRepository
	configs       ports.ConfigRepository
	prober        ports.EndpointProber
	media         ports.MediaUploader
	posts         ports.PostPublisher
	logger        *slog.Logger
	now           func() time.Time
}

// AnnouncementResult is returned after a successful write.
type AnnouncementResult struct {
	PostID  int64
	Link    string
	Status  string
	Custom  bool
	MediaID int64
}

// NewAnnouncementPublisher constructs the flow.
func NewAnnouncementPublisher(deps AnnouncementDeps) *AnnouncementPublisher {
	return &AnnouncementPublisher{
		announcements: deps.Announcements,
		configs:       deps.Configs,
		prober:        deps.Prober,
		media:         deps.Media,
		posts:         deps.Posts,
		logger:        deps.Logger,
		now:           time.Now,
	}
}

// Publish sends the announcement. categoryID overrides the stored category
// when non-empty. A media failure only drops the featured image.
func (a *AnnouncementPublisher) Publish(ctx context.Context, id, categoryID string) (AnnouncementResult, error) {
	ann, err := a.announcements.GetAnnouncement(ctx, id)
	if err != nil {
		return AnnouncementResult{}, fmt.Errorf("load announcement: %w", err)
	}
	cfg, err := a.configs.GetWordPressConfig(ctx, ann.WordPressConfigID)
	if err != nil {
		return AnnouncementResult{}, fmt.Errorf("load wordpress config: %w", err)
	}
	site := cfg.Site()
	if site == "" {
		return AnnouncementResult{}, fmt.Errorf("wordpress config %s has no site url: %w", cfg.ID, domain.ErrInvalidInput)
	}
	auth := cfg.Credentials()

	if categoryID == "" {
		categoryID = ann.WordPressCategoryID
	}

	result, err := a.send(ctx, site, auth, ann, categoryID)
	if err != nil {
		a.warn("announcement publish failed", "announcement_id", id, "error", err)
		if markErr := a.announcements.MarkAnnouncementFailed(context.WithoutCancel(ctx), id, domain.FriendlyMessage(err)); markErr != nil {
			a.warn("cannot store announcement failure", "announcement_id", id, "error", markErr)
		}
		return AnnouncementResult{}, err
	}

	if err := a.announcements.MarkAnnouncementPublished(ctx, id, result.PostID, result.Status, categoryID, result.Custom); err != nil {
		return result, fmt.Errorf("record announcement post %d: %w", result.PostID, err)
	}

	a.info("announcement published", "announcement_id", id, "post_id", result.PostID, "status", result.Status, "custom", result.Custom)
	return result, nil
}

func (a *AnnouncementPublisher) send(ctx context.Context, site string, auth domain.Credentials, ann domain.Announcement, categoryID string) (AnnouncementResult, error) {
	var result AnnouncementResult

	if len(ann.Images) > 0 && a.media != nil {
		if mediaID, ok := a.media.Upload(ctx, site, auth, ann.Images[0], ann.Title); ok {
			result.MediaID = mediaID
		}
	}

	target := a.prober.Probe(ctx, site, auth, domain.PathPosts)

	body, err := content.ToHTML(ann.Description)
	if err != nil {
		return AnnouncementResult{}, fmt.Errorf("render description: %w", err)
	}

	input := domain.PostInput{
		Title:           ann.Title,
		Content:         body,
		Status:          "publish",
		CategoryID:      parseCategoryID(categoryID),
		FeaturedMediaID: result.MediaID,
		Slug:            ann.SEOSlug,
		SEOTitle:        ann.SEOTitle,
		MetaDescription: ann.MetaDescription,
	}
	result.Status = domain.AnnouncementPublished
	if ann.PublishDate != nil && ann.PublishDate.After(a.now()) {
		input.Status = "future"
		input.Date = ann.PublishDate.Format(wordpressDateLayout)
		result.Status = domain.AnnouncementScheduled
	}
	if ann.WordPressPostID != nil {
		input.ExistingID = *ann.WordPressPostID
	}

	post, err := a.posts.Publish(ctx, site, auth, target, input)
	if err != nil {
		return AnnouncementResult{}, fmt.Errorf("publish to %s: %w", target.Endpoint(site), err)
	}

	result.PostID = post.ID
	result.Link = post.Link
	result.Custom = target.Custom
	return result, nil
}

func (a *AnnouncementPublisher) info(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Info(msg, args...)
	}
}

func (a *AnnouncementPublisher) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
