package ports

import (
	"context"
	"time"

	"DigiiBuz/internal/domain"
)

// GenerationRepository persists generation records and guards their status.
type GenerationRepository interface {
	CreateGeneration(ctx context.Context, in domain.NewGeneration) (domain.Generation, error)
	GetGeneration(ctx context.Context, id string) (domain.Generation, error)
	// TransitionGeneration moves the record to `to` only if its current
	// status is one of `from`; otherwise it returns domain.ErrConflict.
	TransitionGeneration(ctx context.Context, id string, from []domain.GenerationStatus, to domain.GenerationStatus, patch domain.GenerationPatch) (domain.Generation, error)
	LastGenerationAt(ctx context.Context, configID string) (*time.Time, error)
	ListDueScheduled(ctx context.Context, now time.Time) ([]domain.Generation, error)
	// ListStaleProcessing returns processing records not touched since cutoff.
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]domain.Generation, error)
}

// ConfigRepository reads per-tenant WordPress settings.
type ConfigRepository interface {
	GetWordPressConfig(ctx context.Context, id string) (domain.WordPressConfig, error)
}

// CatalogRepository exposes the keyword and locality pools of a site.
type CatalogRepository interface {
	ListKeywords(ctx context.Context, configID string) ([]domain.Keyword, error)
	ListActiveLocalities(ctx context.Context, configID string) ([]domain.Locality, error)
	GetKeyword(ctx context.Context, id string) (domain.Keyword, error)
	GetLocality(ctx context.Context, id string) (domain.Locality, error)
}

// AnnouncementRepository persists user announcements and their publish outcome.
type AnnouncementRepository interface {
	GetAnnouncement(ctx context.Context, id string) (domain.Announcement, error)
	MarkAnnouncementPublished(ctx context.Context, id string, postID int64, status, categoryID string, custom bool) error
	MarkAnnouncementFailed(ctx context.Context, id, message string) error
}

// AutomationRepository lists scheduled-generation settings.
type AutomationRepository interface {
	ListAutomationSettings(ctx context.Context, enabledOnly bool) ([]domain.AutomationSetting, error)
}

// EndpointProber decides which REST collection and taxonomy a site uses.
type EndpointProber interface {
	Probe(ctx context.Context, site string, auth domain.Credentials, fallback domain.ContentPath) domain.Target
}

// MediaUploader attaches a remote image to the WordPress media library.
// A false result means "no featured image", never a failed publication.
type MediaUploader interface {
	Upload(ctx context.Context, site string, auth domain.Credentials, imageURL, title string) (int64, bool)
}

// PostPublisher performs the single create-or-update call.
type PostPublisher interface {
	Publish(ctx context.Context, site string, auth domain.Credentials, target domain.Target, post domain.PostInput) (domain.PublishedPost, error)
}

// CategoryLister fetches the category terms of a site.
type CategoryLister interface {
	ListCategories(ctx context.Context, site string, auth domain.Credentials) ([]domain.WordPressCategory, error)
}

// CategorySource returns category terms, possibly from a cache keyed by config id.
type CategorySource interface {
	Get(ctx context.Context, key, site string, auth domain.Credentials) ([]domain.WordPressCategory, error)
}

// ChatClient completes prompts against an LLM provider.
type ChatClient interface {
	Complete(ctx context.Context, prompt domain.Prompt) (string, error)
}

// Locker hands out advisory locks shared between service instances.
type Locker interface {
	// TryLock returns ok=false when the key is already held.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
