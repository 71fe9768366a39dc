package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

const defaultLockTTL = 2 * time.Minute

// PublisherDeps wires all driven adapters into the publish flow.
type PublisherDeps struct {
	Lifecycle *Lifecycle
	Configs   ports.ConfigRepository
	Prober    ports.EndpointProber
	Posts     ports.PostPublisher
	Locker    ports.Locker
	LockTTL   time.Duration
	Logger    *slog.Logger
}

// Publisher pushes generation records to their WordPress site.
type Publisher struct {
	lifecycle *Lifecycle
	configs   ports.ConfigRepository
	prober    ports.EndpointProber
	posts     ports.PostPublisher
	locker    ports.Locker
	lockTTL   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// PublishResult describes a successful publication.
type PublishResult struct {
	Generation domain.Generation
	Post       domain.PublishedPost
	Target     domain.Target
}

// NewPublisher constructs the orchestration component.
func NewPublisher(deps PublisherDeps) *Publisher {
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Publisher{
		lifecycle: deps.Lifecycle,
		configs:   deps.Configs,
		prober:    deps.Prober,
		posts:     deps.Posts,
		locker:    deps.Locker,
		lockTTL:   ttl,
		logger:    deps.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PublishGeneration runs read, claim, probe, publish and record. Any failure
// after the claim leaves the record failed with a user-facing message; the
// returned error keeps the technical cause.
func (p *Publisher) PublishGeneration(ctx context.Context, id string) (PublishResult, error) {
	g, err := p.lifecycle.Get(ctx, id)
	if err != nil {
		return PublishResult{}, fmt.Errorf("load generation: %w", err)
	}
	if !g.HasContent() {
		return PublishResult{}, fmt.Errorf("generation %s: %w", id, domain.ErrNoContent)
	}

	if p.locker != nil {
		unlock, ok, err := p.locker.TryLock(ctx, "publish:"+id, p.lockTTL)
		if err != nil {
			return PublishResult{}, fmt.Errorf("lock generation: %w", err)
		}
		if !ok {
			return PublishResult{}, fmt.Errorf("generation %s: %w", id, domain.ErrInFlight)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				p.warn("release publish lock", "generation_id", id, "error", err)
			}
		}()
	}

	if _, err := p.lifecycle.MarkProcessing(ctx, id); err != nil {
		return PublishResult{}, err
	}

	result, err := p.publish(ctx, g)
	if err != nil {
		p.warn("publish failed", "generation_id", id, "error", err)
		_, _ = p.lifecycle.MarkFailed(ctx, id, domain.FriendlyMessage(err))
		return PublishResult{}, err
	}

	published, err := p.lifecycle.MarkPublished(ctx, id, result.Post.ID, p.now())
	if err != nil {
		p.warn("cannot record publication", "generation_id", id, "post_id", result.Post.ID, "error", err)
		msg := fmt.Sprintf("Published as WordPress post %d but the result could not be saved. Check the site before retrying.", result.Post.ID)
		_, _ = p.lifecycle.MarkFailed(ctx, id, msg)
		return PublishResult{}, fmt.Errorf("record publication of post %d: %w", result.Post.ID, err)
	}
	result.Generation = published

	p.info("generation published", "generation_id", id, "post_id", result.Post.ID, "path", result.Target.Path)
	return result, nil
}

func (p *Publisher) publish(ctx context.Context, g domain.Generation) (PublishResult, error) {
	cfg, err := p.configs.GetWordPressConfig(ctx, g.WordPressConfigID)
	if err != nil {
		return PublishResult{}, fmt.Errorf("load wordpress config: %w", err)
	}
	site := cfg.Site()
	if site == "" {
		return PublishResult{}, fmt.Errorf("wordpress config %s has no site url: %w", cfg.ID, domain.ErrInvalidInput)
	}
	auth := cfg.Credentials()

	target := p.prober.Probe(ctx, site, auth, domain.PathPages)

	post, err := p.posts.Publish(ctx, site, auth, target, domain.PostInput{
		Title:      defaultString(g.Title, "Nouveau contenu"),
		Content:    g.Content,
		CategoryID: parseCategoryID(g.CategoryID),
	})
	if err != nil {
		return PublishResult{}, fmt.Errorf("publish to %s: %w", target.Endpoint(site), err)
	}

	return PublishResult{Post: post, Target: target}, nil
}

// PublishDue publishes every scheduled record whose time has come and returns
// how many went out.
func (p *Publisher) PublishDue(ctx context.Context, due []domain.Generation) int {
	published := 0
	for _, g := range due {
		if ctx.Err() != nil {
			break
		}
		if _, err := p.PublishGeneration(ctx, g.ID); err != nil {
			p.warn("scheduled publish failed", "generation_id", g.ID, "error", err)
			continue
		}
		published++
	}
	return published
}

func parseCategoryID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func (p *Publisher) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Publisher) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
