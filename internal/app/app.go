package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"DigiiBuz/internal/config"
	"DigiiBuz/internal/httpapi"
	"DigiiBuz/internal/infrastructure/llm"
	"DigiiBuz/internal/infrastructure/lock"
	"DigiiBuz/internal/infrastructure/scheduler"
	"DigiiBuz/internal/infrastructure/storage"
	"DigiiBuz/internal/infrastructure/wordpress"
	"DigiiBuz/internal/logging"
	"DigiiBuz/internal/ports"
	"DigiiBuz/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.Store
	server    *httpapi.Server
	scheduler *usecase.Scheduler
	closers   []func() error
}

// New opens the store, builds every adapter and the HTTP server.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	wp := wordpress.NewClient(&http.Client{}, wordpress.Options{
		ProbeTimeout:   cfg.WordPress.ProbeTimeout,
		PublishTimeout: cfg.WordPress.PublishTimeout,
		MediaTimeout:   cfg.WordPress.MediaTimeout,
		PreflightDelay: cfg.WordPress.PreflightDelay,
		MaxRedirects:   cfg.WordPress.MaxRedirects,
		UserAgent:      cfg.WordPress.UserAgent,
	}, baseLogger.With("component", "wordpress"))

	var chatClient ports.ChatClient
	if cfg.OpenAI.APIKey != "" {
		client, err := llm.NewOpenAIClient(cfg.OpenAI)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("openai client: %w", err)
		}
		chatClient = client
	} else {
		baseLogger.Warn("openai api key not set; draft generation disabled")
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	lifecycle := usecase.NewLifecycle(store, baseLogger.With("component", "lifecycle"))
	publisher := usecase.NewPublisher(usecase.PublisherDeps{
		Lifecycle: lifecycle,
		Configs:   store,
		Prober:    wp,
		Posts:     wp,
		Locker:    locker,
		LockTTL:   cfg.Redis.LockTTL,
		Logger:    baseLogger.With("component", "publisher"),
	})
	drafts := usecase.NewDraftGenerator(usecase.DraftDeps{
		Lifecycle:     lifecycle,
		Configs:       store,
		Catalog:       store,
		Chat:          chatClient,
		DefaultPrompt: cfg.Generation.DefaultPrompt,
		DefaultTitle:  cfg.Generation.DefaultTitle,
		Logger:        baseLogger.With("component", "drafts"),
	})
	automation := usecase.NewAutomation(usecase.AutomationDeps{
		Settings:    store,
		Generations: store,
		Catalog:     store,
		Lifecycle:   lifecycle,
		Drafts:      drafts,
		Publisher:   publisher,
		StaleAfter:  cfg.Scheduler.StaleAfter,
		Logger:      baseLogger.With("component", "automation"),
	})
	announcements := usecase.NewAnnouncementPublisher(usecase.AnnouncementDeps{
		Announcements: store,
		Configs:       store,
		Prober:        wp,
		Media:         wp,
		Posts:         wp,
		Logger:        baseLogger.With("component", "announcements"),
	})
	categories := usecase.NewCategories(store, wordpress.NewCategoryCache(wp, cfg.WordPress.CategoryTTL))

	a.server = httpapi.NewServer(cfg.HTTP, httpapi.Services{
		Lifecycle:     lifecycle,
		Publisher:     publisher,
		Drafts:        drafts,
		Announcements: announcements,
		Automation:    automation,
		Categories:    categories,
		Health:        store.Ping,
	}, baseLogger.With("component", "http"))

	if cfg.Scheduler.Enabled {
		driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), baseLogger.With("component", "scheduler"))
		a.scheduler = usecase.NewScheduler(driver, automation)
	}

	return a, nil
}

func (a *Application) newLocker(ctx context.Context) (ports.Locker, error) {
	if a.cfg.Redis.Addr == "" {
		return lock.NewLocal(), nil
	}
	r, err := lock.NewRedis(ctx, lock.RedisOptions{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, r.Close)
	return r, nil
}

// Run serves HTTP and runs the automation tick until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.Close()

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(a.cfg.HTTP.Addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	timeout := a.cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			a.logger.Warn("scheduler shutdown", "error", err)
		}
	}
	return runErr
}

// Close releases the store and lock connections.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close resource", "error", err)
		}
	}
	a.closers = nil
}
