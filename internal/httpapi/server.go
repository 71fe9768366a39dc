// Package httpapi exposes the publish orchestration over JSON HTTP endpoints
// named after the functions the web application calls.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"DigiiBuz/internal/config"
	"DigiiBuz/internal/logging"
	"DigiiBuz/internal/usecase"
)

// Services groups the use cases served over HTTP.
type Services struct {
	Lifecycle     *usecase.Lifecycle
	Publisher     *usecase.Publisher
	Drafts        *usecase.DraftGenerator
	Announcements *usecase.AnnouncementPublisher
	Automation    *usecase.Automation
	Categories    *usecase.Categories
	// Health reports backing store reachability; nil means always healthy.
	Health func(ctx context.Context) error
}

// Server wraps the echo instance.
type Server struct {
	echo   *echo.Echo
	svc    Services
	logger *slog.Logger
}

// NewServer builds the router and middleware chain.
func NewServer(cfg config.HTTPConfig, svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, svc: svc, logger: logger}
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "x-client-info", "apikey"},
	}))

	e.GET("/health", s.handleHealth)

	api := e.Group("")
	if cfg.ServiceKey != "" {
		api.Use(serviceKeyAuth(cfg.ServiceKey))
	}

	fn := api.Group("/functions")
	fn.POST("/tome-publish", s.handleTomePublish)
	fn.POST("/tome-generate-draft", s.handleGenerateDraft)
	fn.POST("/tome-generate", s.handleGenerate)
	fn.POST("/tome-scheduler", s.handleScheduler)
	fn.POST("/wordpress-publish", s.handleWordPressPublish)

	gen := api.Group("/generations")
	gen.POST("", s.handleCreateGeneration)
	gen.GET("/:id", s.handleGetGeneration)
	gen.POST("/:id/retry", s.handleRetry)
	gen.POST("/:id/approve", s.handleApprove)
	gen.POST("/:id/schedule", s.handleSchedule)

	api.GET("/wordpress/:configId/categories", s.handleCategories)

	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func serviceKeyAuth(key string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(got string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1, nil
		},
		ErrorHandler: func(_ error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, envelope{Error: "Unauthorized"})
		},
	})
}
