package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/usecase"
)

type generationRequest struct {
	GenerationID string `json:"generationId"`
}

type announcementRequest struct {
	AnnouncementID string `json:"announcementId"`
	CategoryID     string `json:"categoryId"`
}

type schedulerRequest struct {
	ConfigCheck     bool   `json:"configCheck"`
	ForceGeneration bool   `json:"forceGeneration"`
	APIKey          string `json:"api_key"`
	Debug           bool   `json:"debug"`
}

type createGenerationRequest struct {
	WordPressConfigID string `json:"wordpress_config_id"`
	CategoryID        string `json:"category_id"`
	KeywordID         string `json:"keyword_id"`
	LocalityID        string `json:"locality_id"`
}

type scheduleRequest struct {
	At time.Time `json:"at"`
}

type generationView struct {
	ID                string     `json:"id"`
	WordPressConfigID string     `json:"wordpress_config_id"`
	CategoryID        string     `json:"category_id"`
	KeywordID         string     `json:"keyword_id,omitempty"`
	LocalityID        string     `json:"locality_id,omitempty"`
	Status            string     `json:"status"`
	Title             string     `json:"title,omitempty"`
	Content           string     `json:"content,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	WordPressPostID   *int64     `json:"wordpress_post_id,omitempty"`
	PublishedAt       *time.Time `json:"published_at,omitempty"`
	ScheduledAt       *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func viewOf(g domain.Generation) generationView {
	return generationView{
		ID:                g.ID,
		WordPressConfigID: g.WordPressConfigID,
		CategoryID:        g.CategoryID,
		KeywordID:         g.KeywordID,
		LocalityID:        g.LocalityID,
		Status:            string(g.Status),
		Title:             g.Title,
		Content:           g.Content,
		ErrorMessage:      g.ErrorMessage,
		WordPressPostID:   g.WordPressPostID,
		PublishedAt:       g.PublishedAt,
		ScheduledAt:       g.ScheduledAt,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	if s.svc.Health != nil {
		if err := s.svc.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) bindGenerationID(c echo.Context) (string, error) {
	var req generationRequest
	if err := c.Bind(&req); err != nil {
		return "", badRequest("decode request body")
	}
	id := strings.TrimSpace(req.GenerationID)
	if id == "" {
		return "", badRequest("generationId is required")
	}
	return id, nil
}

func publishResponse(res usecase.PublishResult) map[string]any {
	return map[string]any{
		"success":    true,
		"message":    "Content published successfully",
		"postId":     res.Post.ID,
		"link":       res.Post.Link,
		"path":       res.Target.Path,
		"generation": viewOf(res.Generation),
	}
}

func (s *Server) handleTomePublish(c echo.Context) error {
	id, err := s.bindGenerationID(c)
	if err != nil {
		return s.fail(c, err)
	}
	res, err := s.svc.Publisher.PublishGeneration(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, publishResponse(res))
}

func (s *Server) handleGenerateDraft(c echo.Context) error {
	id, err := s.bindGenerationID(c)
	if err != nil {
		return s.fail(c, err)
	}
	g, err := s.svc.Drafts.GenerateDraft(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"message":    "Draft generated successfully",
		"generation": viewOf(g),
	})
}

func (s *Server) handleGenerate(c echo.Context) error {
	id, err := s.bindGenerationID(c)
	if err != nil {
		return s.fail(c, err)
	}
	res, err := usecase.GenerateAndPublish(c.Request().Context(), s.svc.Drafts, s.svc.Publisher, id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, publishResponse(res))
}

func (s *Server) handleScheduler(c echo.Context) error {
	var req schedulerRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, badRequest("decode request body"))
	}
	report, err := s.svc.Automation.Run(c.Request().Context(), usecase.RunOptions{
		ConfigCheck: req.ConfigCheck,
		Force:       req.ForceGeneration,
		APIKey:      strings.TrimSpace(req.APIKey),
	})
	if err != nil {
		return s.fail(c, err)
	}

	body := map[string]any{
		"success":            true,
		"generationsCreated": report.GenerationsCreated,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	}
	if req.ConfigCheck {
		body["message"] = "Configuration check completed successfully"
		body["automationSettings"] = report.Settings
	} else {
		body["message"] = fmt.Sprintf("Scheduler run completed. Created %d generations.", report.GenerationsCreated)
		if req.Debug {
			body["processingDetails"] = report.Details
		}
	}
	return c.JSON(http.StatusOK, body)
}

func (s *Server) handleWordPressPublish(c echo.Context) error {
	var req announcementRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, badRequest("decode request body"))
	}
	if strings.TrimSpace(req.AnnouncementID) == "" {
		return s.fail(c, badRequest("announcementId is required"))
	}
	res, err := s.svc.Announcements.Publish(c.Request().Context(), req.AnnouncementID, strings.TrimSpace(req.CategoryID))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":         true,
		"wordpressPostId": res.PostID,
		"link":            res.Link,
		"status":          res.Status,
		"isCustomType":    res.Custom,
		"featuredMedia":   res.MediaID,
	})
}

func (s *Server) handleCreateGeneration(c echo.Context) error {
	var req createGenerationRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, badRequest("decode request body"))
	}
	if strings.TrimSpace(req.WordPressConfigID) == "" {
		return s.fail(c, badRequest("wordpress_config_id is required"))
	}
	g, err := s.svc.Lifecycle.Create(c.Request().Context(), domain.NewGeneration{
		WordPressConfigID: req.WordPressConfigID,
		CategoryID:        req.CategoryID,
		KeywordID:         req.KeywordID,
		LocalityID:        req.LocalityID,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, viewOf(g))
}

func (s *Server) handleGetGeneration(c echo.Context) error {
	g, err := s.svc.Lifecycle.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(g))
}

func (s *Server) handleRetry(c echo.Context) error {
	g, err := s.svc.Lifecycle.Retry(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(g))
}

func (s *Server) handleApprove(c echo.Context) error {
	g, err := s.svc.Lifecycle.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(g))
}

func (s *Server) handleSchedule(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, badRequest("decode request body"))
	}
	g, err := s.svc.Lifecycle.Schedule(c.Request().Context(), c.Param("id"), req.At)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, viewOf(g))
}

func (s *Server) handleCategories(c echo.Context) error {
	categories, err := s.svc.Categories.List(c.Request().Context(), c.Param("configId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}
