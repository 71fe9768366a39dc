package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"DigiiBuz/internal/config"
	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/infrastructure/lock"
	"DigiiBuz/internal/infrastructure/storage"
	"DigiiBuz/internal/usecase"
)

type stubProber struct{}

func (stubProber) Probe(_ context.Context, _ string, _ domain.Credentials, fallback domain.ContentPath) domain.Target {
	return domain.StandardTarget(fallback)
}

type stubPosts struct {
	err error
}

func (s stubPosts) Publish(context.Context, string, domain.Credentials, domain.Target, domain.PostInput) (domain.PublishedPost, error) {
	if s.err != nil {
		return domain.PublishedPost{}, s.err
	}
	return domain.PublishedPost{ID: 7, Link: "https://example.com/?page_id=7"}, nil
}

type harness struct {
	store     *storage.Store
	lifecycle *usecase.Lifecycle
	config    domain.WordPressConfig
	handler   http.Handler
}

func newHarness(t *testing.T, serviceKey string, posts stubPosts) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := storage.Open(ctx, storage.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg, err := store.SaveWordPressConfig(ctx, domain.WordPressConfig{
		SiteURL:    "https://example.com",
		RestAPIKey: "rest-key",
	})
	if err != nil {
		t.Fatalf("save config: %v", err)
	}

	lifecycle := usecase.NewLifecycle(store, nil)
	publisher := usecase.NewPublisher(usecase.PublisherDeps{
		Lifecycle: lifecycle,
		Configs:   store,
		Prober:    stubProber{},
		Posts:     posts,
		Locker:    lock.NewLocal(),
	})
	drafts := usecase.NewDraftGenerator(usecase.DraftDeps{Lifecycle: lifecycle, Configs: store, Catalog: store})

	srv := NewServer(config.HTTPConfig{ServiceKey: serviceKey}, Services{
		Lifecycle: lifecycle,
		Publisher: publisher,
		Drafts:    drafts,
		Automation: usecase.NewAutomation(usecase.AutomationDeps{
			Settings:    store,
			Generations: store,
			Catalog:     store,
			Lifecycle:   lifecycle,
			Drafts:      drafts,
			Publisher:   publisher,
		}),
		Health: store.Ping,
	}, nil)

	return &harness{store: store, lifecycle: lifecycle, config: cfg, handler: srv.Handler()}
}

func (h *harness) draft(t *testing.T) domain.Generation {
	t.Helper()
	ctx := context.Background()

	g, err := h.lifecycle.Create(ctx, domain.NewGeneration{WordPressConfigID: h.config.ID, CategoryID: "4"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.lifecycle.MarkProcessing(ctx, g.ID); err != nil {
		t.Fatalf("processing: %v", err)
	}
	g, err = h.lifecycle.MarkDraft(ctx, g.ID, "<p>Bonjour</p>", "Bonjour")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	return g
}

func (h *harness) do(t *testing.T, method, path, body, key string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "secret", stubPosts{})

	rec, body := h.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", rec.Code, body)
	}
}

func TestServiceKeyRequired(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "secret", stubPosts{})

	rec, body := h.do(t, http.MethodPost, "/functions/tome-publish", `{"generationId":"x"}`, "")
	if rec.Code != http.StatusUnauthorized || body["success"] != false {
		t.Fatalf("missing key = %d %v", rec.Code, body)
	}
	rec, _ = h.do(t, http.MethodPost, "/functions/tome-publish", `{"generationId":"x"}`, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key = %d", rec.Code)
	}
	rec, _ = h.do(t, http.MethodPost, "/functions/tome-publish", `{"generationId":"x"}`, "secret")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("valid key on missing record = %d, want 404", rec.Code)
	}
}

func TestTomePublish(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "", stubPosts{})
	g := h.draft(t)

	rec, body := h.do(t, http.MethodPost, "/functions/tome-publish", `{"generationId":"`+g.ID+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if body["success"] != true || body["postId"] != float64(7) || body["path"] != "pages" {
		t.Fatalf("unexpected body: %v", body)
	}

	rec, body = h.do(t, http.MethodPost, "/functions/tome-publish", `{"generationId":"`+g.ID+`"}`, "")
	if rec.Code != http.StatusConflict || body["success"] != false {
		t.Fatalf("republish = %d %v", rec.Code, body)
	}
}

func TestTomePublishUpstreamFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "", stubPosts{err: &domain.PublishError{
		Kind:   domain.FailureBlocked,
		Status: 403,
		Raw:    "challenge for token=abcdef123456",
	}})
	g := h.draft(t)

	rec, body := h.do(t, http.MethodPost, "/functions/tome-publish", `{"generationId":"`+g.ID+`"}`, "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if body["kind"] != "blocked" || body["retryable"] != nil {
		t.Fatalf("unexpected classification: %v", body)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "publish manually") {
		t.Fatalf("error = %q", msg)
	}
	if tech, _ := body["technicalError"].(string); strings.Contains(tech, "abcdef123456") {
		t.Fatalf("technical error leaks token: %q", tech)
	}

	rec, body = h.do(t, http.MethodGet, "/generations/"+g.ID, "", "")
	if rec.Code != http.StatusOK || body["status"] != "failed" {
		t.Fatalf("record after failure = %d %v", rec.Code, body)
	}
}

func TestTomePublishValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "", stubPosts{})

	rec, body := h.do(t, http.MethodPost, "/functions/tome-publish", `{}`, "")
	if rec.Code != http.StatusBadRequest || body["success"] != false {
		t.Fatalf("empty body = %d %v", rec.Code, body)
	}
	rec, _ = h.do(t, http.MethodPost, "/functions/tome-publish", `{not json`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body = %d", rec.Code)
	}
}

func TestGenerationEndpoints(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "", stubPosts{})

	rec, body := h.do(t, http.MethodPost, "/generations", `{"wordpress_config_id":"`+h.config.ID+`","category_id":"4"}`, "")
	if rec.Code != http.StatusCreated || body["status"] != "pending" {
		t.Fatalf("create = %d %v", rec.Code, body)
	}
	id, _ := body["id"].(string)

	rec, _ = h.do(t, http.MethodPost, "/generations/"+id+"/approve", "", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("approve pending = %d, want 409", rec.Code)
	}
	rec, _ = h.do(t, http.MethodPost, "/generations/"+id+"/schedule", `{"at":"2030-01-01T10:00:00Z"}`, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("schedule empty = %d, want 422", rec.Code)
	}

	g := h.draft(t)
	rec, body = h.do(t, http.MethodPost, "/generations/"+g.ID+"/approve", "", "")
	if rec.Code != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("approve = %d %v", rec.Code, body)
	}
	rec, body = h.do(t, http.MethodPost, "/generations/"+g.ID+"/schedule", `{"at":"2030-01-01T10:00:00Z"}`, "")
	if rec.Code != http.StatusOK || body["status"] != "scheduled" {
		t.Fatalf("schedule = %d %v", rec.Code, body)
	}

	rec, _ = h.do(t, http.MethodGet, "/generations/unknown", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get unknown = %d", rec.Code)
	}
}

func TestSchedulerEndpoint(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "", stubPosts{})

	rec, body := h.do(t, http.MethodPost, "/functions/tome-scheduler", `{"api_key":"bogus"}`, "")
	if rec.Code != http.StatusUnauthorized || body["success"] != false {
		t.Fatalf("bogus key = %d %v", rec.Code, body)
	}

	rec, body = h.do(t, http.MethodPost, "/functions/tome-scheduler", `{"configCheck":true}`, "")
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("config check = %d %v", rec.Code, body)
	}
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrInFlight, http.StatusConflict},
		{domain.ErrNoContent, http.StatusUnprocessableEntity},
		{badRequest("x"), http.StatusBadRequest},
		{domain.ErrAutomationOff, http.StatusForbidden},
		{&domain.PublishError{Kind: domain.FailureTimeout}, http.StatusBadGateway},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
