package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/ports"
)

// ListCategories returns the first hundred category terms of a site.
func (c *Client) ListCategories(ctx context.Context, site string, auth domain.Credentials) ([]domain.WordPressCategory, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.PublishTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, domain.RESTURL(site, "categories?per_page=100"), site, nil, auth)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	payload, err := readBody(resp, maxBodyBytes)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if pubErr := classifyResponse(resp.StatusCode, resp.Header.Get("Content-Type"), payload); pubErr != nil {
		return nil, pubErr
	}

	var categories []domain.WordPressCategory
	if err := json.Unmarshal(payload, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

// CategoryCache keeps category listings per config for a bounded window.
type CategoryCache struct {
	mu      sync.RWMutex
	lister  ports.CategoryLister
	ttl     time.Duration
	entries map[string]categoryEntry
	now     func() time.Time
}

type categoryEntry struct {
	categories []domain.WordPressCategory
	fetched    time.Time
}

var _ ports.CategorySource = (*CategoryCache)(nil)

// NewCategoryCache wraps a lister with a time-windowed cache.
func NewCategoryCache(lister ports.CategoryLister, ttl time.Duration) *CategoryCache {
	return &CategoryCache{
		lister:  lister,
		ttl:     ttl,
		entries: map[string]categoryEntry{},
		now:     time.Now,
	}
}

// Get returns the cached listing for key or refetches it once expired.
func (c *CategoryCache) Get(ctx context.Context, key, site string, auth domain.Credentials) ([]domain.WordPressCategory, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetched) < c.ttl {
		return entry.categories, nil
	}

	categories, err := c.lister.ListCategories(ctx, site, auth)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = categoryEntry{categories: categories, fetched: c.now()}
	c.mu.Unlock()
	return categories, nil
}

// Invalidate drops the cached listing for key.
func (c *CategoryCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
