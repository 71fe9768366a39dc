package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"DigiiBuz/internal/domain"
)

const defaultPostStatus = "publish"

// Publish performs exactly one create (POST endpoint) or update
// (POST endpoint/{id}) call. Every failure is a *domain.PublishError.
func (c *Client) Publish(ctx context.Context, site string, auth domain.Credentials, target domain.Target, post domain.PostInput) (domain.PublishedPost, error) {
	if err := c.preflight(ctx); err != nil {
		return domain.PublishedPost{}, classifyTransport(err)
	}

	body, err := json.Marshal(buildPayload(target, post))
	if err != nil {
		return domain.PublishedPost{}, fmt.Errorf("marshal post payload: %w", err)
	}

	endpoint := target.Endpoint(site)
	if post.ExistingID > 0 {
		endpoint += "/" + strconv.FormatInt(post.ExistingID, 10)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.PublishTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, site, bytes.NewReader(body), auth)
	if err != nil {
		return domain.PublishedPost{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	c.debug("publishing post", "endpoint", endpoint, "category_field", target.CategoryField, "update", post.ExistingID > 0)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.PublishedPost{}, classifyTransport(err)
	}
	payload, err := readBody(resp, maxBodyBytes)
	if err != nil {
		return domain.PublishedPost{}, classifyTransport(err)
	}

	if pubErr := classifyResponse(resp.StatusCode, resp.Header.Get("Content-Type"), payload); pubErr != nil {
		c.warn("wordpress rejected post", "endpoint", endpoint, "kind", pubErr.Kind, "status", resp.StatusCode)
		return domain.PublishedPost{}, pubErr
	}

	var created struct {
		ID     int64  `json:"id"`
		Link   string `json:"link"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &created); err != nil || created.ID == 0 {
		return domain.PublishedPost{}, &domain.PublishError{
			Kind:   domain.FailureUnknown,
			Status: resp.StatusCode,
			Raw:    "unexpected WordPress response: " + snippet(payload),
			Err:    err,
		}
	}

	return domain.PublishedPost{ID: created.ID, Link: created.Link, Status: created.Status}, nil
}

func buildPayload(target domain.Target, post domain.PostInput) map[string]any {
	status := post.Status
	if status == "" {
		status = defaultPostStatus
	}

	payload := map[string]any{
		"title":   post.Title,
		"content": post.Content,
		"status":  status,
	}
	if post.Date != "" {
		payload["date"] = post.Date
	}
	if post.CategoryID > 0 {
		field := target.CategoryField
		if field == "" {
			field = domain.StandardTaxonomy
		}
		payload[field] = []int64{post.CategoryID}
	}
	if post.FeaturedMediaID > 0 {
		payload["featured_media"] = post.FeaturedMediaID
	}
	if post.Slug != "" {
		payload["slug"] = post.Slug
	}

	meta := map[string]string{}
	if post.SEOTitle != "" {
		meta["_yoast_wpseo_title"] = post.SEOTitle
	}
	if post.MetaDescription != "" {
		meta["_yoast_wpseo_metadesc"] = post.MetaDescription
	}
	if len(meta) > 0 {
		payload["meta"] = meta
	}

	return payload
}
