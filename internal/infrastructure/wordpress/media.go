package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"DigiiBuz/internal/domain"
)

// Upload copies a remote image into the site media library. Any failure is
// logged and reported as ok=false so the post goes out without a featured image.
func (c *Client) Upload(ctx context.Context, site string, auth domain.Credentials, imageURL, title string) (int64, bool) {
	if strings.TrimSpace(imageURL) == "" {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.MediaTimeout)
	defer cancel()

	data, contentType, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		c.warn("image download failed", "url", imageURL, "error", err)
		return 0, false
	}

	body, formType, err := buildMediaForm(data, contentType, fileName(imageURL, time.Now()), title)
	if err != nil {
		c.warn("media form failed", "error", err)
		return 0, false
	}

	req, err := c.newRequest(ctx, http.MethodPost, domain.RESTURL(site, "media"), site, body, auth)
	if err != nil {
		c.warn("media request failed", "error", err)
		return 0, false
	}
	req.Header.Set("Content-Type", formType)

	resp, err := c.http.Do(req)
	if err != nil {
		c.warn("media upload failed", "site", site, "error", err)
		return 0, false
	}
	payload, err := readBody(resp, maxBodyBytes)
	if err != nil {
		c.warn("media response unreadable", "site", site, "error", err)
		return 0, false
	}
	if pubErr := classifyResponse(resp.StatusCode, resp.Header.Get("Content-Type"), payload); pubErr != nil {
		c.warn("media upload rejected", "site", site, "kind", pubErr.Kind, "status", resp.StatusCode)
		return 0, false
	}

	var media struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(payload, &media); err != nil || media.ID == 0 {
		c.warn("media response without id", "site", site, "error", err)
		return 0, false
	}

	c.debug("media uploaded", "site", site, "media_id", media.ID)
	return media.ID, true
}

func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, imageURL, "", nil, domain.Credentials{})
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("download image: unexpected status %s", resp.Status)
	}

	data, err := readBody(resp, maxImageBytes)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

func buildMediaForm(data []byte, contentType, filename, title string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	if err := writer.WriteField("title", title); err != nil {
		return nil, "", fmt.Errorf("write title: %w", err)
	}
	if err := writer.WriteField("alt_text", title); err != nil {
		return nil, "", fmt.Errorf("write alt_text: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func fileName(imageURL string, now time.Time) string {
	if u, err := url.Parse(imageURL); err == nil {
		base := path.Base(u.Path)
		if base != "" && base != "/" && base != "." && strings.Contains(base, ".") {
			return base
		}
	}
	return fmt.Sprintf("image-%d.jpg", now.UnixMilli())
}
