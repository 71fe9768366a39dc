package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"DigiiBuz/internal/domain"
)

var blockMarkers = []string{
	"<!doctype html",
	"<html",
	"tiger protect",
	"security-challenge",
}

// classifyTransport maps a failed round trip to a typed publish error.
func classifyTransport(err error) *domain.PublishError {
	switch {
	case errors.Is(err, errTooManyRedirects):
		return &domain.PublishError{Kind: domain.FailureBlocked, Raw: errTooManyRedirects.Error(), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.PublishError{Kind: domain.FailureTimeout, Raw: "request timed out", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &domain.PublishError{Kind: domain.FailureTimeout, Raw: netErr.Error(), Err: err}
	}
	return &domain.PublishError{Kind: domain.FailureUnknown, Raw: err.Error(), Err: err}
}

// classifyResponse returns nil when the response is a JSON success.
func classifyResponse(status int, contentType string, body []byte) *domain.PublishError {
	if looksLikeHTML(contentType, body) {
		return &domain.PublishError{Kind: domain.FailureBlocked, Status: status, Raw: htmlSummary(body)}
	}

	if status >= 200 && status < 300 {
		return nil
	}

	raw := apiMessage(body)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &domain.PublishError{Kind: domain.FailureUnauthorized, Status: status, Raw: raw}
	case http.StatusNotFound:
		return &domain.PublishError{Kind: domain.FailureNotFound, Status: status, Raw: raw}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &domain.PublishError{Kind: domain.FailureUnavailable, Status: status, Raw: raw}
	default:
		return &domain.PublishError{Kind: domain.FailureUnknown, Status: status, Raw: fmt.Sprintf("%d - %s", status, raw)}
	}
}

func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 4096 {
		head = head[:4096]
	}
	for _, marker := range blockMarkers {
		if bytes.Contains(head, []byte(marker)) {
			return true
		}
	}
	return false
}

func htmlSummary(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err == nil {
		if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
			return "HTML response: " + title
		}
	}
	return "HTML response instead of JSON: " + snippet(body)
}

// apiMessage extracts the WordPress {code, message} error or a raw snippet.
func apiMessage(body []byte) string {
	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wpErr); err == nil && wpErr.Message != "" {
		if wpErr.Code != "" {
			return wpErr.Code + ": " + wpErr.Message
		}
		return wpErr.Message
	}
	return snippet(body)
}

func snippet(body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")
	return domain.Truncate(text, 200)
}
