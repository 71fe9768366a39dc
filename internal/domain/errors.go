package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("record changed concurrently")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoContent         = errors.New("generation has no content")
	ErrInFlight          = errors.New("publish already in progress")
	ErrInvalidAPIKey     = errors.New("invalid api key")
	ErrAutomationOff     = errors.New("automation is disabled for this api key")
	ErrInvalidInput      = errors.New("invalid input")
)

// FailureKind classifies why a WordPress write failed.
type FailureKind string

const (
	FailureBlocked      FailureKind = "blocked"
	FailureTimeout      FailureKind = "timeout"
	FailureUnavailable  FailureKind = "unavailable"
	FailureUnauthorized FailureKind = "unauthorized"
	FailureNotFound     FailureKind = "not_found"
	FailureUnknown      FailureKind = "unknown"
)

// PublishError is returned by the post publisher for every non-success outcome.
type PublishError struct {
	Kind   FailureKind
	Status int
	Raw    string
	Err    error
}

func (e *PublishError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("wordpress %s (status %d): %s", e.Kind, e.Status, e.Raw)
	}
	return fmt.Sprintf("wordpress %s: %s", e.Kind, e.Raw)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed later without
// operator action.
func (e *PublishError) Retryable() bool {
	switch e.Kind {
	case FailureTimeout, FailureUnavailable, FailureUnknown:
		return true
	default:
		return false
	}
}

// Message is the user-facing explanation stored on the record.
func (e *PublishError) Message() string {
	switch e.Kind {
	case FailureBlocked:
		return "The WordPress firewall (WAF) is blocking our request. Please publish manually from the WordPress admin interface."
	case FailureTimeout:
		return "Connection timeout when connecting to WordPress. Please check the URL and credentials."
	case FailureUnavailable:
		return "The WordPress server is temporarily unavailable (503 error). Please try again later."
	case FailureUnauthorized:
		return "WordPress rejected the credentials. Please check the application password or API key."
	case FailureNotFound:
		return "The WordPress REST endpoint was not found. Please check the site URL."
	default:
		if e.Raw != "" {
			return "WordPress API error: " + e.Raw
		}
		return "An error occurred during publishing"
	}
}

// FriendlyMessage maps any error to the text persisted on a failed record.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	var pubErr *PublishError
	if errors.As(err, &pubErr) {
		return Truncate(pubErr.Message(), MaxErrorMessageLength)
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "An error occurred"
	}
	return Truncate(msg, MaxErrorMessageLength)
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
