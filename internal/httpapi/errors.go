package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"DigiiBuz/internal/domain"
	"DigiiBuz/internal/logging"
)

// envelope is the response shape shared by every function endpoint.
type envelope struct {
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	TechnicalError string `json:"technicalError,omitempty"`
	Kind           string `json:"kind,omitempty"`
	Retryable      bool   `json:"retryable,omitempty"`
}

func statusFor(err error) int {
	var pubErr *domain.PublishError
	switch {
	case errors.As(err, &pubErr):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAutomationOff):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func failure(err error) envelope {
	env := envelope{
		Error:          domain.FriendlyMessage(err),
		TechnicalError: logging.Redact(err.Error()),
	}
	var pubErr *domain.PublishError
	if errors.As(err, &pubErr) {
		env.Kind = string(pubErr.Kind)
		env.Retryable = pubErr.Retryable()
	}
	return env
}

func (s *Server) fail(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", logging.Redact(err.Error()))
	} else {
		s.logger.Warn("request rejected", "path", c.Path(), "status", status, "error", logging.Redact(err.Error()))
	}
	return c.JSON(status, failure(err))
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		env := envelope{Error: msg}
		if he.Internal != nil {
			env.TechnicalError = logging.Redact(he.Internal.Error())
		}
		_ = c.JSON(he.Code, env)
		return
	}
	_ = s.fail(c, err)
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, domain.ErrInvalidInput)...)
}
