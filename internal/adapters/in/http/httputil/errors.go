// Package httputil holds the JSON and error helpers shared by the HTTP
// handlers.
package httputil

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/eci4ever/bizadmin/internal/adapters/dto"
	"github.com/eci4ever/bizadmin/internal/domain"
)

// StatusFor maps a domain error kind onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrBanned):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as {"error": message} with the mapped status.
// Unclassified errors keep their raw message.
func WriteError(c echo.Context, err error) error {
	return c.JSON(StatusFor(err), dto.ErrorResponse{Error: domain.Message(err)})
}

// JSONError renders {"error": msg} with status.
func JSONError(c echo.Context, status int, msg string) error {
	return c.JSON(status, dto.ErrorResponse{Error: msg})
}

// HTTPErrorHandler renders every error that reaches echo as JSON.
func HTTPErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := err.Error()

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
			if status == http.StatusNotFound && msg == http.StatusText(status) {
				msg = "Not found"
			}
		} else {
			status = StatusFor(err)
			msg = domain.Message(err)
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, dto.ErrorResponse{Error: msg})
		}
		if err != nil {
			logger.Error("failed to write error response", "err", err)
		}
	}
}
