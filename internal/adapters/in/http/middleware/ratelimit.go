package middleware

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eci4ever/bizadmin/internal/adapters/dto"
	"github.com/eci4ever/bizadmin/internal/boundaries/out"
)

// RateLimit limits requests per client IP using store.
func RateLimit(store out.RateLimiter, logger *log.Logger) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logger.Error("rate limiter failed", "err", err)
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.Warn("rate limit exceeded", "ip", identifier, "path", c.Path())
			return c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: "Too many requests"})
		},
	})
}
