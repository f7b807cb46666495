// Package middleware provides the echo middleware of the HTTP adapter.
package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RequestID tags every request and response with X-Request-ID, reusing a
// client supplied value.
func RequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: generateRequestID,
	})
}

// RequestLogger logs one line per request through logger. Server errors
// log at error level, client errors at warn.
func RequestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if identity := IdentityFrom(c); identity != nil {
				kv = append(kv, "user", identity.User.ID)
			}
			if v.Error != nil {
				kv = append(kv, "err", v.Error)
			}

			switch {
			case v.Status >= http.StatusInternalServerError:
				logger.Error("HTTP request", kv...)
			case v.Status >= http.StatusBadRequest:
				logger.Warn("HTTP request", kv...)
			default:
				logger.Info("HTTP request", kv...)
			}
			return nil
		},
	})
}

// Recover turns panics into 500 responses and logs the stack.
func Recover(logger *log.Logger) echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered", "method", c.Request().Method, "path", c.Path(), "err", err, "stack", string(stack))
			return err
		},
	})
}

// fallbackCounter keeps ids unique when crypto/rand is unavailable.
var fallbackCounter atomic.Uint64

func generateRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x-%x", time.Now().UnixNano(), fallbackCounter.Add(1))
	}
	return hex.EncodeToString(b)
}
