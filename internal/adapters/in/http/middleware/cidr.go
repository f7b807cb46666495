package middleware

import (
	"net"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/eci4ever/bizadmin/internal/adapters/dto"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/httputil"
)

// CIDRAllowlist restricts a route group to the given networks. Loopback
// is always allowed. An empty list lets all traffic through.
func CIDRAllowlist(allowed []*net.IPNet, logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if len(allowed) == 0 {
			return next
		}
		return func(c echo.Context) error {
			ip := c.RealIP()
			if httputil.IsLoopback(ip) || containsIP(ip, allowed) {
				return next(c)
			}
			logger.Warn("access denied by CIDR allowlist", "path", c.Path(), "ip", ip)
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
		}
	}
}
