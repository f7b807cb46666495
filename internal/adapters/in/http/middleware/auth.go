package middleware

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/eci4ever/bizadmin/internal/adapters/dto"
	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/domain"
)

type identityCtxKey struct{}

const identityKey = "identity"

// RequireAuth rejects requests without an active session with 401 and
// never calls next for them. Resolved identities are attached to the echo
// context and the request context.
func RequireAuth(resolver in.SessionResolver, logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFrom(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
			}

			identity, err := resolver.GetSession(c.Request().Context(), token)
			if err != nil {
				logger.Error("session lookup failed", "path", c.Path(), "err", err)
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Authentication failed"})
			}
			if identity == nil {
				logger.Debug("rejected request without active session", "path", c.Path(), "ip", c.RealIP())
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
			}

			SetIdentity(c, identity)
			return next(c)
		}
	}
}

// OptionalAuth attaches the identity when a session resolves and always
// calls next.
func OptionalAuth(resolver in.SessionResolver, logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := TokenFrom(c); token != "" {
				identity, err := resolver.GetSession(c.Request().Context(), token)
				if err != nil {
					logger.Warn("optional session lookup failed", "path", c.Path(), "err", err)
				} else if identity != nil {
					SetIdentity(c, identity)
				}
			}
			return next(c)
		}
	}
}

// RequireAdmin must run after RequireAuth. Callers without the admin role
// get 403. A role outside the known set is logged as corrupt data.
func RequireAdmin(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if identity == nil {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
			}
			switch identity.User.Role {
			case domain.RoleAdmin:
				return next(c)
			case domain.RoleUser:
				return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
			default:
				logger.Warn("unknown role on session user", "user", identity.User.ID, "role", identity.User.Role)
				return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Forbidden"})
			}
		}
	}
}

// SetIdentity attaches identity to c and to its request context.
func SetIdentity(c echo.Context, identity *domain.Identity) {
	c.Set(identityKey, identity)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), identityCtxKey{}, identity)))
}

// IdentityFrom returns the identity attached by the auth gate, or nil.
func IdentityFrom(c echo.Context) *domain.Identity {
	identity, _ := c.Get(identityKey).(*domain.Identity)
	return identity
}

// IdentityFromContext returns the identity carried by ctx, or nil.
func IdentityFromContext(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(identityCtxKey{}).(*domain.Identity)
	return identity
}
