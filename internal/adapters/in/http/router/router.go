// Package router assembles the echo instance that serves the JSON API.
package router

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eci4ever/bizadmin/internal/adapters/dto"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/analytics"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/auth"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/customers"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/httputil"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/invoices"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/middleware"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/users"
	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/boundaries/out"
)

// AppName is reported by GET /api/.
const AppName = "Cloudflare"

// Deps are the services the router dispatches to.
type Deps struct {
	Authority   in.Authority
	Customers   in.CustomerService
	Invoices    in.InvoiceService
	LegacyUsers in.LegacyUserService
	Analytics   in.AnalyticsService
	Health      in.HealthService

	Sessions sessions.Store
	// Limiter applies to every /api/auth route, StrictLimiter additionally
	// to the credential endpoints. Nil disables the limit.
	Limiter       out.RateLimiter
	StrictLimiter out.RateLimiter
	// Registry receives the HTTP metrics and is served on /metrics.
	Registry *prometheus.Registry

	Log *log.Logger
}

// Options tune the router.
type Options struct {
	HTTPS             bool
	TrustedProxies    []string
	MetricsAllow      []string
	LegacyUsersPublic bool
	BodyLimit         string
}

// New builds the echo instance.
func New(deps Deps, opts Options) *echo.Echo {
	logger := deps.Log
	if opts.BodyLimit == "" {
		opts.BodyLimit = "1M"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httputil.HTTPErrorHandler(logger)
	e.IPExtractor = middleware.IPExtractor(middleware.ParseTrustedProxies(opts.TrustedProxies))

	e.Use(middleware.Recover(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.Secure(opts.HTTPS))
	e.Use(echomw.BodyLimit(opts.BodyLimit))
	if deps.Registry != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "bizadmin",
			Subsystem:  "http",
			Registerer: deps.Registry,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: deps.Registry,
		}), middleware.CIDRAllowlist(middleware.ParseTrustedProxies(opts.MetricsAllow), logger))
	}
	e.Use(middleware.Sessions(deps.Sessions))

	requireAuth := middleware.RequireAuth(deps.Authority, logger)
	optionalAuth := middleware.OptionalAuth(deps.Authority, logger)

	api := e.Group("/api")
	api.GET("", root, optionalAuth)
	api.GET("/", root, optionalAuth)
	api.GET("/health", health(deps.Health))

	var authMW []echo.MiddlewareFunc
	if deps.Limiter != nil {
		authMW = append(authMW, middleware.RateLimit(deps.Limiter, logger))
	}
	guards := auth.Guards{Auth: requireAuth, Optional: optionalAuth}
	if deps.StrictLimiter != nil {
		guards.Strict = middleware.RateLimit(deps.StrictLimiter, logger)
	}
	auth.NewHandler(deps.Authority, logger.WithPrefix("auth")).Register(api.Group("/auth", authMW...), guards)

	customers.NewHandler(deps.Customers, logger.WithPrefix("customers")).Register(api.Group("/customers", requireAuth))
	invoices.NewHandler(deps.Invoices, logger.WithPrefix("invoices")).Register(api.Group("/invoices", requireAuth))
	analytics.NewHandler(deps.Analytics).Register(api.Group("/analytics", requireAuth))

	usersGroup := api.Group("/users")
	if !opts.LegacyUsersPublic {
		usersGroup.Use(requireAuth)
	}
	users.NewHandler(deps.LegacyUsers, logger.WithPrefix("users")).Register(usersGroup)

	return e
}

func root(c echo.Context) error {
	resp := dto.RootResponse{Name: AppName}
	if identity := middleware.IdentityFrom(c); identity != nil {
		resp.User = &dto.RootUser{
			ID:    identity.User.ID,
			Name:  identity.User.Name,
			Email: identity.User.Email,
			Role:  identity.User.Role.String(),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func health(svc in.HealthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		report := svc.Check(c.Request().Context())
		if !report.Healthy {
			return c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "error", Components: report.Components})
		}
		return c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Components: report.Components})
	}
}
