// Package analytics implements the HTTP adapter for /api/analytics.
package analytics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eci4ever/bizadmin/internal/adapters/in/http/httputil"
	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/domain"
)

// Handler serves dashboard figures.
type Handler struct {
	svc in.AnalyticsService
	now func() time.Time
}

// NewHandler creates a new analytics handler.
func NewHandler(svc in.AnalyticsService) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// Register mounts the routes on g.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/revenue", h.revenue)
}

// revenue handles GET /revenue?year=YYYY. The year defaults to the
// current one.
func (h *Handler) revenue(c echo.Context) error {
	year := h.now().UTC().Year()
	if raw := c.QueryParam("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return httputil.WriteError(c, domain.Validation("invalid year"))
		}
		year = y
	}

	report, err := h.svc.Revenue(c.Request().Context(), year)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
