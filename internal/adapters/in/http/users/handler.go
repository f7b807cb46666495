// Package users implements the HTTP adapter for the legacy /api/users
// table.
package users

import (
	"math"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/eci4ever/bizadmin/internal/adapters/dto"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/httputil"
	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/domain"
)

var errAge = domain.Validation("age must be a positive number")

// Handler serves users_table CRUD.
type Handler struct {
	svc in.LegacyUserService
	log *log.Logger
}

// NewHandler creates a new legacy users handler.
func NewHandler(svc in.LegacyUserService, logger *log.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

// Register mounts the routes on g.
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	users, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	user, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) create(c echo.Context) error {
	f, err := httputil.DecodeFields(c)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	if !f.Truthy("name") || !f.Truthy("age") || !f.Truthy("email") {
		return httputil.WriteError(c, domain.Validation("name, age, and email are required"))
	}

	var input in.CreateLegacyUserInput
	input.Name, _ = f.String("name")
	input.Email, _ = f.String("email")
	if input.Age, err = age(f); err != nil {
		return httputil.WriteError(c, err)
	}

	user, err := h.svc.Create(c.Request().Context(), input)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	f, err := httputil.DecodeFields(c)
	if err != nil {
		return httputil.WriteError(c, err)
	}

	var patch domain.LegacyUserPatch
	if f.Has("name") {
		s, _ := f.String("name")
		patch.Name = &s
	}
	if f.Has("age") {
		a, err := age(f)
		if err != nil {
			return httputil.WriteError(c, err)
		}
		patch.Age = &a
	}
	if f.Has("email") {
		s, _ := f.String("email")
		patch.Email = &s
	}

	user, err := h.svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httputil.WriteError(c, err)
	}
	h.log.Info("legacy user deleted", "id", id)
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "User deleted successfully"})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, domain.Validation("Invalid user ID")
	}
	return id, nil
}

// age accepts whole non-negative JSON numbers.
func age(f httputil.Fields) (int64, error) {
	n, ok := f.Number("age")
	if !ok || n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, errAge
	}
	return int64(n), nil
}
