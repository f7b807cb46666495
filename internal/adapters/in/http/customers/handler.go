// Package customers implements the HTTP adapter for /api/customers.
package customers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/eci4ever/bizadmin/internal/adapters/dto"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/httputil"
	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/domain"
)

// Handler serves customer CRUD.
type Handler struct {
	svc in.CustomerService
	log *log.Logger
}

// NewHandler creates a new customers handler.
func NewHandler(svc in.CustomerService, logger *log.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

// Register mounts the routes on g. Authentication is applied by the caller.
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	customers, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customers)
}

func (h *Handler) get(c echo.Context) error {
	customer, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *Handler) create(c echo.Context) error {
	f, err := httputil.DecodeFields(c)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	if !f.Truthy("name") || !f.Truthy("email") {
		return httputil.WriteError(c, domain.Validation("name and email are required"))
	}

	input := in.CreateCustomerInput{}
	input.Name, _ = f.String("name")
	input.Email, _ = f.String("email")
	if s, ok := f.String("image_url"); ok {
		input.ImageURL = &s
	}

	customer, err := h.svc.Create(c.Request().Context(), input)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, customer)
}

func (h *Handler) update(c echo.Context) error {
	f, err := httputil.DecodeFields(c)
	if err != nil {
		return httputil.WriteError(c, err)
	}

	var patch domain.CustomerPatch
	if f.Has("name") {
		s, _ := f.String("name")
		patch.Name = &s
	}
	if f.Has("email") {
		s, _ := f.String("email")
		patch.Email = &s
	}
	if f.Has("image_url") {
		patch.SetImageURL = true
		if s, ok := f.String("image_url"); ok {
			patch.ImageURL = &s
		}
	}

	customer, err := h.svc.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *Handler) delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httputil.WriteError(c, err)
	}
	h.log.Info("customer deleted", "id", id)
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Customer deleted successfully"})
}
