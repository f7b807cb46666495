// Package invoices implements the HTTP adapter for /api/invoices.
package invoices

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/eci4ever/bizadmin/internal/adapters/dto"
	"github.com/eci4ever/bizadmin/internal/adapters/in/http/httputil"
	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/domain"
)

var (
	errAmount = domain.Validation("amount must be a positive number")
	errDate   = domain.Validation("invalid date format")
	errStatus = domain.Validation("status must be either 'pending' or 'paid'")
)

// Handler serves invoice CRUD.
type Handler struct {
	svc in.InvoiceService
	log *log.Logger
}

// NewHandler creates a new invoices handler.
func NewHandler(svc in.InvoiceService, logger *log.Logger) *Handler {
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
	invoices, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoices)
}

func (h *Handler) get(c echo.Context) error {
	invoice, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

func (h *Handler) create(c echo.Context) error {
	f, err := httputil.DecodeFields(c)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	if !f.Truthy("customer_id") || !f.Truthy("amount") || !f.Truthy("date") {
		return httputil.WriteError(c, domain.Validation("customer_id, amount, and date are required"))
	}

	var input in.CreateInvoiceInput
	input.CustomerID, _ = f.String("customer_id")
	amount, ok := f.Number("amount")
	if !ok {
		return httputil.WriteError(c, errAmount)
	}
	input.Amount = amount
	if input.Date, err = parseDate(f); err != nil {
		return httputil.WriteError(c, err)
	}
	if f.Has("status") && !f.IsNull("status") {
		status, ok := f.String("status")
		if !ok {
			return httputil.WriteError(c, errStatus)
		}
		input.Status = domain.InvoiceStatus(status)
	}

	invoice, err := h.svc.Create(c.Request().Context(), input)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, invoice)
}

func (h *Handler) update(c echo.Context) error {
	f, err := httputil.DecodeFields(c)
	if err != nil {
		return httputil.WriteError(c, err)
	}

	var patch domain.InvoicePatch
	if f.Has("customer_id") {
		s, _ := f.String("customer_id")
		patch.CustomerID = &s
	}
	if f.Has("amount") {
		amount, ok := f.Number("amount")
		if !ok {
			return httputil.WriteError(c, errAmount)
		}
		patch.Amount = &amount
	}
	if f.Has("date") {
		date, err := parseDate(f)
		if err != nil {
			return httputil.WriteError(c, err)
		}
		patch.Date = &date
	}
	if f.Has("status") {
		s, ok := f.String("status")
		if !ok {
			return httputil.WriteError(c, errStatus)
		}
		status := domain.InvoiceStatus(s)
		patch.Status = &status
	}

	invoice, err := h.svc.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return httputil.WriteError(c, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

func (h *Handler) delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httputil.WriteError(c, err)
	}
	h.log.Info("invoice deleted", "id", id)
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Invoice deleted successfully"})
}

func parseDate(f httputil.Fields) (time.Time, error) {
	s, ok := f.String("date")
	if !ok {
		return time.Time{}, errDate
	}
	return domain.ParseInvoiceDate(s)
}
