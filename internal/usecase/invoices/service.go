// Package invoices implements the invoice use cases.
package invoices

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

const idPrefix = "inv"

var _ in.InvoiceService = (*Service)(nil)

// Service implements in.InvoiceService. Customer existence is enforced by
// the invoices foreign key, never by a separate lookup.
type Service struct {
	repo out.InvoiceRepository
	log  *log.Logger
	now  func() time.Time
}

// NewService creates a new invoice service.
func NewService(repo out.InvoiceRepository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, log: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]domain.Invoice, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if errors.Is(err, out.ErrNoRows) {
		return nil, domain.NotFound("Invoice not found")
	}
	return inv, err
}

func (s *Service) Create(ctx context.Context, input in.CreateInvoiceInput) (*domain.Invoice, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" || input.Amount == 0 || input.Date.IsZero() {
		return nil, domain.Validation("customer_id, amount, and date are required")
	}
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	status := domain.InvoicePending
	if input.Status != "" {
		st, err := domain.ParseInvoiceStatus(string(input.Status))
		if err != nil {
			return nil, err
		}
		status = st
	}

	now := s.now()
	inv := &domain.Invoice{
		ID:         domain.NewOpaqueID(idPrefix, now),
		CustomerID: customerID,
		Amount:     input.Amount,
		Date:       input.Date,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, inv); err != nil {
		if errors.Is(err, out.ErrForeignKeyViolation) {
			return nil, domain.NotFound("Customer not found")
		}
		return nil, err
	}
	s.log.Debug("invoice created", "id", inv.ID, "customer", inv.CustomerID)
	return inv, nil
}

// Update applies a partial update. A changed customer_id is checked by the
// same foreign key as on create.
func (s *Service) Update(ctx context.Context, id string, patch domain.InvoicePatch) (*domain.Invoice, error) {
	if patch.CustomerID != nil {
		cid := strings.TrimSpace(*patch.CustomerID)
		if cid == "" {
			return nil, domain.Validation("customer_id cannot be empty")
		}
		patch.CustomerID = &cid
	}
	if patch.Amount != nil {
		if err := validateAmount(*patch.Amount); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil {
		if _, err := domain.ParseInvoiceStatus(string(*patch.Status)); err != nil {
			return nil, err
		}
	}

	inv, err := s.repo.Update(ctx, id, patch, s.now())
	switch {
	case errors.Is(err, out.ErrNoRows):
		return nil, domain.NotFound("Invoice not found")
	case errors.Is(err, out.ErrForeignKeyViolation):
		return nil, domain.NotFound("Customer not found")
	case err != nil:
		return nil, err
	}
	return inv, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, out.ErrNoRows) {
		return domain.NotFound("Invoice not found")
	}
	return err
}

func validateAmount(amount float64) error {
	if !(amount > 0) {
		return domain.Validation("amount must be a positive number")
	}
	return nil
}
