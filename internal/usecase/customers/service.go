// Package customers implements the customer use cases.
package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
	"github.com/eci4ever/bizadmin/pkg/sanitize"
)

const idPrefix = "cust"

var _ in.CustomerService = (*Service)(nil)

// Service implements in.CustomerService.
type Service struct {
	repo out.CustomerRepository
	log  *log.Logger
	now  func() time.Time
}

// NewService creates a new customer service.
func NewService(repo out.CustomerRepository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, log: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, out.ErrNoRows) {
		return nil, domain.NotFound("Customer not found")
	}
	return c, err
}

func (s *Service) Create(ctx context.Context, input in.CreateCustomerInput) (*domain.Customer, error) {
	name, err := cleanName(input.Name)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" {
		return nil, domain.Validation("name and email are required")
	}
	if !domain.ValidEmail(email) {
		return nil, domain.Validation("invalid email format")
	}

	now := s.now()
	c := &domain.Customer{
		ID:        domain.NewOpaqueID(idPrefix, now),
		Name:      name,
		Email:     email,
		ImageURL:  input.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		if errors.Is(err, out.ErrUniqueViolation) {
			return nil, domain.Conflict("Email already exists")
		}
		return nil, err
	}
	s.log.Debug("customer created", "id", c.ID)
	return c, nil
}

// Update applies a partial update. Fields left nil keep their value.
func (s *Service) Update(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error) {
	if patch.Name != nil {
		name, err := cleanName(*patch.Name)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, domain.Validation("name cannot be empty")
		}
		patch.Name = &name
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if !domain.ValidEmail(email) {
			return nil, domain.Validation("invalid email format")
		}
		patch.Email = &email
	}

	c, err := s.repo.Update(ctx, id, patch, s.now())
	switch {
	case errors.Is(err, out.ErrNoRows):
		return nil, domain.NotFound("Customer not found")
	case errors.Is(err, out.ErrUniqueViolation):
		return nil, domain.Conflict("Email already exists")
	case err != nil:
		return nil, err
	}
	return c, nil
}

// Delete removes a customer. Customers that still own invoices are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	switch {
	case errors.Is(err, out.ErrNoRows):
		return domain.NotFound("Customer not found")
	case errors.Is(err, out.ErrForeignKeyViolation):
		return domain.Conflict("Customer has existing invoices")
	case err != nil:
		return err
	}
	s.log.Debug("customer deleted", "id", id)
	return nil
}

func cleanName(name string) (string, error) {
	name, err := sanitize.PlainText("name", name)
	if err != nil {
		return "", domain.Validation(err.Error())
	}
	return name, nil
}
