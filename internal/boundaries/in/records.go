package in

import (
	"context"
	"time"

	"github.com/eci4ever/bizadmin/internal/domain"
)

// CreateCustomerInput is a validated-shape customer payload.
type CreateCustomerInput struct {
	Name     string
	Email    string
	ImageURL *string
}

// CustomerService defines the customer CRUD contract.
type CustomerService interface {
	List(ctx context.Context) ([]domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	Create(ctx context.Context, in CreateCustomerInput) (*domain.Customer, error)
	Update(ctx context.Context, id string, patch domain.CustomerPatch) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
}

// CreateInvoiceInput is a validated-shape invoice payload. An empty Status
// means pending.
type CreateInvoiceInput struct {
	CustomerID string
	Amount     float64
	Date       time.Time
	Status     domain.InvoiceStatus
}

// InvoiceService defines the invoice CRUD contract.
type InvoiceService interface {
	List(ctx context.Context) ([]domain.Invoice, error)
	Get(ctx context.Context, id string) (*domain.Invoice, error)
	Create(ctx context.Context, in CreateInvoiceInput) (*domain.Invoice, error)
	Update(ctx context.Context, id string, patch domain.InvoicePatch) (*domain.Invoice, error)
	Delete(ctx context.Context, id string) error
}

// CreateLegacyUserInput is a users_table payload.
type CreateLegacyUserInput struct {
	Name  string
	Age   int64
	Email string
}

// LegacyUserService defines the users_table CRUD contract.
type LegacyUserService interface {
	List(ctx context.Context) ([]domain.LegacyUser, error)
	Get(ctx context.Context, id int64) (*domain.LegacyUser, error)
	Create(ctx context.Context, in CreateLegacyUserInput) (*domain.LegacyUser, error)
	Update(ctx context.Context, id int64, patch domain.LegacyUserPatch) (*domain.LegacyUser, error)
	Delete(ctx context.Context, id int64) error
}

// AnalyticsService builds dashboard figures from stored invoices.
type AnalyticsService interface {
	Revenue(ctx context.Context, year int) (*domain.RevenueReport, error)
}
