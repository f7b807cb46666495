package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

var _ out.InvoiceRepository = (*InvoiceRepository)(nil)

// InvoiceRepository stores invoices.
type InvoiceRepository struct {
	db *sqlx.DB
	q  *InvoiceQueries
}

// NewInvoiceRepository creates an invoice repository on db.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db, q: NewInvoiceQueries()}
}

func (r *InvoiceRepository) List(ctx context.Context) ([]domain.Invoice, error) {
	return r.list(ctx, r.q.List)
}

func (r *InvoiceRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Invoice, error) {
	return r.list(ctx, r.q.ListBetween, unix(from), unix(to))
}

func (r *InvoiceRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Invoice, error) {
	var rows []invoiceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", classify(err))
	}
	invoices := make([]domain.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, row.domain())
	}
	return invoices, nil
}

func (r *InvoiceRepository) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	var row invoiceRow
	if err := r.db.GetContext(ctx, &row, r.q.Get, id); err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", classify(err))
	}
	inv := row.domain()
	return &inv, nil
}

func (r *InvoiceRepository) Insert(ctx context.Context, inv *domain.Invoice) error {
	if _, err := r.db.NamedExecContext(ctx, r.q.Insert, newInvoiceRow(inv)); err != nil {
		return fmt.Errorf("failed to insert invoice: %w", classify(err))
	}
	return nil
}

func (r *InvoiceRepository) Update(ctx context.Context, id string, patch domain.InvoicePatch, now time.Time) (*domain.Invoice, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	args := map[string]interface{}{
		"id":          id,
		"customer_id": patch.CustomerID,
		"amount":      patch.Amount,
		"date":        optUnix(patch.Date),
		"status":      status,
		"updatedAt":   unix(now),
	}
	var row invoiceRow
	if err := namedGet(ctx, r.db, &row, r.q.Update, args); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	inv := row.domain()
	return &inv, nil
}

func (r *InvoiceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q.Delete, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", classify(err))
	}
	return requireAffected(res)
}
