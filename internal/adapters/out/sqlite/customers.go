package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

var _ out.CustomerRepository = (*CustomerRepository)(nil)

// CustomerRepository stores customers.
type CustomerRepository struct {
	db *sqlx.DB
	q  *CustomerQueries
}

// NewCustomerRepository creates a customer repository on db.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db, q: NewCustomerQueries()}
}

func (r *CustomerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	var rows []customerRow
	if err := r.db.SelectContext(ctx, &rows, r.q.List); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", classify(err))
	}
	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, row.domain())
	}
	return customers, nil
}

func (r *CustomerRepository) Get(ctx context.Context, id string) (*domain.Customer, error) {
	var row customerRow
	if err := r.db.GetContext(ctx, &row, r.q.Get, id); err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", classify(err))
	}
	c := row.domain()
	return &c, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, c *domain.Customer) error {
	if _, err := r.db.NamedExecContext(ctx, r.q.Insert, newCustomerRow(c)); err != nil {
		return fmt.Errorf("failed to insert customer: %w", classify(err))
	}
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, id string, patch domain.CustomerPatch, now time.Time) (*domain.Customer, error) {
	args := map[string]interface{}{
		"id":            id,
		"name":          patch.Name,
		"email":         patch.Email,
		"set_image_url": patch.SetImageURL,
		"image_url":     patch.ImageURL,
		"updatedAt":     unix(now),
	}
	var row customerRow
	if err := namedGet(ctx, r.db, &row, r.q.Update, args); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	c := row.domain()
	return &c, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q.Delete, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", classify(err))
	}
	return requireAffected(res)
}

func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.q.Count); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", classify(err))
	}
	return n, nil
}
