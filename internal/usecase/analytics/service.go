// Package analytics builds dashboard revenue figures.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

var _ in.AnalyticsService = (*Service)(nil)

// Service implements in.AnalyticsService.
type Service struct {
	invoices  out.InvoiceRepository
	customers out.CustomerRepository
}

// NewService creates a new analytics service.
func NewService(invoices out.InvoiceRepository, customers out.CustomerRepository) *Service {
	return &Service{invoices: invoices, customers: customers}
}

// Revenue totals paid and pending invoice amounts per month of year.
func (s *Service) Revenue(ctx context.Context, year int) (*domain.RevenueReport, error) {
	if year < 1 || year > 9999 {
		return nil, domain.Validation("invalid year")
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	invoices, err := s.invoices.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	customers, err := s.customers.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	report := &domain.RevenueReport{
		Year:          year,
		Months:        make([]domain.MonthlyRevenue, 12),
		InvoiceCount:  len(invoices),
		CustomerCount: customers,
	}
	for i := range report.Months {
		report.Months[i].Month = fmt.Sprintf("%04d-%02d", year, i+1)
	}
	for _, inv := range invoices {
		m := &report.Months[inv.Date.UTC().Month()-1]
		switch inv.Status {
		case domain.InvoicePaid:
			m.Revenue += inv.Amount
			report.TotalRevenue += inv.Amount
		case domain.InvoicePending:
			m.Pending += inv.Amount
			report.TotalPending += inv.Amount
		}
	}
	return report, nil
}
