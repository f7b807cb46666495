package domain

import (
	"time"
)

// InvoiceStatus is the settlement state of an invoice.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
)

// ParseInvoiceStatus accepts only the two known states.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch InvoiceStatus(s) {
	case InvoicePending, InvoicePaid:
		return InvoiceStatus(s), nil
	default:
		return "", Validation("status must be either 'pending' or 'paid'")
	}
}

var invoiceDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseInvoiceDate accepts RFC 3339 timestamps and plain calendar dates.
func ParseInvoiceDate(s string) (time.Time, error) {
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, Validation("invalid date format")
}

// Invoice is an amount billed to a customer. CustomerName and CustomerEmail
// are filled only by reads that join the customer.
type Invoice struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customer_id"`
	CustomerName  *string       `json:"customer_name,omitempty"`
	CustomerEmail *string       `json:"customer_email,omitempty"`
	Amount        float64       `json:"amount"`
	Date          time.Time     `json:"date"`
	Status        InvoiceStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// InvoicePatch carries a partial invoice update.
type InvoicePatch struct {
	CustomerID *string
	Amount     *float64
	Date       *time.Time
	Status     *InvoiceStatus
}

// MonthlyRevenue is one month of invoice totals.
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Pending float64 `json:"pending"`
}

// RevenueReport summarizes invoices for a calendar year.
type RevenueReport struct {
	Year          int              `json:"year"`
	Months        []MonthlyRevenue `json:"months"`
	TotalRevenue  float64          `json:"totalRevenue"`
	TotalPending  float64          `json:"totalPending"`
	InvoiceCount  int              `json:"invoiceCount"`
	CustomerCount int              `json:"customerCount"`
}
