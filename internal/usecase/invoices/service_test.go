package invoices

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eci4ever/bizadmin/internal/adapters/out/sqlite"
	"github.com/eci4ever/bizadmin/internal/boundaries/in"
	"github.com/eci4ever/bizadmin/internal/domain"
)

var invoiceDate = time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	logger := log.New(io.Discard)

	db, err := sqlite.Open(ctx, sqlite.Options{Path: filepath.Join(t.TempDir(), "invoices.db"), Log: logger})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db, sqlite.MigrateUp, logger))

	store := sqlite.NewStore(db, logger)
	now := time.Now()
	require.NoError(t, store.Customers().Insert(ctx, &domain.Customer{
		ID: "cust_1", Name: "Acme", Email: "a@acme.com", CreatedAt: now, UpdatedAt: now,
	}))
	return NewService(store.Invoices(), logger), store
}

func TestCreate_JoinsCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, in.CreateInvoiceInput{CustomerID: "cust_1", Amount: 125.5, Date: invoiceDate})
	require.NoError(t, err)
	assert.Regexp(t, `^inv_\d+_[0-9a-z]{7}$`, inv.ID)
	assert.Equal(t, domain.InvoicePending, inv.Status)

	got, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 125.5, got.Amount)
	assert.True(t, invoiceDate.Equal(got.Date))
	require.NotNil(t, got.CustomerName)
	assert.Equal(t, "Acme", *got.CustomerName)
	assert.Equal(t, "a@acme.com", *got.CustomerEmail)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input in.CreateInvoiceInput
		msg   string
	}{
		{"missing customer", in.CreateInvoiceInput{Amount: 10, Date: invoiceDate}, "customer_id, amount, and date are required"},
		{"zero amount", in.CreateInvoiceInput{CustomerID: "cust_1", Date: invoiceDate}, "customer_id, amount, and date are required"},
		{"missing date", in.CreateInvoiceInput{CustomerID: "cust_1", Amount: 10}, "customer_id, amount, and date are required"},
		{"negative amount", in.CreateInvoiceInput{CustomerID: "cust_1", Amount: -5, Date: invoiceDate}, "amount must be a positive number"},
		{"NaN amount", in.CreateInvoiceInput{CustomerID: "cust_1", Amount: math.NaN(), Date: invoiceDate}, "amount must be a positive number"},
		{"bad status", in.CreateInvoiceInput{CustomerID: "cust_1", Amount: 10, Date: invoiceDate, Status: "void"}, "status must be either 'pending' or 'paid'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.msg, domain.Message(err))
		})
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_UnknownCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, in.CreateInvoiceInput{CustomerID: "cust_missing", Amount: 10, Date: invoiceDate})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Customer not found", domain.Message(err))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "no row inserted")
}

func TestUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, in.CreateInvoiceInput{CustomerID: "cust_1", Amount: 10, Date: invoiceDate})
	require.NoError(t, err)

	paid := domain.InvoicePaid
	got, err := svc.Update(ctx, inv.ID, domain.InvoicePatch{Status: &paid})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, got.Status)
	assert.Equal(t, 10.0, got.Amount)

	zero := 0.0
	_, err = svc.Update(ctx, inv.ID, domain.InvoicePatch{Amount: &zero})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "amount must be a positive number", domain.Message(err))

	void := domain.InvoiceStatus("void")
	_, err = svc.Update(ctx, inv.ID, domain.InvoicePatch{Status: &void})
	assert.ErrorIs(t, err, domain.ErrValidation)

	missing := "cust_missing"
	_, err = svc.Update(ctx, inv.ID, domain.InvoicePatch{CustomerID: &missing})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Customer not found", domain.Message(err))

	_, err = svc.Update(ctx, "inv_missing", domain.InvoicePatch{Status: &paid})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Invoice not found", domain.Message(err))
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, in.CreateInvoiceInput{CustomerID: "cust_1", Amount: 10, Date: invoiceDate})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, inv.ID))
	assert.ErrorIs(t, svc.Delete(ctx, inv.ID), domain.ErrNotFound)

	_, err = svc.Get(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
