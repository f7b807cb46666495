package sqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	logger := log.New(io.Discard)

	db, err := Open(ctx, Options{Path: filepath.Join(t.TempDir(), "test.db"), Log: logger})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db, MigrateUp, logger))
	return NewStore(db, logger)
}

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func seedCustomer(t *testing.T, s *Store, id, email string) *domain.Customer {
	t.Helper()
	c := &domain.Customer{ID: id, Name: "Acme", Email: email, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, s.Customers().Insert(context.Background(), c))
	return c
}

func seedUser(t *testing.T, s *Store, id, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, Name: id, Email: email, Role: role, CreatedAt: testNow, UpdatedAt: testNow}
	a := &domain.Account{
		ID: "acc-" + id, AccountID: id, ProviderID: domain.CredentialProvider, UserID: id,
		Password: strPtr("hash"), CreatedAt: testNow, UpdatedAt: testNow,
	}
	require.NoError(t, s.CreateUserWithAccount(context.Background(), u, a))
	return u
}

func TestCustomerRepository_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := seedCustomer(t, s, "cust_1", "a@acme.com")

	got, err := s.Customers().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "a@acme.com", got.Email)
	assert.Nil(t, got.ImageURL)
	assert.True(t, testNow.Equal(got.CreatedAt))

	list, err := s.Customers().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err := s.Customers().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCustomerRepository_DuplicateEmail(t *testing.T) {
	s := openTestStore(t)
	seedCustomer(t, s, "cust_1", "a@acme.com")

	err := s.Customers().Insert(context.Background(), &domain.Customer{
		ID: "cust_2", Name: "Other", Email: "a@acme.com", CreatedAt: testNow, UpdatedAt: testNow,
	})
	assert.ErrorIs(t, err, out.ErrUniqueViolation)
}

func TestCustomerRepository_PartialUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := seedCustomer(t, s, "cust_1", "a@acme.com")
	later := testNow.Add(time.Hour)

	got, err := s.Customers().Update(ctx, c.ID, domain.CustomerPatch{
		Name:        strPtr("Acme Corp"),
		ImageURL:    strPtr("https://img/acme.png"),
		SetImageURL: true,
	}, later)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.Equal(t, "a@acme.com", got.Email, "email untouched")
	require.NotNil(t, got.ImageURL)
	assert.True(t, later.Equal(got.UpdatedAt))

	got, err = s.Customers().Update(ctx, c.ID, domain.CustomerPatch{SetImageURL: true}, later)
	require.NoError(t, err)
	assert.Nil(t, got.ImageURL, "explicit null clears the image")

	_, err = s.Customers().Update(ctx, "missing", domain.CustomerPatch{Name: strPtr("x")}, later)
	assert.ErrorIs(t, err, out.ErrNoRows)
}

func TestCustomerRepository_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := seedCustomer(t, s, "cust_1", "a@acme.com")

	require.NoError(t, s.Customers().Delete(ctx, c.ID))
	assert.ErrorIs(t, s.Customers().Delete(ctx, c.ID), out.ErrNoRows)

	_, err := s.Customers().Get(ctx, c.ID)
	assert.ErrorIs(t, err, out.ErrNoRows)
}

func TestInvoiceRepository_ForeignKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Invoices().Insert(ctx, &domain.Invoice{
		ID: "inv_1", CustomerID: "missing", Amount: 10, Date: testNow,
		Status: domain.InvoicePending, CreatedAt: testNow, UpdatedAt: testNow,
	})
	assert.ErrorIs(t, err, out.ErrForeignKeyViolation)

	list, err := s.Invoices().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "no row inserted")
}

func TestInvoiceRepository_JoinAndUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := seedCustomer(t, s, "cust_1", "a@acme.com")

	require.NoError(t, s.Invoices().Insert(ctx, &domain.Invoice{
		ID: "inv_1", CustomerID: c.ID, Amount: 99.5, Date: testNow,
		Status: domain.InvoicePending, CreatedAt: testNow, UpdatedAt: testNow,
	}))

	got, err := s.Invoices().Get(ctx, "inv_1")
	require.NoError(t, err)
	require.NotNil(t, got.CustomerName)
	assert.Equal(t, "Acme", *got.CustomerName)
	assert.Equal(t, "a@acme.com", *got.CustomerEmail)
	assert.Equal(t, 99.5, got.Amount)

	paid := domain.InvoicePaid
	updated, err := s.Invoices().Update(ctx, "inv_1", domain.InvoicePatch{Status: &paid}, testNow)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, updated.Status)
	assert.Equal(t, 99.5, updated.Amount)

	missing := "nope"
	_, err = s.Invoices().Update(ctx, "inv_1", domain.InvoicePatch{CustomerID: &missing}, testNow)
	assert.ErrorIs(t, err, out.ErrForeignKeyViolation)

	// Customers with invoices cannot be deleted.
	assert.ErrorIs(t, s.Customers().Delete(ctx, c.ID), out.ErrForeignKeyViolation)
}

func TestInvoiceRepository_ListBetween(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := seedCustomer(t, s, "cust_1", "a@acme.com")

	for i, d := range []time.Time{
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, s.Invoices().Insert(ctx, &domain.Invoice{
			ID: "inv_" + string(rune('a'+i)), CustomerID: c.ID, Amount: 1, Date: d,
			Status: domain.InvoicePaid, CreatedAt: testNow, UpdatedAt: testNow,
		}))
	}

	got, err := s.Invoices().ListBetween(ctx,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLegacyUserRepository_CRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.LegacyUsers()

	u, err := repo.Insert(ctx, "Ann", 30, "ann@example.com")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	_, err = repo.Insert(ctx, "Ann2", 31, "ann@example.com")
	assert.ErrorIs(t, err, out.ErrUniqueViolation)

	age := int64(31)
	u2, err := repo.Update(ctx, u.ID, domain.LegacyUserPatch{Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u2.Name)
	assert.Equal(t, int64(31), u2.Age)

	require.NoError(t, repo.Delete(ctx, u.ID))
	_, err = repo.Get(ctx, u.ID)
	assert.ErrorIs(t, err, out.ErrNoRows)
}

func TestUserDelete_CascadesSessionsAndAccounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "u1", "u1@example.com", domain.RoleUser)

	require.NoError(t, s.Sessions().Insert(ctx, &domain.Session{
		ID: "s1", Token: "tok", UserID: u.ID, ExpiresAt: testNow.Add(time.Hour),
		CreatedAt: testNow, UpdatedAt: testNow,
	}))

	require.NoError(t, s.Users().Delete(ctx, u.ID))

	_, _, err := s.Sessions().GetWithUser(ctx, "tok")
	assert.ErrorIs(t, err, out.ErrNoRows)
	accounts, err := s.Accounts().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestSessionRepository_GetWithUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "u1", "u1@example.com", domain.RoleAdmin)

	require.NoError(t, s.Sessions().Insert(ctx, &domain.Session{
		ID: "s1", Token: "tok", UserID: u.ID, ExpiresAt: testNow.Add(time.Hour),
		IPAddress: strPtr("10.0.0.1"), CreatedAt: testNow, UpdatedAt: testNow,
	}))

	sess, user, err := s.Sessions().GetWithUser(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, "10.0.0.1", *sess.IPAddress)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, "u1@example.com", user.Email)

	n, err := s.Sessions().DeleteExpired(ctx, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "expiresAt == now counts as expired")
}

func TestUserRepository_List(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "alice", "alice@acme.com", domain.RoleAdmin)
	seedUser(t, s, "bob", "bob@acme.com", domain.RoleUser)
	seedUser(t, s, "carol", "carol@other.org", domain.RoleUser)

	q, err := domain.ListUsersQuery{SearchValue: "acme", SortBy: "name", SortDirection: "asc"}.Normalize()
	require.NoError(t, err)
	users, total, err := s.Users().List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Name)

	q, err = domain.ListUsersQuery{FilterField: "role", FilterValue: "user", Limit: 1}.Normalize()
	require.NoError(t, err)
	users, total, err = s.Users().List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, users, 1)

	q, err = domain.ListUsersQuery{SearchField: "name", SearchOperator: "starts_with", SearchValue: "car"}.Normalize()
	require.NoError(t, err)
	users, _, err = s.Users().List(ctx, q)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Name)

	q, err = domain.ListUsersQuery{FilterField: "banned", FilterValue: "maybe"}.Normalize()
	require.NoError(t, err)
	_, _, err = s.Users().List(ctx, q)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserRepository_SetBan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "u1", "u1@example.com", domain.RoleUser)
	until := testNow.Add(24 * time.Hour)

	banned, err := s.Users().SetBan(ctx, u.ID, true, strPtr("spam"), &until, testNow)
	require.NoError(t, err)
	assert.True(t, banned.Banned)
	assert.Equal(t, "spam", *banned.BanReason)
	assert.True(t, until.Equal(*banned.BanExpires))

	cleared, err := s.Users().SetBan(ctx, u.ID, false, strPtr("ignored"), &until, testNow)
	require.NoError(t, err)
	assert.False(t, cleared.Banned)
	assert.Nil(t, cleared.BanReason)
	assert.Nil(t, cleared.BanExpires)
}

func TestVerificationRepository_Consume(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Verifications().Insert(ctx, &domain.Verification{
		ID: "v1", Identifier: "reset-password:abc", Value: "u1",
		ExpiresAt: testNow.Add(time.Hour), CreatedAt: testNow, UpdatedAt: testNow,
	}))

	v, err := s.Verifications().Consume(ctx, "reset-password:abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", v.Value)

	_, err = s.Verifications().Consume(ctx, "reset-password:abc")
	assert.ErrorIs(t, err, out.ErrNoRows, "consumed rows are gone")
}
