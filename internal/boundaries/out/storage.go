package out

import (
	"context"
	"errors"
	"time"

	"github.com/eci4ever/bizadmin/internal/domain"
)

// Storage error kinds. Implementations classify driver errors into these so
// callers never inspect driver messages.
var (
	ErrUniqueViolation     = errors.New("unique constraint violated")
	ErrForeignKeyViolation = errors.New("foreign key constraint violated")
	ErrBusy                = errors.New("database is busy")
	ErrNoRows              = errors.New("no rows")
)

// CustomerRepository persists customers.
type CustomerRepository interface {
	List(ctx context.Context) ([]domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	Insert(ctx context.Context, c *domain.Customer) error
	// Update applies the patch and returns the stored row, or ErrNoRows.
	Update(ctx context.Context, id string, patch domain.CustomerPatch, now time.Time) (*domain.Customer, error)
	// Delete returns ErrNoRows when nothing was deleted.
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// InvoiceRepository persists invoices.
type InvoiceRepository interface {
	// List and Get join the owning customer's name and email.
	List(ctx context.Context) ([]domain.Invoice, error)
	Get(ctx context.Context, id string) (*domain.Invoice, error)
	// Insert relies on the customers foreign key; a missing customer
	// surfaces as ErrForeignKeyViolation.
	Insert(ctx context.Context, inv *domain.Invoice) error
	Update(ctx context.Context, id string, patch domain.InvoicePatch, now time.Time) (*domain.Invoice, error)
	Delete(ctx context.Context, id string) error
	// ListBetween returns invoices whose date falls in [from, to).
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Invoice, error)
}

// LegacyUserRepository persists rows of users_table.
type LegacyUserRepository interface {
	List(ctx context.Context) ([]domain.LegacyUser, error)
	Get(ctx context.Context, id int64) (*domain.LegacyUser, error)
	Insert(ctx context.Context, name string, age int64, email string) (*domain.LegacyUser, error)
	Update(ctx context.Context, id int64, patch domain.LegacyUserPatch) (*domain.LegacyUser, error)
	Delete(ctx context.Context, id int64) error
}

// UserRepository persists auth users.
type UserRepository interface {
	Insert(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch, now time.Time) (*domain.User, error)
	SetEmailVerified(ctx context.Context, id string, verified bool, now time.Time) error
	// SetBan stores the ban state. banned=false clears reason and expiry.
	SetBan(ctx context.Context, id string, banned bool, reason *string, expires *time.Time, now time.Time) (*domain.User, error)
	// Delete removes the user; sessions and accounts cascade.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q domain.ListUsersQuery) ([]domain.User, int, error)
}

// UserAccountCreator inserts a user and its credential account atomically.
type UserAccountCreator interface {
	CreateUserWithAccount(ctx context.Context, u *domain.User, a *domain.Account) error
}

// SessionRepository persists sessions.
type SessionRepository interface {
	Insert(ctx context.Context, s *domain.Session) error
	// GetWithUser returns the session for token joined with its owner.
	GetWithUser(ctx context.Context, token string) (*domain.Session, *domain.User, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteByUserExcept(ctx context.Context, userID, keepToken string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AccountRepository persists provider accounts.
type AccountRepository interface {
	Insert(ctx context.Context, a *domain.Account) error
	GetByUserAndProvider(ctx context.Context, userID, providerID string) (*domain.Account, error)
	UpdatePassword(ctx context.Context, userID, providerID, hash string, now time.Time) error
	ListByUser(ctx context.Context, userID string) ([]domain.Account, error)
}

// VerificationRepository persists one-time verification values.
type VerificationRepository interface {
	Insert(ctx context.Context, v *domain.Verification) error
	// Consume deletes and returns the row for identifier, or ErrNoRows.
	Consume(ctx context.Context, identifier string) (*domain.Verification, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuthStore groups the repositories the auth authority needs.
type AuthStore interface {
	Users() UserRepository
	Sessions() SessionRepository
	Accounts() AccountRepository
	Verifications() VerificationRepository
	UserAccountCreator
}
