package sqlite

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

var _ out.AuthStore = (*Store)(nil)

// Store bundles every repository over one database handle.
type Store struct {
	db            *DB
	customers     *CustomerRepository
	invoices      *InvoiceRepository
	legacyUsers   *LegacyUserRepository
	users         *UserRepository
	sessions      *SessionRepository
	accounts      *AccountRepository
	verifications *VerificationRepository
}

// NewStore wires the repositories onto db.
func NewStore(db *DB, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		db:            db,
		customers:     NewCustomerRepository(db.DB),
		invoices:      NewInvoiceRepository(db.DB),
		legacyUsers:   NewLegacyUserRepository(db.DB),
		users:         NewUserRepository(db.DB),
		sessions:      NewSessionRepository(db.DB, logger),
		accounts:      NewAccountRepository(db.DB),
		verifications: NewVerificationRepository(db.DB, logger),
	}
}

func (s *Store) Customers() *CustomerRepository { return s.customers }
func (s *Store) Invoices() *InvoiceRepository { return s.invoices }
func (s *Store) LegacyUsers() *LegacyUserRepository { return s.legacyUsers }
func (s *Store) Users() out.UserRepository { return s.users }
func (s *Store) Sessions() out.SessionRepository { return s.sessions }
func (s *Store) Accounts() out.AccountRepository { return s.accounts }
func (s *Store) Verifications() out.VerificationRepository { return s.verifications }

// CreateUserWithAccount inserts the user and its credential account in one
// transaction so a failed account insert leaves no orphan user.
func (s *Store) CreateUserWithAccount(ctx context.Context, u *domain.User, a *domain.Account) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	users := NewUserQueries()
	if _, err := tx.NamedExecContext(ctx, users.Insert, newUserRow(u)); err != nil {
		return fmt.Errorf("failed to insert user: %w", classify(err))
	}
	accounts := NewAccountQueries()
	if _, err := tx.NamedExecContext(ctx, accounts.Insert, newAccountRow(a)); err != nil {
		return fmt.Errorf("failed to insert account: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
