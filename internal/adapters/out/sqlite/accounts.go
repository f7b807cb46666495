package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

var (
	_ out.AccountRepository      = (*AccountRepository)(nil)
	_ out.VerificationRepository = (*VerificationRepository)(nil)
)

// AccountRepository stores provider accounts.
type AccountRepository struct {
	db *sqlx.DB
	q  *AccountQueries
}

// NewAccountRepository creates an account repository on db.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db, q: NewAccountQueries()}
}

func (r *AccountRepository) Insert(ctx context.Context, a *domain.Account) error {
	if _, err := r.db.NamedExecContext(ctx, r.q.Insert, newAccountRow(a)); err != nil {
		return fmt.Errorf("failed to insert account: %w", classify(err))
	}
	return nil
}

func (r *AccountRepository) GetByUserAndProvider(ctx context.Context, userID, providerID string) (*domain.Account, error) {
	var row accountRow
	if err := r.db.GetContext(ctx, &row, r.q.GetByUserAndProvider, userID, providerID); err != nil {
		return nil, fmt.Errorf("failed to get account: %w", classify(err))
	}
	a := row.domain()
	return &a, nil
}

// UpdatePassword returns out.ErrNoRows when the user has no account for
// the provider.
func (r *AccountRepository) UpdatePassword(ctx context.Context, userID, providerID, hash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, r.q.UpdatePassword, hash, unix(now), userID, providerID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", classify(err))
	}
	return requireAffected(res)
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	var rows []accountRow
	if err := r.db.SelectContext(ctx, &rows, r.q.ListByUser, userID); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", classify(err))
	}
	accounts := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, row.domain())
	}
	return accounts, nil
}

// VerificationRepository stores one-time verification values.
type VerificationRepository struct {
	db    *sqlx.DB
	q     *VerificationQueries
	retry RetryPolicy
	log   *log.Logger
}

// NewVerificationRepository creates a verification repository on db.
func NewVerificationRepository(db *sqlx.DB, logger *log.Logger) *VerificationRepository {
	return &VerificationRepository{db: db, q: NewVerificationQueries(), retry: DefaultRetryPolicy, log: logger}
}

func (r *VerificationRepository) Insert(ctx context.Context, v *domain.Verification) error {
	row := verificationRow{
		ID:         v.ID,
		Identifier: v.Identifier,
		Value:      v.Value,
		ExpiresAt:  unix(v.ExpiresAt),
		CreatedAt:  unix(v.CreatedAt),
		UpdatedAt:  unix(v.UpdatedAt),
	}
	if _, err := r.db.NamedExecContext(ctx, r.q.Insert, row); err != nil {
		return fmt.Errorf("failed to insert verification: %w", classify(err))
	}
	return nil
}

func (r *VerificationRepository) Consume(ctx context.Context, identifier string) (*domain.Verification, error) {
	var row verificationRow
	if err := r.db.GetContext(ctx, &row, r.q.Consume, identifier); err != nil {
		return nil, fmt.Errorf("failed to consume verification: %w", classify(err))
	}
	v := row.domain()
	return &v, nil
}

func (r *VerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := execWithRetry(ctx, r.db, r.retry, r.log, r.q.DeleteExpired, unix(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired verifications: %w", err)
	}
	return res.RowsAffected()
}
