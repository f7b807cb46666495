package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

var _ out.LegacyUserRepository = (*LegacyUserRepository)(nil)

// LegacyUserRepository stores rows of users_table.
type LegacyUserRepository struct {
	db *sqlx.DB
	q  *LegacyUserQueries
}

// NewLegacyUserRepository creates a users_table repository on db.
func NewLegacyUserRepository(db *sqlx.DB) *LegacyUserRepository {
	return &LegacyUserRepository{db: db, q: NewLegacyUserQueries()}
}

func (r *LegacyUserRepository) List(ctx context.Context) ([]domain.LegacyUser, error) {
	users := []domain.LegacyUser{}
	if err := r.db.SelectContext(ctx, &users, r.q.List); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", classify(err))
	}
	return users, nil
}

func (r *LegacyUserRepository) Get(ctx context.Context, id int64) (*domain.LegacyUser, error) {
	var u domain.LegacyUser
	if err := r.db.GetContext(ctx, &u, r.q.Get, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", classify(err))
	}
	return &u, nil
}

func (r *LegacyUserRepository) Insert(ctx context.Context, name string, age int64, email string) (*domain.LegacyUser, error) {
	var u domain.LegacyUser
	if err := r.db.GetContext(ctx, &u, r.q.Insert, name, age, email); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", classify(err))
	}
	return &u, nil
}

func (r *LegacyUserRepository) Update(ctx context.Context, id int64, patch domain.LegacyUserPatch) (*domain.LegacyUser, error) {
	args := map[string]interface{}{
		"id":    id,
		"name":  patch.Name,
		"age":   patch.Age,
		"email": patch.Email,
	}
	var u domain.LegacyUser
	if err := namedGet(ctx, r.db, &u, r.q.Update, args); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &u, nil
}

func (r *LegacyUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q.Delete, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", classify(err))
	}
	return requireAffected(res)
}
