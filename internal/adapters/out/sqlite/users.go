package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
	"github.com/eci4ever/bizadmin/internal/domain"
)

var _ out.UserRepository = (*UserRepository)(nil)

// UserRepository stores auth users.
type UserRepository struct {
	db *sqlx.DB
	q  *UserQueries
}

// NewUserRepository creates an auth user repository on db.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, q: NewUserQueries()}
}

func (r *UserRepository) Insert(ctx context.Context, u *domain.User) error {
	if _, err := r.db.NamedExecContext(ctx, r.q.Insert, newUserRow(u)); err != nil {
		return fmt.Errorf("failed to insert user: %w", classify(err))
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, r.q.GetByID, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, r.q.GetByEmail, email)
}

func (r *UserRepository) get(ctx context.Context, query, arg string) (*domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", classify(err))
	}
	u := row.domain()
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserPatch, now time.Time) (*domain.User, error) {
	var role *string
	if patch.Role != nil {
		s := patch.Role.String()
		role = &s
	}
	args := map[string]interface{}{
		"id":        id,
		"name":      patch.Name,
		"email":     patch.Email,
		"image":     patch.Image,
		"role":      role,
		"updatedAt": unix(now),
	}
	var row userRow
	if err := namedGet(ctx, r.db, &row, r.q.Update, args); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	u := row.domain()
	return &u, nil
}

func (r *UserRepository) SetEmailVerified(ctx context.Context, id string, verified bool, now time.Time) error {
	res, err := r.db.ExecContext(ctx, r.q.SetEmailVerified, verified, unix(now), id)
	if err != nil {
		return fmt.Errorf("failed to set email verified: %w", classify(err))
	}
	return requireAffected(res)
}

func (r *UserRepository) SetBan(ctx context.Context, id string, banned bool, reason *string, expires *time.Time, now time.Time) (*domain.User, error) {
	if !banned {
		reason, expires = nil, nil
	}
	args := map[string]interface{}{
		"id":         id,
		"banned":     banned,
		"banReason":  reason,
		"banExpires": optUnix(expires),
		"updatedAt":  unix(now),
	}
	var row userRow
	if err := namedGet(ctx, r.db, &row, r.q.SetBan, args); err != nil {
		return nil, fmt.Errorf("failed to set ban: %w", err)
	}
	u := row.domain()
	return &u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q.Delete, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", classify(err))
	}
	return requireAffected(res)
}

// List expects a normalized query; field names are interpolated only after
// Normalize has restricted them to known columns.
func (r *UserRepository) List(ctx context.Context, q domain.ListUsersQuery) ([]domain.User, int, error) {
	var where []string
	var args []interface{}

	if q.SearchValue != "" {
		where = append(where, q.SearchField+` LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(q.SearchOperator, q.SearchValue))
	}

	if q.FilterField != "" {
		switch q.FilterField {
		case "role":
			role, err := domain.ParseRole(q.FilterValue)
			if err != nil {
				return nil, 0, err
			}
			where = append(where, "role = ?")
			args = append(args, role.String())
		case "banned", "emailVerified":
			b, err := strconv.ParseBool(q.FilterValue)
			if err != nil {
				return nil, 0, domain.Validation("filterValue must be a boolean")
			}
			where = append(where, q.FilterField+" = ?")
			args = append(args, b)
		}
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM "user"`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", classify(err))
	}

	query := `SELECT ` + userCols + ` FROM "user"` + clause +
		fmt.Sprintf(" ORDER BY %s %s LIMIT ? OFFSET ?", q.SortBy, strings.ToUpper(q.SortDirection))
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, append(args, q.Limit, q.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", classify(err))
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.domain())
	}
	return users, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(operator, value string) string {
	v := likeEscaper.Replace(value)
	switch operator {
	case "starts_with":
		return v + "%"
	case "ends_with":
		return "%" + v
	default:
		return "%" + v + "%"
	}
}
