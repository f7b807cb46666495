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

var _ out.SessionRepository = (*SessionRepository)(nil)

// SessionRepository stores sessions.
type SessionRepository struct {
	db    *sqlx.DB
	q     *SessionQueries
	retry RetryPolicy
	log   *log.Logger
}

// NewSessionRepository creates a session repository on db.
func NewSessionRepository(db *sqlx.DB, logger *log.Logger) *SessionRepository {
	return &SessionRepository{db: db, q: NewSessionQueries(), retry: DefaultRetryPolicy, log: logger}
}

func (r *SessionRepository) Insert(ctx context.Context, s *domain.Session) error {
	if _, err := r.db.NamedExecContext(ctx, r.q.Insert, newSessionRow(s)); err != nil {
		return fmt.Errorf("failed to insert session: %w", classify(err))
	}
	return nil
}

func (r *SessionRepository) GetWithUser(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	var row sessionUserRow
	if err := r.db.GetContext(ctx, &row, r.q.GetWithUser, token); err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", classify(err))
	}
	s := row.sessionRow.domain()
	u := row.user()
	return &s, &u, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, r.q.ListByUser, userID); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", classify(err))
	}
	sessions := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.domain())
	}
	return sessions, nil
}

// DeleteByToken is a no-op for unknown tokens.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, r.q.DeleteByToken, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", classify(err))
	}
	return nil
}

func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return r.exec(ctx, "failed to revoke sessions", r.q.DeleteByUser, userID)
}

func (r *SessionRepository) DeleteByUserExcept(ctx context.Context, userID, keepToken string) (int64, error) {
	return r.exec(ctx, "failed to revoke other sessions", r.q.DeleteByUserExcept, userID, keepToken)
}

// DeleteExpired runs from the background cleaner and retries on lock
// contention.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := execWithRetry(ctx, r.db, r.retry, r.log, r.q.DeleteExpired, unix(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func (r *SessionRepository) exec(ctx context.Context, msg, query string, args ...interface{}) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", msg, classify(err))
	}
	return res.RowsAffected()
}
