package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(string) string
}

// namedGet runs a named query expected to return one row and scans it
// into dest. Errors come back classified.
func namedGet(ctx context.Context, db queryer, dest interface{}, query string, arg interface{}) error {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return fmt.Errorf("failed to bind query: %w", err)
	}
	if err := db.QueryRowxContext(ctx, db.Rebind(q), args...).StructScan(dest); err != nil {
		return classify(err)
	}
	return nil
}

// requireAffected turns a zero-row write into out.ErrNoRows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return out.ErrNoRows
	}
	return nil
}
