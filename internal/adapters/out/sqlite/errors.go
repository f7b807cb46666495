package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
)

// classify maps driver errors onto the storage error kinds. The original
// error stays in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", out.ErrNoRows, err)
	}

	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}

	switch code := se.Code(); code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("%w: %w", out.ErrUniqueViolation, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: %w", out.ErrForeignKeyViolation, err)
	default:
		switch code & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", out.ErrBusy, err)
		case sqlite3.SQLITE_CONSTRAINT:
			// Primary result code only; fall back on the constraint name.
			msg := se.Error()
			switch {
			case strings.Contains(msg, "FOREIGN KEY"):
				return fmt.Errorf("%w: %w", out.ErrForeignKeyViolation, err)
			case strings.Contains(msg, "UNIQUE"):
				return fmt.Errorf("%w: %w", out.ErrUniqueViolation, err)
			}
		}
	}
	return err
}

// isBusy reports whether err is lock contention worth retrying.
func isBusy(err error) bool {
	if errors.Is(classify(err), out.ErrBusy) {
		return true
	}
	// sqlmock and wrapped drivers only carry the text.
	return err != nil && strings.Contains(err.Error(), "SQLITE_BUSY")
}
