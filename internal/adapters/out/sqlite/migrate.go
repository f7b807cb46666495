package sqlite

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/pressly/goose/v3"

	"github.com/eci4ever/bizadmin/internal/adapters/out/sqlite/migrations"
)

// Migration commands understood by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// Migrate runs a goose command against the embedded migrations.
func Migrate(ctx context.Context, db *DB, command string, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(logger)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	var err error
	switch command {
	case MigrateUp, "":
		err = goose.UpContext(ctx, db.DB.DB, ".")
	case MigrateDown:
		err = goose.DownContext(ctx, db.DB.DB, ".")
	case MigrateStatus:
		err = goose.StatusContext(ctx, db.DB.DB, ".")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
