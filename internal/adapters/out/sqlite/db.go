// Package sqlite implements the persistence gateway on modernc.org/sqlite
// through sqlx.
package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql name registered by modernc.org/sqlite.
const DriverName = "sqlite"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

func init() {
	sqlx.BindDriver(DriverName, sqlx.QUESTION)
}

// Options configures how the database file is opened.
type Options struct {
	Path        string
	BusyTimeout time.Duration
	Log         *log.Logger
}

// DB is the shared handle. Every pooled connection has foreign keys on.
type DB struct {
	*sqlx.DB
	path string
	log  *log.Logger
}

// Open ensures the parent directory exists, opens the database and pings it.
func Open(ctx context.Context, opts Options) (*DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if opts.BusyTimeout == 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if opts.Log == nil {
		opts.Log = log.Default()
	}

	if opts.Path != MemoryPath {
		if err := ensureDBDir(filepath.Dir(opts.Path), opts.Log); err != nil {
			return nil, fmt.Errorf("failed to ensure DB directory: %w", err)
		}
	}

	db, err := sqlx.Open(DriverName, dsn(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.Path == MemoryPath {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	opts.Log.Debug("Database opened", "path", opts.Path)
	return &DB{DB: db, path: opts.Path, log: opts.Log}, nil
}

// Path returns the file the handle was opened on.
func (d *DB) Path() string {
	return d.path
}

// Close closes the pool.
func (d *DB) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	if err := d.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func dsn(opts Options) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	if opts.Path != MemoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	return "file:" + opts.Path + "?" + q.Encode()
}

// ensureDBDir ensures that the database directory exists.
func ensureDBDir(dir string, logger *log.Logger) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("Creating database directory", "dir", dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
