// Package database keeps a SQLite catalog of archives and their entries so
// edits can be tracked across builds.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jchantrell/shadearc/internal/cache"
)

// Database represents a connection to the catalog database
type Database struct {
	db   *sql.DB
	path string
}

// DatabaseOptions configures database creation and connection behavior
type DatabaseOptions struct {
	// Path to the SQLite database file
	Path string

	// WALMode enables Write-Ahead Logging mode for better concurrency
	WALMode bool

	// ForeignKeys enables foreign key constraint checking. The catalog relies
	// on it to cascade entry rows when an archive is re-cataloged.
	ForeignKeys bool

	// BusyTimeout sets the timeout for locked database operations
	BusyTimeout time.Duration
}

// DefaultDatabaseOptions returns sensible default options for database connections
func DefaultDatabaseOptions(path string) *DatabaseOptions {
	return &DatabaseOptions{
		Path:        path,
		WALMode:     true,
		ForeignKeys: true,
		BusyTimeout: 10 * time.Second,
	}
}

// NewDatabase opens the catalog and creates its tables if needed
func NewDatabase(ctx context.Context, options *DatabaseOptions) (*Database, error) {
	if options == nil {
		return nil, fmt.Errorf("database options cannot be nil")
	}
	if options.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if err := cache.EnsureDir(filepath.Dir(options.Path)); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", buildConnectionString(options))
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", options.Path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("testing database connection: %w", err)
	}

	d := &Database{db: db, path: options.Path}
	if err := d.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// Path returns the database file path
func (d *Database) Path() string {
	return d.path
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil

	if err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}

// ErrClosed is returned by every operation on a closed catalog.
var ErrClosed = errors.New("catalog database is closed")

func (d *Database) conn() (*sql.DB, error) {
	if d.db == nil {
		return nil, ErrClosed
	}
	return d.db, nil
}

// BeginTx starts a new transaction with the given options
func (d *Database) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	db, err := d.conn()
	if err != nil {
		return nil, err
	}
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}

// Exec runs a statement that returns no rows
func (d *Database) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db, err := d.conn()
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}
	return res, nil
}

// Query runs a query that returns rows
func (d *Database) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := d.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return rows, nil
}

// QueryRow runs a query expected to return at most one row
func (d *Database) QueryRow(ctx context.Context, query string, args ...any) (*sql.Row, error) {
	db, err := d.conn()
	if err != nil {
		return nil, err
	}
	return db.QueryRowContext(ctx, query, args...), nil
}

// buildConnectionString appends the driver pragmas for options to a file URI
func buildConnectionString(options *DatabaseOptions) string {
	params := []string{"_synchronous=NORMAL"}
	if options.WALMode {
		params = append(params, "_journal_mode=WAL")
	}
	if options.ForeignKeys {
		params = append(params, "_foreign_keys=on")
	}
	if ms := options.BusyTimeout.Milliseconds(); ms > 0 {
		params = append(params, "_busy_timeout="+strconv.FormatInt(ms, 10))
	}
	return "file:" + options.Path + "?" + strings.Join(params, "&")
}
