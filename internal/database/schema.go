package database

import (
	"context"
	"fmt"
	"strings"
)

// Catalog tables. Entries are keyed by (archive, index) and disappear with
// their archive.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS archives (
		id           INTEGER PRIMARY KEY,
		path         TEXT NOT NULL UNIQUE,
		size         INTEGER NOT NULL,
		digest       TEXT NOT NULL,
		schema       TEXT NOT NULL,
		alignment    INTEGER NOT NULL,
		entry_count  INTEGER NOT NULL,
		cataloged_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		archive_id      INTEGER NOT NULL REFERENCES archives(id) ON DELETE CASCADE,
		idx             INTEGER NOT NULL,
		name            TEXT,
		entry_offset    INTEGER NOT NULL,
		compressed_size INTEGER NOT NULL,
		decoded_size    INTEGER NOT NULL,
		digest          TEXT NOT NULL,
		kind            TEXT NOT NULL,
		literals        INTEGER NOT NULL,
		runs            INTEGER NOT NULL,
		backrefs        INTEGER NOT NULL,
		PRIMARY KEY (archive_id, idx)
	)`,
	`CREATE INDEX IF NOT EXISTS entries_digest ON entries(digest)`,
	`CREATE INDEX IF NOT EXISTS entries_name ON entries(name)`,
}

// createSchema creates the catalog tables in one transaction
func (d *Database) createSchema(ctx context.Context) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ddl := range schemaDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating catalog schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog schema: %w", err)
	}
	return nil
}

// Column describes one column of a table
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	Default    *string
	PrimaryKey bool
}

// Tables lists the user tables in the database
func (d *Database) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.Query(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating table names: %w", err)
	}
	return tables, nil
}

// TableSchema describes the columns of table
func (d *Database) TableSchema(ctx context.Context, table string) ([]Column, error) {
	rows, err := d.Query(ctx, `PRAGMA table_info(`+quoteSQLIdentifier(table)+`)`)
	if err != nil {
		return nil, fmt.Errorf("getting schema for table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			cid     int
			col     Column
			notNull int
			dflt    *string
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		col.NotNull = notNull != 0
		col.Default = dflt
		col.PrimaryKey = pk != 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schema: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return columns, nil
}

// quoteSQLIdentifier quotes an identifier for safe interpolation
func quoteSQLIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
