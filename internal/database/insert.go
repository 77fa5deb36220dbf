package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const insertEntrySQL = `INSERT INTO entries (
	archive_id, idx, name, entry_offset, compressed_size, decoded_size,
	digest, kind, literals, runs, backrefs
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// RecordArchive stores an archive and its entries, replacing any earlier
// record for the same path. It returns the archive's row id.
func (d *Database) RecordArchive(ctx context.Context, rec ArchiveRecord, entries []EntryRecord) (int64, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM archives WHERE path = ?`, rec.Path); err != nil {
		return 0, fmt.Errorf("removing previous record for %s: %w", rec.Path, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO archives (path, size, digest, schema, alignment, entry_count, cataloged_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Path, rec.Size, rec.Digest, rec.Schema, rec.Alignment, len(entries),
		rec.CatalogedAt.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting archive %s: %w", rec.Path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading archive id: %w", err)
	}

	if err := insertEntries(ctx, tx, id, entries); err != nil {
		return 0, fmt.Errorf("archive %s: %w", rec.Path, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	slog.Debug("Recorded archive", "path", rec.Path, "id", id, "entries", len(entries))
	return id, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, archiveID int64, entries []EntryRecord) error {
	stmt, err := tx.PrepareContext(ctx, insertEntrySQL)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var name any
		if e.Name != "" {
			name = e.Name
		}
		if _, err := stmt.ExecContext(ctx,
			archiveID, e.Index, name, e.Offset, e.CompressedSize, e.DecodedSize,
			e.Digest, e.Kind, e.Literals, e.Runs, e.Backrefs,
		); err != nil {
			return fmt.Errorf("inserting entry %d: %w", e.Index, err)
		}
	}
	return nil
}
