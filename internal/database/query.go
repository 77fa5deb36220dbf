package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotCataloged is returned when an archive path has no catalog record.
var ErrNotCataloged = errors.New("archive not cataloged")

// Archives lists every cataloged archive ordered by path
func (d *Database) Archives(ctx context.Context) ([]ArchiveRecord, error) {
	rows, err := d.Query(ctx,
		`SELECT id, path, size, digest, schema, alignment, entry_count, cataloged_at
		 FROM archives ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchiveRecord
	for rows.Next() {
		rec, err := scanArchive(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating archives: %w", err)
	}
	return out, nil
}

// Archive returns the record for path
func (d *Database) Archive(ctx context.Context, path string) (ArchiveRecord, error) {
	row, err := d.QueryRow(ctx,
		`SELECT id, path, size, digest, schema, alignment, entry_count, cataloged_at
		 FROM archives WHERE path = ?`, path)
	if err != nil {
		return ArchiveRecord{}, err
	}
	rec, err := scanArchive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ArchiveRecord{}, fmt.Errorf("%w: %s", ErrNotCataloged, path)
	}
	return rec, err
}

// Entries returns the cataloged entries of path in index order
func (d *Database) Entries(ctx context.Context, path string) ([]EntryRecord, error) {
	rec, err := d.Archive(ctx, path)
	if err != nil {
		return nil, err
	}

	rows, err := d.Query(ctx,
		`SELECT idx, COALESCE(name, ''), entry_offset, compressed_size, decoded_size,
		        digest, kind, literals, runs, backrefs
		 FROM entries WHERE archive_id = ? ORDER BY idx`, rec.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntryRecord
	for rows.Next() {
		var e EntryRecord
		if err := rows.Scan(&e.Index, &e.Name, &e.Offset, &e.CompressedSize, &e.DecodedSize,
			&e.Digest, &e.Kind, &e.Literals, &e.Runs, &e.Backrefs); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return out, nil
}

// Location is where a piece of content was found
type Location struct {
	Path  string
	Index int
	Name  string
}

// FindDigest lists every cataloged entry whose decoded data has digest
func (d *Database) FindDigest(ctx context.Context, digest string) ([]Location, error) {
	rows, err := d.Query(ctx,
		`SELECT a.path, e.idx, COALESCE(e.name, '')
		 FROM entries e JOIN archives a ON a.id = e.archive_id
		 WHERE e.digest = ? ORDER BY a.path, e.idx`, digest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.Path, &loc.Index, &loc.Name); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locations: %w", err)
	}
	return out, nil
}

// Change is an entry whose content differs from its catalog record
type Change struct {
	Index  int
	Before string // digest on record, empty for new entries
	After  string // current digest, empty for removed entries
}

// Diff compares current entry records against the catalog for path
func (d *Database) Diff(ctx context.Context, path string, current []EntryRecord) ([]Change, error) {
	recorded, err := d.Entries(ctx, path)
	if err != nil {
		return nil, err
	}

	n := max(len(recorded), len(current))
	var changes []Change
	for i := 0; i < n; i++ {
		var c Change
		c.Index = i
		if i < len(recorded) {
			c.Before = recorded[i].Digest
		}
		if i < len(current) {
			c.After = current[i].Digest
		}
		if c.Before != c.After {
			changes = append(changes, c)
		}
	}
	return changes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArchive(s scanner) (ArchiveRecord, error) {
	var (
		rec ArchiveRecord
		at  string
	)
	if err := s.Scan(&rec.ID, &rec.Path, &rec.Size, &rec.Digest, &rec.Schema,
		&rec.Alignment, &rec.Entries, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ArchiveRecord{}, err
		}
		return ArchiveRecord{}, fmt.Errorf("scanning archive: %w", err)
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return ArchiveRecord{}, fmt.Errorf("parsing catalog time %q: %w", at, err)
	}
	rec.CatalogedAt = t
	return rec, nil
}
