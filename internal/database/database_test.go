package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/shadearc/internal/archive"
	"github.com/jchantrell/shadearc/internal/view"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	db, err := NewDatabase(context.Background(), DefaultDatabaseOptions(path))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testArchive(t *testing.T) (*archive.Archive, []byte) {
	t.Helper()
	a := archive.New()
	text, err := view.BuildText([]string{"hello", "world"})
	require.NoError(t, err)
	a.AddEntry("strings", text)
	a.AddEntry("", []byte("raw payload raw payload raw payload"))

	raw, err := a.Save()
	require.NoError(t, err)
	return a, raw
}

func TestNewDatabase_Options(t *testing.T) {
	_, err := NewDatabase(context.Background(), nil)
	assert.Error(t, err)
	_, err = NewDatabase(context.Background(), &DatabaseOptions{})
	assert.Error(t, err)

	db := openTestDB(t)
	tables, err := db.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"archives", "entries"}, tables)

	cols, err := db.TableSchema(context.Background(), "entries")
	require.NoError(t, err)
	assert.Equal(t, "archive_id", cols[0].Name)
	assert.True(t, cols[0].PrimaryKey)

	_, err = db.TableSchema(context.Background(), "missing")
	assert.Error(t, err)

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
	_, err = db.Exec(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrClosed)

	ctx := context.Background()
	_, err = db.Archive(ctx, "data/msg.bin")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.Entries(ctx, "data/msg.bin")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.Diff(ctx, "data/msg.bin", nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.Archives(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.FindDigest(ctx, "00")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.Tables(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.RecordArchive(ctx, ArchiveRecord{Path: "data/msg.bin"}, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDescribe(t *testing.T) {
	a, raw := testArchive(t)

	rec, entries, err := Describe("data/msg.bin", raw, a, view.DefaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, len(raw), rec.Size)
	assert.Equal(t, "offset-size", rec.Schema)
	assert.Equal(t, 2, rec.Entries)

	require.Len(t, entries, 2)
	assert.Equal(t, "strings", entries[0].Name)
	assert.Equal(t, "text", entries[0].Kind)
	assert.Equal(t, "raw", entries[1].Kind)
	assert.Positive(t, entries[1].Backrefs)
	e1, _ := a.Get(1)
	assert.Equal(t, e1.Offset, entries[1].Offset)
	assert.Equal(t, e1.Digest(), entries[1].Digest)
}

func TestRecordArchive_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a, raw := testArchive(t)

	rec, entries, err := Describe("data/msg.bin", raw, a, view.DefaultRegistry())
	require.NoError(t, err)

	id, err := db.RecordArchive(ctx, rec, entries)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := db.Archive(ctx, "data/msg.bin")
	require.NoError(t, err)
	assert.Equal(t, rec.Digest, got.Digest)
	assert.Equal(t, 2, got.Entries)
	assert.WithinDuration(t, rec.CatalogedAt, got.CatalogedAt, 1e9)

	stored, err := db.Entries(ctx, "data/msg.bin")
	require.NoError(t, err)
	assert.Equal(t, entries, stored)

	// Re-cataloging replaces the old rows.
	_, err = db.RecordArchive(ctx, rec, entries[:1])
	require.NoError(t, err)
	stored, err = db.Entries(ctx, "data/msg.bin")
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	all, err := db.Archives(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFindDigestAndDiff(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	a, raw := testArchive(t)

	for _, path := range []string{"a.bin", "b.bin"} {
		rec, entries, err := Describe(path, raw, a, view.DefaultRegistry())
		require.NoError(t, err)
		_, err = db.RecordArchive(ctx, rec, entries)
		require.NoError(t, err)
	}

	e0, _ := a.Get(0)
	locs, err := db.FindDigest(ctx, e0.Digest())
	require.NoError(t, err)
	assert.Equal(t, []Location{
		{Path: "a.bin", Index: 0, Name: "strings"},
		{Path: "b.bin", Index: 0, Name: "strings"},
	}, locs)

	require.NoError(t, a.Replace(1, []byte("edited")))
	a.AddEntry("new", []byte("appended"))
	raw, err = a.Save()
	require.NoError(t, err)
	_, current, err := Describe("a.bin", raw, a, view.DefaultRegistry())
	require.NoError(t, err)

	changes, err := db.Diff(ctx, "a.bin", current)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, 1, changes[0].Index)
	assert.NotEmpty(t, changes[0].Before)
	assert.Equal(t, 2, changes[1].Index)
	assert.Empty(t, changes[1].Before)

	_, err = db.Diff(ctx, "c.bin", current)
	assert.ErrorIs(t, err, ErrNotCataloged)
}
