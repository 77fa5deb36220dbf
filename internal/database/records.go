package database

import (
	"fmt"
	"time"

	"github.com/jchantrell/shadearc/internal/archive"
	"github.com/jchantrell/shadearc/internal/shade"
	"github.com/jchantrell/shadearc/internal/view"
)

// ArchiveRecord is one cataloged archive file
type ArchiveRecord struct {
	ID          int64
	Path        string
	Size        int
	Digest      string
	Schema      string
	Alignment   int
	Entries     int
	CatalogedAt time.Time
}

// EntryRecord is one cataloged entry. Digest covers the decoded data so a
// re-encoded but unchanged entry keeps its digest.
type EntryRecord struct {
	Index          int
	Name           string
	Offset         int
	CompressedSize int
	DecodedSize    int
	Digest         string
	Kind           string
	Literals       int
	Runs           int
	Backrefs       int
}

// Describe builds the catalog records for a loaded archive. raw is the
// archive file as read from disk.
func Describe(path string, raw []byte, a *archive.Archive, reg *view.Registry) (ArchiveRecord, []EntryRecord, error) {
	layout := a.Layout()
	rec := ArchiveRecord{
		Path:        path,
		Size:        len(raw),
		Digest:      archive.Digest(raw),
		Schema:      layout.Schema.String(),
		Alignment:   layout.Alignment,
		Entries:     a.Len(),
		CatalogedAt: time.Now().UTC(),
	}

	entries := make([]EntryRecord, 0, a.Len())
	for _, e := range a.Entries() {
		st, err := shade.Inspect(e.Compressed)
		if err != nil {
			return ArchiveRecord{}, nil, fmt.Errorf("inspecting entry %d: %w", e.Index, err)
		}
		entries = append(entries, EntryRecord{
			Index:          e.Index,
			Name:           e.Name,
			Offset:         e.Offset,
			CompressedSize: len(e.Compressed),
			DecodedSize:    len(e.Data),
			Digest:         e.Digest(),
			Kind:           reg.Detect(view.SourceOf(e)).String(),
			Literals:       st.Literals,
			Runs:           st.Runs,
			Backrefs:       st.Backrefs,
		})
	}
	return rec, entries, nil
}
