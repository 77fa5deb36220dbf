// Package archive reads and writes the game's packed file archives.
//
// An archive is a small header and file table followed by one Shade stream
// per entry. Entries are decoded eagerly on Load so consumers work on plain
// bytes, and re-encoded on Save when they were edited.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/jchantrell/shadearc/internal/shade"
)

// Archive is an ordered set of entries addressed by index. It is not safe for
// concurrent mutation.
type Archive struct {
	layout  Layout
	workers int
	entries []*Entry

	// removed is set when entries were dropped since the last Save, which
	// leaves the stored offsets stale without dirtying any entry.
	removed bool
}

// LoadOption configures Load.
type LoadOption func(*Archive)

// WithLayout sets the header and table layout. The default is DefaultLayout.
func WithLayout(l Layout) LoadOption {
	return func(a *Archive) {
		a.layout = l
	}
}

// WithWorkers bounds the number of entries decoded or encoded at once.
// Values below 1 use runtime.NumCPU.
func WithWorkers(n int) LoadOption {
	return func(a *Archive) {
		a.workers = n
	}
}

// New returns an empty archive.
func New(opts ...LoadOption) *Archive {
	a := &Archive{layout: DefaultLayout()}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers < 1 {
		a.workers = runtime.NumCPU()
	}
	return a
}

// Load parses an archive and decodes every entry.
func Load(buf []byte, opts ...LoadOption) (*Archive, error) {
	a := New(opts...)

	table, err := a.layout.readTable(buf)
	if err != nil {
		return nil, err
	}

	a.entries = make([]*Entry, len(table))
	for i, te := range table {
		a.entries[i] = &Entry{
			Index:      i,
			Offset:     te.offset,
			Compressed: bytes.Clone(buf[te.offset : te.offset+te.size]),
		}
	}

	var g errgroup.Group
	g.SetLimit(a.workers)
	for _, e := range a.entries {
		g.Go(func() error {
			data, err := shade.Decode(e.Compressed)
			if err != nil {
				return fmt.Errorf("decoding entry %d at 0x%X: %w", e.Index, e.Offset, err)
			}
			e.Data = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("Loaded archive",
		"entries", len(a.entries),
		"size", len(buf),
		"schema", a.layout.Schema,
		"workers", a.workers)

	return a, nil
}

// Layout returns the layout the archive is read and written with.
func (a *Archive) Layout() Layout {
	return a.layout
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries returns the entries in index order. The slice is a copy; the
// entries are shared.
func (a *Archive) Entries() []*Entry {
	out := make([]*Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Get returns the entry at index i.
func (a *Archive) Get(i int) (*Entry, bool) {
	if i < 0 || i >= len(a.entries) {
		return nil, false
	}
	return a.entries[i], true
}

// Lookup returns the first entry with the given name.
func (a *Archive) Lookup(name string) (*Entry, bool) {
	if name == "" {
		return nil, false
	}
	for _, e := range a.entries {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Resolve finds an entry by decimal index or, failing that, by name.
func (a *Archive) Resolve(ref string) (*Entry, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if e, ok := a.Get(i); ok {
			return e, nil
		}
		return nil, fmt.Errorf("%w: %d (archive has %d entries)", ErrUnknownIndex, i, len(a.entries))
	}
	if e, ok := a.Lookup(ref); ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownName, ref)
}

// AddEntry appends a new entry holding data.
func (a *Archive) AddEntry(name string, data []byte) *Entry {
	e := &Entry{Index: len(a.entries), Name: name}
	e.SetData(data)
	a.entries = append(a.entries, e)
	return e
}

// RemoveEntry deletes the entry at index i. Later entries move down by one
// so indices stay dense.
func (a *Archive) RemoveEntry(i int) error {
	if _, ok := a.Get(i); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownIndex, i)
	}
	a.entries = append(a.entries[:i], a.entries[i+1:]...)
	for j := i; j < len(a.entries); j++ {
		a.entries[j].Index = j
	}
	a.removed = true
	return nil
}

// Replace swaps the content of entry i.
func (a *Archive) Replace(i int, data []byte) error {
	e, ok := a.Get(i)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownIndex, i)
	}
	e.SetData(data)
	return nil
}

// Dirty reports whether the archive has unsaved edits, including removed
// entries.
func (a *Archive) Dirty() bool {
	if a.removed {
		return true
	}
	for _, e := range a.entries {
		if e.dirty || e.Compressed == nil {
			return true
		}
	}
	return false
}

// Save re-encodes edited entries and serializes the archive. Entries are
// clean and carry their new offsets afterwards. Saving an unchanged archive
// returns the same bytes every time.
func (a *Archive) Save() ([]byte, error) {
	compressed := make([][]byte, len(a.entries))
	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, e := range a.entries {
		if !e.dirty && e.Compressed != nil {
			compressed[i] = e.Compressed
			continue
		}
		g.Go(func() error {
			compressed[i] = shade.Encode(e.Data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	offsets, end := a.layout.place(compressed)
	size := a.layout.align(end)
	if int64(size) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}

	out := make([]byte, size)
	table := make([]tableEntry, len(a.entries))
	for i := range a.entries {
		table[i] = tableEntry{offset: offsets[i], size: len(compressed[i])}
		copy(out[offsets[i]:], compressed[i])
	}
	a.layout.writeTable(out, table, size)

	reencoded := 0
	for i, e := range a.entries {
		if e.dirty || e.Compressed == nil {
			reencoded++
		}
		e.Compressed = compressed[i]
		e.Offset = offsets[i]
		e.dirty = false
	}
	a.removed = false

	slog.Debug("Saved archive",
		"entries", len(a.entries),
		"reencoded", reencoded,
		"size", size)

	return out, nil
}

// RecalculateOffset returns the offset Save would assign to e, encoding any
// edited entry that precedes it.
func (a *Archive) RecalculateOffset(e *Entry) (int, error) {
	if cur, ok := a.Get(e.Index); !ok || cur != e {
		return 0, fmt.Errorf("%w: entry %d does not belong to this archive", ErrUnknownIndex, e.Index)
	}

	p := a.layout.FirstOffset(len(a.entries))
	for _, prev := range a.entries[:e.Index] {
		n := len(prev.Compressed)
		if prev.dirty || prev.Compressed == nil {
			n = len(shade.Encode(prev.Data))
		}
		p = a.layout.align(p + n)
	}
	return p, nil
}

// Verify checks a clean archive: every stored offset matches its recomputed
// value and every compressed payload still decodes to the entry's data.
func (a *Archive) Verify() error {
	if a.Dirty() {
		return fmt.Errorf("%w: save before verifying", ErrUnsavedEdits)
	}

	var errs []error
	p := a.layout.FirstOffset(len(a.entries))
	for _, e := range a.entries {
		if e.Offset != p {
			errs = append(errs, fmt.Errorf("%w: entry %d stored at 0x%X, expected 0x%X",
				ErrOffsetMismatch, e.Index, e.Offset, p))
		}
		p = a.layout.align(p + len(e.Compressed))

		data, err := shade.Decode(e.Compressed)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", e.Index, err))
			continue
		}
		if !bytes.Equal(data, e.Data) {
			errs = append(errs, fmt.Errorf("entry %d: payload decodes to %d bytes that differ from the working copy (%d bytes)",
				e.Index, len(data), len(e.Data)))
		}
	}
	return errors.Join(errs...)
}
