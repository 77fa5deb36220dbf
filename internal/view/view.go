// Package view turns decoded archive entries into typed, editable views.
//
// Entries are opaque byte buffers. A Registry maps each Kind to a predicate
// that recognises the format and a parser that opens it. Views never write to
// the entry directly: edits come back as an Edit that Apply relocates and
// stores.
package view

import (
	"errors"
	"fmt"

	"github.com/jchantrell/shadearc/internal/archive"
	"github.com/jchantrell/shadearc/internal/reloc"
)

var (
	// ErrKindMismatch is returned when a source does not hold the requested
	// kind of content.
	ErrKindMismatch = errors.New("view: content does not match kind")

	// ErrUnknownKind is returned for kinds with no registered parser.
	ErrUnknownKind = errors.New("view: unknown kind")
)

// Kind names a content format.
type Kind int

const (
	KindRaw Kind = iota
	KindText
)

var kindNames = map[Kind]string{
	KindRaw:  "raw",
	KindText: "text",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Source is what a parser receives about an entry.
type Source struct {
	Index  int
	Name   string
	Data   []byte
	Offset int
}

// SourceOf describes an entry for parsing. Data is shared with the entry.
func SourceOf(e *archive.Entry) Source {
	return Source{
		Index:  e.Index,
		Name:   e.Name,
		Data:   e.Data,
		Offset: e.Offset,
	}
}

// Edit is a view's finished change to an entry.
type Edit struct {
	// Data is the new content. Pointers in it still hold their pre-edit
	// values.
	Data []byte

	// EditPoint is the position where the content changed length and Delta
	// the change. Pointers greater than EditPoint move by Delta.
	EditPoint int
	Delta     int

	// Slots lists positions of pointers the view knows about.
	Slots []int

	// EndPointers marks content that follows the end-pointer table
	// convention, whose slots are shifted too.
	EndPointers bool
}

// Apply relocates ed and stores the result in e, marking it dirty.
func Apply(e *archive.Entry, ed Edit) error {
	var opts []reloc.Option
	if ed.EndPointers {
		opts = append(opts, reloc.WithEndPointers())
	}
	return reloc.Commit(e, ed.Data, ed.EditPoint, ed.Delta, ed.Slots, opts...)
}
