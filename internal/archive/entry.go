package archive

import (
	"bytes"
	"encoding/hex"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/jchantrell/shadearc/internal/shade"
)

// Entry is one file stored in an archive.
//
// While an entry is clean, Data is the decoded form of Compressed. Once Data
// is edited the entry is dirty and Compressed is stale until the next Save.
type Entry struct {
	// Index is the entry's position in the archive. Game code addresses
	// files by this number.
	Index int

	// Name is optional and only known when a name table was applied.
	Name string

	// Offset is the absolute position of Compressed in the serialized
	// archive as of the last Load or Save.
	Offset int

	// Compressed holds the stored Shade stream.
	Compressed []byte

	// Data is the decoded working buffer, padded to shade.Alignment.
	Data []byte

	dirty bool
}

// Dirty reports whether Data changed since the entry was last encoded.
func (e *Entry) Dirty() bool {
	return e.dirty
}

// MarkDirty flags Data as edited in place.
func (e *Entry) MarkDirty() {
	e.dirty = true
}

// SetData replaces the entry's content. The buffer is copied and padded to
// the payload alignment.
func (e *Entry) SetData(data []byte) {
	e.Data = shade.Pad(bytes.Clone(data))
	if e.Data == nil {
		e.Data = []byte{}
	}
	e.dirty = true
}

// Label returns the entry name, or its index when unnamed.
func (e *Entry) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return strconv.Itoa(e.Index)
}

// Digest returns the BLAKE3 digest of the entry's decoded data.
func (e *Entry) Digest() string {
	return Digest(e.Data)
}

// Digest returns the hex BLAKE3-256 digest of b.
func Digest(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
