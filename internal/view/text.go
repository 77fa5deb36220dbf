package view

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/japanese"

	"github.com/jchantrell/shadearc/internal/reloc"
	"github.com/jchantrell/shadearc/internal/shade"
)

// String tables share one layout:
//
//	u32 pointer to the end-pointer table
//	u32 string count
//	count × u32 string pointers
//	NUL-terminated Shift-JIS strings, each padded to a word
//	end-pointer table: u32 count, then the position of every string pointer
//
// The file is zero-padded to the payload alignment.
const textHeaderSize = 8

// ErrMalformedText is returned when a string table fails to parse.
var ErrMalformedText = errors.New("view: malformed string table")

// Text is a parsed string table.
type Text struct {
	src     Source
	entries []textString
	end     int // end of the end-pointer table
}

type textString struct {
	start int
	size  int // padded size, terminator included
	raw   []byte
}

// OpenText parses a string table.
func OpenText(src Source) (*Text, error) {
	t, err := parseText(src)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", src.Index, err)
	}
	return t, nil
}

// IsText reports whether src holds a well-formed string table.
func IsText(src Source) bool {
	_, err := parseText(src)
	return err == nil
}

func parseText(src Source) (*Text, error) {
	data := src.Data
	if len(data) < textHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedText, len(data))
	}

	le := binary.LittleEndian
	tablePtr := int(le.Uint32(data))
	count := int(le.Uint32(data[4:]))
	first := textHeaderSize + reloc.WordSize*count
	if count > len(data)/reloc.WordSize || first > len(data) {
		return nil, fmt.Errorf("%w: %d strings do not fit in %d bytes", ErrMalformedText, count, len(data))
	}

	t := &Text{src: src, entries: make([]textString, count)}
	next := first
	for i := range t.entries {
		start := int(le.Uint32(data[textHeaderSize+reloc.WordSize*i:]))
		if start != next {
			return nil, fmt.Errorf("%w: string %d at 0x%X, expected 0x%X", ErrMalformedText, i, start, next)
		}
		n := bytes.IndexByte(data[start:], 0)
		if n < 0 {
			return nil, fmt.Errorf("%w: string %d is not terminated", ErrMalformedText, i)
		}
		size := len(reloc.AlignWord(make([]byte, n+1)))
		if start+size > len(data) {
			return nil, fmt.Errorf("%w: string %d runs past the end", ErrMalformedText, i)
		}
		t.entries[i] = textString{start: start, size: size, raw: data[start : start+n]}
		next = start + size
	}

	if tablePtr != next {
		return nil, fmt.Errorf("%w: end-pointer table at 0x%X, expected 0x%X", ErrMalformedText, tablePtr, next)
	}
	if tablePtr+reloc.WordSize*(count+1) > len(data) {
		return nil, fmt.Errorf("%w: end-pointer table runs past the end", ErrMalformedText)
	}
	if n := int(le.Uint32(data[tablePtr:])); n != count {
		return nil, fmt.Errorf("%w: end-pointer table lists %d slots for %d strings", ErrMalformedText, n, count)
	}
	for i := 0; i < count; i++ {
		slot := int(le.Uint32(data[tablePtr+reloc.WordSize*(i+1):]))
		if want := textHeaderSize + reloc.WordSize*i; slot != want {
			return nil, fmt.Errorf("%w: end pointer %d names 0x%X, expected 0x%X", ErrMalformedText, i, slot, want)
		}
	}
	t.end = tablePtr + reloc.WordSize*(count+1)

	return t, nil
}

func (t *Text) Kind() Kind { return KindText }

// Len returns the number of strings.
func (t *Text) Len() int {
	return len(t.entries)
}

// String decodes string i.
func (t *Text) String(i int) (string, error) {
	if i < 0 || i >= len(t.entries) {
		return "", fmt.Errorf("string %d out of range (table has %d)", i, len(t.entries))
	}
	s, err := japanese.ShiftJIS.NewDecoder().Bytes(t.entries[i].raw)
	if err != nil {
		return "", fmt.Errorf("decoding string %d: %w", i, err)
	}
	return string(s), nil
}

// Strings decodes every string.
func (t *Text) Strings() ([]string, error) {
	out := make([]string, len(t.entries))
	for i := range t.entries {
		s, err := t.String(i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// Set returns the edit that replaces string i with s. The view itself is
// not changed; reopen the entry after applying the edit.
func (t *Text) Set(i int, s string) (Edit, error) {
	if i < 0 || i >= len(t.entries) {
		return Edit{}, fmt.Errorf("string %d out of range (table has %d)", i, len(t.entries))
	}
	enc, err := encodeString(s)
	if err != nil {
		return Edit{}, fmt.Errorf("string %d: %w", i, err)
	}

	cur := t.entries[i]
	out, delta, err := reloc.Splice(t.src.Data, cur.start, cur.size, append(enc, 0))
	if err != nil {
		return Edit{}, err
	}

	// Drop the old alignment padding so the relocated file pads afresh.
	return Edit{
		Data:        out[:t.end+delta],
		EditPoint:   cur.start,
		Delta:       delta,
		EndPointers: true,
	}, nil
}

// BuildText lays out a new string table.
func BuildText(strs []string) ([]byte, error) {
	le := binary.LittleEndian
	count := len(strs)

	body := make([]byte, 0, 16*count)
	pointers := make([]uint32, count)
	base := textHeaderSize + reloc.WordSize*count
	for i, s := range strs {
		enc, err := encodeString(s)
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", i, err)
		}
		pointers[i] = uint32(base + len(body))
		body = append(body, reloc.AlignWord(append(enc, 0))...)
	}

	tablePtr := base + len(body)
	out := make([]byte, 0, tablePtr+reloc.WordSize*(count+1))
	out = le.AppendUint32(out, uint32(tablePtr))
	out = le.AppendUint32(out, uint32(count))
	for _, p := range pointers {
		out = le.AppendUint32(out, p)
	}
	out = append(out, body...)
	out = le.AppendUint32(out, uint32(count))
	for i := 0; i < count; i++ {
		out = le.AppendUint32(out, uint32(textHeaderSize+reloc.WordSize*i))
	}
	return shade.Pad(out), nil
}

func encodeString(s string) ([]byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, fmt.Errorf("%w: string contains NUL", ErrMalformedText)
	}
	enc, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encoding %q as Shift-JIS: %w", s, err)
	}
	return enc, nil
}
