// Package reloc keeps absolute pointers inside a decoded file consistent
// after an edit changes the file's length.
//
// Files store 32-bit little-endian offsets that address other locations in
// the same file. When a region grows or shrinks, every stored offset past the
// start of that region moves by the same amount. Callers name the slots
// holding such offsets; the package never guesses.
package reloc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/jchantrell/shadearc/internal/archive"
)

// WordSize is the width of a pointer slot and the alignment of in-file
// strings and tables.
const WordSize = 4

// ErrInvalidRelocation is returned when an edit point or slot lies outside
// the buffer, or when shifting would push a pointer out of the 32-bit range.
var ErrInvalidRelocation = errors.New("reloc: invalid relocation")

// Apply shifts every pointer stored at slots that is greater than editPoint
// by delta. Slots are byte positions of little-endian words in data. Nothing
// is written unless every slot can be shifted.
func Apply(data []byte, editPoint, delta int, slots []int) error {
	if editPoint < 0 || editPoint > len(data) {
		return fmt.Errorf("%w: edit point 0x%X outside buffer of 0x%X bytes", ErrInvalidRelocation, editPoint, len(data))
	}

	slots = unique(slots)
	values := make([]uint32, len(slots))
	for i, s := range slots {
		if s < 0 || s+WordSize > len(data) {
			return fmt.Errorf("%w: slot 0x%X outside buffer of 0x%X bytes", ErrInvalidRelocation, s, len(data))
		}
		v := int64(binary.LittleEndian.Uint32(data[s:]))
		if v > int64(editPoint) {
			v += int64(delta)
		}
		if v < 0 || v > math.MaxUint32 {
			return fmt.Errorf("%w: slot 0x%X would hold %d after shifting by %d", ErrInvalidRelocation, s, v, delta)
		}
		values[i] = uint32(v)
	}

	for i, s := range slots {
		binary.LittleEndian.PutUint32(data[s:], values[i])
	}
	return nil
}

// EndPointerSlots returns the slots of the end-pointer convention in data.
// Word 0 addresses the end-pointer table: a count followed by that many
// positions of pointer slots. The result holds word 0, every table entry and
// every slot the table names.
//
// data is the edited buffer whose pointers have not been shifted yet, so the
// addresses read from it are translated by (editPoint, delta) first.
func EndPointerSlots(data []byte, editPoint, delta int) ([]int, error) {
	if len(data) < WordSize {
		return nil, fmt.Errorf("%w: 0x%X bytes cannot hold an end-pointer table pointer", ErrInvalidRelocation, len(data))
	}

	moved := func(p int) int {
		if p > editPoint {
			return p + delta
		}
		return p
	}
	word := func(p int, what string) (int, error) {
		if p < 0 || p+WordSize > len(data) {
			return 0, fmt.Errorf("%w: %s at 0x%X outside buffer of 0x%X bytes", ErrInvalidRelocation, what, p, len(data))
		}
		return int(binary.LittleEndian.Uint32(data[p:])), nil
	}

	tablePtr, err := word(0, "end-pointer table pointer")
	if err != nil {
		return nil, err
	}
	table := moved(tablePtr)
	count, err := word(table, "end-pointer table")
	if err != nil {
		return nil, err
	}
	if count > (len(data)-table)/WordSize {
		return nil, fmt.Errorf("%w: end-pointer table at 0x%X claims %d entries", ErrInvalidRelocation, table, count)
	}

	slots := make([]int, 0, 1+2*count)
	slots = append(slots, 0)
	for i := 0; i < count; i++ {
		entry := table + WordSize*(i+1)
		target, err := word(entry, "end-pointer table entry")
		if err != nil {
			return nil, err
		}
		end := moved(target)
		if _, err := word(end, "end pointer"); err != nil {
			return nil, err
		}
		slots = append(slots, entry, end)
	}
	return slots, nil
}

// Option changes how an entry is shifted.
type Option func(*options)

type options struct {
	endPointers bool
}

// WithEndPointers also shifts the slots returned by EndPointerSlots.
func WithEndPointers() Option {
	return func(o *options) {
		o.endPointers = true
	}
}

// ShiftEntry shifts the pointers of an entry whose data was already edited
// in place.
func ShiftEntry(e *archive.Entry, editPoint, delta int, slots []int, opts ...Option) error {
	return Commit(e, e.Data, editPoint, delta, slots, opts...)
}

// Commit shifts the pointers of an edited copy of an entry's data and stores
// it in the entry. On error the entry is left untouched.
func Commit(e *archive.Entry, edited []byte, editPoint, delta int, slots []int, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	buf := bytes.Clone(edited)
	if o.endPointers {
		global, err := EndPointerSlots(buf, editPoint, delta)
		if err != nil {
			return fmt.Errorf("entry %d: %w", e.Index, err)
		}
		slots = append(global, slots...)
	}
	if err := Apply(buf, editPoint, delta, slots); err != nil {
		return fmt.Errorf("entry %d: %w", e.Index, err)
	}

	e.SetData(buf)
	return nil
}

// Splice replaces data[start:start+oldLen] with repl padded to WordSize and
// returns the new buffer along with the change in length.
func Splice(data []byte, start, oldLen int, repl []byte) ([]byte, int, error) {
	if start < 0 || oldLen < 0 || start+oldLen > len(data) {
		return nil, 0, fmt.Errorf("%w: region 0x%X+0x%X outside buffer of 0x%X bytes", ErrInvalidRelocation, start, oldLen, len(data))
	}

	repl = AlignWord(bytes.Clone(repl))
	out := make([]byte, 0, len(data)-oldLen+len(repl))
	out = append(out, data[:start]...)
	out = append(out, repl...)
	out = append(out, data[start+oldLen:]...)
	return out, len(repl) - oldLen, nil
}

// AlignWord pads b with zeros to a multiple of WordSize.
func AlignWord(b []byte) []byte {
	if rem := len(b) % WordSize; rem != 0 {
		b = append(b, make([]byte, WordSize-rem)...)
	}
	return b
}

func unique(slots []int) []int {
	out := slices.Clone(slots)
	slices.Sort(out)
	return slices.Compact(out)
}
