package view

import (
	"bytes"

	"github.com/jchantrell/shadearc/internal/reloc"
)

// Raw exposes an entry as plain bytes. Callers that know where pointers sit
// in the content pass their slots to Splice.
type Raw struct {
	src Source
}

// OpenRaw wraps any source.
func OpenRaw(src Source) *Raw {
	return &Raw{src: src}
}

func (r *Raw) Kind() Kind { return KindRaw }

// Bytes returns a copy of the content.
func (r *Raw) Bytes() []byte {
	return bytes.Clone(r.src.Data)
}

// Splice replaces oldLen bytes at start with repl padded to a word and
// returns the edit that shifts slots past start.
func (r *Raw) Splice(start, oldLen int, repl []byte, slots []int) (Edit, error) {
	out, delta, err := reloc.Splice(r.src.Data, start, oldLen, repl)
	if err != nil {
		return Edit{}, err
	}
	return Edit{
		Data:      out,
		EditPoint: start,
		Delta:     delta,
		Slots:     slots,
	}, nil
}
