package view

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/shadearc/internal/archive"
	"github.com/jchantrell/shadearc/internal/reloc"
)

func textEntry(t *testing.T, strs ...string) *archive.Entry {
	t.Helper()
	data, err := BuildText(strs)
	require.NoError(t, err)
	e := &archive.Entry{Index: 4, Name: "dialogue"}
	e.SetData(data)
	return e
}

func TestBuildText_Layout(t *testing.T) {
	data, err := BuildText([]string{"ab", "cdef"})
	require.NoError(t, err)

	want := []byte{
		0x1C, 0, 0, 0, // end-pointer table
		0x02, 0, 0, 0, // count
		0x10, 0, 0, 0, // "ab"
		0x14, 0, 0, 0, // "cdef"
		'a', 'b', 0, 0,
		'c', 'd', 'e', 'f', 0, 0, 0, 0,
		0x02, 0, 0, 0, 0x08, 0, 0, 0, 0x0C, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	assert.Equal(t, want, data)
}

func TestText_Strings(t *testing.T) {
	strs := []string{"はじめまして", "", "Shade", "ＡＢＣ"}
	e := textEntry(t, strs...)

	txt, err := OpenText(SourceOf(e))
	require.NoError(t, err)
	assert.Equal(t, KindText, txt.Kind())
	assert.Equal(t, len(strs), txt.Len())

	got, err := txt.Strings()
	require.NoError(t, err)
	assert.Equal(t, strs, got)

	_, err = txt.String(4)
	assert.Error(t, err)
}

func TestText_SetGrowsAndRelocates(t *testing.T) {
	e := textEntry(t, "ab", "cdef", "ghij")

	txt, err := OpenText(SourceOf(e))
	require.NoError(t, err)

	ed, err := txt.Set(0, "abcdef")
	require.NoError(t, err)
	assert.Equal(t, 0x14, ed.EditPoint)
	assert.Equal(t, 4, ed.Delta)
	assert.True(t, ed.EndPointers)

	require.NoError(t, Apply(e, ed))
	assert.True(t, e.Dirty())

	txt, err = OpenText(SourceOf(e))
	require.NoError(t, err)
	got, err := txt.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"abcdef", "cdef", "ghij"}, got)
}

func TestText_SetShrinks(t *testing.T) {
	e := textEntry(t, "a rather long line", "tail")

	txt, err := OpenText(SourceOf(e))
	require.NoError(t, err)
	ed, err := txt.Set(0, "x")
	require.NoError(t, err)
	assert.Negative(t, ed.Delta)
	require.NoError(t, Apply(e, ed))

	txt, err = OpenText(SourceOf(e))
	require.NoError(t, err)
	got, err := txt.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "tail"}, got)
	assert.Zero(t, len(e.Data)%16)
}

func TestText_SetRejectsBadInput(t *testing.T) {
	e := textEntry(t, "one")
	txt, err := OpenText(SourceOf(e))
	require.NoError(t, err)

	_, err = txt.Set(1, "two")
	assert.Error(t, err)

	_, err = txt.Set(0, "nul\x00inside")
	assert.ErrorIs(t, err, ErrMalformedText)

	_, err = txt.Set(0, "emoji 😀")
	assert.Error(t, err)
}

func TestOpenText_Malformed(t *testing.T) {
	good, err := BuildText([]string{"ab", "cdef"})
	require.NoError(t, err)

	tests := map[string]func([]byte) []byte{
		"too short":           func(b []byte) []byte { return b[:4] },
		"count too large":     func(b []byte) []byte { binary.LittleEndian.PutUint32(b[4:], 1000); return b },
		"string pointer off":  func(b []byte) []byte { binary.LittleEndian.PutUint32(b[12:], 0x18); return b },
		"table pointer off":   func(b []byte) []byte { binary.LittleEndian.PutUint32(b, 0x20); return b },
		"table count differs": func(b []byte) []byte { binary.LittleEndian.PutUint32(b[0x1C:], 3); return b },
		"table slot differs":  func(b []byte) []byte { binary.LittleEndian.PutUint32(b[0x24:], 0x10); return b },
	}

	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			src := Source{Index: 9, Data: corrupt(bytes.Clone(good))}
			assert.False(t, IsText(src))
			_, err := OpenText(src)
			assert.ErrorIs(t, err, ErrMalformedText)
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []Kind{KindText, KindRaw}, reg.Kinds())

	text := SourceOf(textEntry(t, "menu", "options"))
	raw := Source{Index: 2, Data: bytes.Repeat([]byte{0xAB}, 32)}

	assert.Equal(t, KindText, reg.Detect(text))
	assert.Equal(t, KindRaw, reg.Detect(raw))

	v, err := reg.Open(KindText, text)
	require.NoError(t, err)
	assert.IsType(t, &Text{}, v)

	_, err = reg.Open(KindText, raw)
	assert.ErrorIs(t, err, ErrKindMismatch)

	v, err = reg.Open(KindRaw, text)
	require.NoError(t, err)
	assert.Equal(t, text.Data, v.(*Raw).Bytes())

	_, err = NewRegistry().Open(KindText, text)
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, KindRaw, NewRegistry().Detect(text))
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindRaw, KindText} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("sprite")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRaw_SpliceWithSlots(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint32(data[0:], 8)  // points at the region
	binary.LittleEndian.PutUint32(data[4:], 12) // points past it
	copy(data[8:], "wxyz")

	e := &archive.Entry{}
	e.SetData(data)

	ed, err := OpenRaw(SourceOf(e)).Splice(8, 4, []byte("longer"), []int{0, 4})
	require.NoError(t, err)
	assert.Equal(t, 4, ed.Delta)
	require.NoError(t, Apply(e, ed))

	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(e.Data[0:]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(e.Data[4:]))
	assert.Equal(t, "longer", string(e.Data[8:14]))

	_, err = OpenRaw(SourceOf(e)).Splice(30, 8, nil, nil)
	assert.ErrorIs(t, err, reloc.ErrInvalidRelocation)
}

func TestApply_FailureKeepsEntry(t *testing.T) {
	e := textEntry(t, "keep")
	before := bytes.Clone(e.Data)

	err := Apply(e, Edit{Data: e.Data, EditPoint: 4, Delta: 4, Slots: []int{1 << 20}})
	require.ErrorIs(t, err, reloc.ErrInvalidRelocation)
	assert.Equal(t, before, e.Data)
}

// Editing a string to a different length and back must reproduce the
// archive byte for byte.
func TestRelocationIdempotence(t *testing.T) {
	a := archive.New()
	a.AddEntry("logo", bytes.Repeat([]byte{0x11, 0x22, 0x33}, 100))
	script, err := BuildText([]string{"おはよう", "中間", "さようなら", "end"})
	require.NoError(t, err)
	a.AddEntry("script", script)
	a.AddEntry("tail", []byte("trailing entry"))

	original, err := a.Save()
	require.NoError(t, err)

	edit := func(buf []byte, s string) []byte {
		loaded, err := archive.Load(buf)
		require.NoError(t, err)
		e, ok := loaded.Get(1)
		require.True(t, ok)

		txt, err := OpenText(SourceOf(e))
		require.NoError(t, err)
		ed, err := txt.Set(1, s)
		require.NoError(t, err)
		require.NoError(t, Apply(e, ed))

		out, err := loaded.Save()
		require.NoError(t, err)
		require.NoError(t, loaded.Verify())
		return out
	}

	longer := edit(original, "a considerably longer replacement line")
	assert.NotEqual(t, original, longer)

	loaded, err := archive.Load(longer)
	require.NoError(t, err)
	e, _ := loaded.Get(1)
	txt, err := OpenText(SourceOf(e))
	require.NoError(t, err)
	got, err := txt.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"おはよう", "a considerably longer replacement line", "さようなら", "end"}, got)

	restored := edit(longer, "中間")
	assert.Equal(t, original, restored)
}
