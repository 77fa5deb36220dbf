package export

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jchantrell/shadearc/internal/archive"
	"github.com/jchantrell/shadearc/internal/view"
)

func sampleArchive(t *testing.T, layout archive.Layout) *archive.Archive {
	t.Helper()
	a := archive.New(archive.WithLayout(layout))
	a.AddEntry("title/logo", bytes.Repeat([]byte{0x10, 0x20, 0x30, 0x40}, 64))
	script, err := view.BuildText([]string{"こんにちは", "Shade"})
	require.NoError(t, err)
	a.AddEntry("script", script)
	a.AddEntry("", []byte("unnamed"))

	buf, err := a.Save()
	require.NoError(t, err)
	loaded, err := archive.Load(buf, archive.WithLayout(layout))
	require.NoError(t, err)
	loaded.ApplyNames(a.Names())
	return loaded
}

func TestUnpackPackRoundTrip(t *testing.T) {
	layout := archive.Layout{Schema: archive.SchemaOffsetList, Alignment: 16, ByteOrder: binary.BigEndian}
	a := sampleArchive(t, layout)
	dir := t.TempDir()

	var calls int
	m, err := NewExporter(view.DefaultRegistry(), dir, true).Unpack(a, func(current, total int, _ string) {
		calls++
		assert.Equal(t, calls, current)
		assert.Equal(t, 3, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	assert.Equal(t, "offset-list", m.Schema)
	assert.Equal(t, 16, m.Alignment)
	assert.Equal(t, "big", m.Endian)
	require.Len(t, m.Entries, 3)
	assert.Equal(t, "0000_title@logo.bin", m.Entries[0].File)
	assert.Equal(t, "raw", m.Entries[0].Kind)
	assert.Equal(t, "text", m.Entries[1].Kind)
	assert.Equal(t, "0001_script.yaml", m.Entries[1].Strings)
	assert.Equal(t, "0002.bin", m.Entries[2].File)

	for _, e := range m.Entries {
		assert.FileExists(t, filepath.Join(dir, e.File))
	}
	assert.FileExists(t, filepath.Join(dir, ManifestName))

	res, err := Pack(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.Equal(t, layout, res.Archive.Layout())

	original, err := a.Save()
	require.NoError(t, err)
	packed, err := res.Archive.Save()
	require.NoError(t, err)
	assert.Equal(t, original, packed)
}

func TestPack_EditedStrings(t *testing.T) {
	a := sampleArchive(t, archive.DefaultLayout())
	dir := t.TempDir()

	m, err := NewExporter(view.DefaultRegistry(), dir, true).Unpack(a, nil)
	require.NoError(t, err)

	edited, err := yaml.Marshal([]string{"こんばんは", "Shade", "new line"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, m.Entries[1].Strings), edited, 0644))

	res, err := Pack(dir, nil, archive.WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Changed)

	e, ok := res.Archive.Lookup("script")
	require.True(t, ok)
	txt, err := view.OpenText(view.SourceOf(e))
	require.NoError(t, err)
	got, err := txt.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"こんばんは", "Shade", "new line"}, got)
}

func TestPack_EditedBinary(t *testing.T) {
	a := sampleArchive(t, archive.DefaultLayout())
	dir := t.TempDir()

	m, err := NewExporter(view.DefaultRegistry(), dir, false).Unpack(a, nil)
	require.NoError(t, err)
	assert.Empty(t, m.Entries[1].Strings)

	require.NoError(t, os.WriteFile(filepath.Join(dir, m.Entries[2].File), []byte("replaced"), 0644))

	res, err := Pack(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.Changed)

	e, ok := res.Archive.Get(2)
	require.True(t, ok)
	assert.Equal(t, "replaced", string(e.Data[:8]))
}

func TestReadManifest_Invalid(t *testing.T) {
	tests := map[string]string{
		"gap in indices": "schema: offset-size\nentries:\n  - {index: 0, file: a.bin}\n  - {index: 2, file: b.bin}\n",
		"no file":        "schema: offset-size\nentries:\n  - {index: 0}\n",
		"not yaml":       "entries: [",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(body), 0644))
			_, err := ReadManifest(dir)
			assert.Error(t, err)
		})
	}

	_, err := ReadManifest(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestManifest_Layout(t *testing.T) {
	m := &Manifest{Schema: "offset-size"}
	layout, err := m.Layout()
	require.NoError(t, err)
	assert.Equal(t, archive.DefaultLayout(), layout)

	_, err = (&Manifest{Schema: "offset-size", Endian: "middle"}).Layout()
	assert.Error(t, err)
	_, err = (&Manifest{Schema: "tree"}).Layout()
	assert.Error(t, err)
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "map@field01", sanitizePath("map/field01"))
	assert.Equal(t, "a_b_c", sanitizePath("a:b?c"))
	assert.Equal(t, "タイトル", sanitizePath("タイトル"))
}
