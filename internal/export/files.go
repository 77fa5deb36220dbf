// Package export moves archive entries between an archive and a directory
// of plain files described by a manifest.
package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jchantrell/shadearc/internal/archive"
	"github.com/jchantrell/shadearc/internal/view"
)

// ProgressCallback is called to report progress
type ProgressCallback func(current int, total int, description string)

// Exporter writes archive entries to disk
type Exporter struct {
	registry  *view.Registry
	outputDir string
	strings   bool
}

// NewExporter creates an exporter writing into outputDir. With strings set,
// string tables are also written as editable YAML lists.
func NewExporter(registry *view.Registry, outputDir string, strings bool) *Exporter {
	return &Exporter{
		registry:  registry,
		outputDir: outputDir,
		strings:   strings,
	}
}

// Unpack writes every entry's decoded data and the manifest
func (e *Exporter) Unpack(a *archive.Archive, progressCallback ProgressCallback) (*Manifest, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	m := manifestFor(a.Layout())
	total := a.Len()
	for _, entry := range a.Entries() {
		me, err := e.unpackEntry(entry)
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, me)

		if progressCallback != nil {
			progressCallback(entry.Index+1, total, me.File)
		}
	}

	if err := WriteManifest(e.outputDir, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (e *Exporter) unpackEntry(entry *archive.Entry) (ManifestEntry, error) {
	src := view.SourceOf(entry)
	kind := e.registry.Detect(src)
	base := fileBase(entry)

	me := ManifestEntry{
		Index:  entry.Index,
		Name:   entry.Name,
		File:   base + ".bin",
		Kind:   kind.String(),
		Digest: entry.Digest(),
	}

	outputPath := filepath.Join(e.outputDir, me.File)
	if err := os.WriteFile(outputPath, entry.Data, 0644); err != nil {
		return ManifestEntry{}, fmt.Errorf("writing file %s: %w", outputPath, err)
	}
	slog.Debug("Wrote entry", "index", entry.Index, "kind", me.Kind, "output", outputPath)

	if e.strings && kind == view.KindText {
		v, err := e.registry.Open(kind, src)
		if err != nil {
			return ManifestEntry{}, err
		}
		strs, err := v.(*view.Text).Strings()
		if err != nil {
			return ManifestEntry{}, fmt.Errorf("entry %d: %w", entry.Index, err)
		}
		data, err := yaml.Marshal(strs)
		if err != nil {
			return ManifestEntry{}, fmt.Errorf("encoding strings of entry %d: %w", entry.Index, err)
		}
		me.Strings = base + ".yaml"
		if err := os.WriteFile(filepath.Join(e.outputDir, me.Strings), data, 0644); err != nil {
			return ManifestEntry{}, fmt.Errorf("writing strings of entry %d: %w", entry.Index, err)
		}
	}

	return me, nil
}

// PackResult describes a packed archive
type PackResult struct {
	Archive *archive.Archive

	// Changed lists entries whose content differs from the manifest digest.
	Changed []int
}

// Pack builds an archive from an unpacked directory. The layout comes from
// the manifest; opts may add options such as a worker count.
func Pack(dir string, progressCallback ProgressCallback, opts ...archive.LoadOption) (*PackResult, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	layout, err := m.Layout()
	if err != nil {
		return nil, fmt.Errorf("manifest layout: %w", err)
	}

	a := archive.New(append([]archive.LoadOption{archive.WithLayout(layout)}, opts...)...)
	res := &PackResult{Archive: a}
	for i, me := range m.Entries {
		data, err := readEntry(dir, me)
		if err != nil {
			return nil, err
		}
		entry := a.AddEntry(me.Name, data)
		if me.Digest != "" && entry.Digest() != me.Digest {
			res.Changed = append(res.Changed, entry.Index)
			slog.Debug("Entry changed since unpack", "index", entry.Index, "name", me.Name)
		}

		if progressCallback != nil {
			progressCallback(i+1, len(m.Entries), me.File)
		}
	}
	return res, nil
}

func readEntry(dir string, me ManifestEntry) ([]byte, error) {
	if me.Strings != "" {
		raw, err := os.ReadFile(filepath.Join(dir, me.Strings))
		if err != nil {
			return nil, fmt.Errorf("reading strings of entry %d: %w", me.Index, err)
		}
		var strs []string
		if err := yaml.Unmarshal(raw, &strs); err != nil {
			return nil, fmt.Errorf("parsing strings of entry %d: %w", me.Index, err)
		}
		data, err := view.BuildText(strs)
		if err != nil {
			return nil, fmt.Errorf("building string table %d: %w", me.Index, err)
		}
		return data, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, me.File))
	if err != nil {
		return nil, fmt.Errorf("reading entry %d: %w", me.Index, err)
	}
	return data, nil
}

// fileBase names an entry's files: its index, then its sanitized name.
func fileBase(entry *archive.Entry) string {
	base := fmt.Sprintf("%04d", entry.Index)
	if entry.Name != "" {
		base += "_" + sanitizePath(entry.Name)
	}
	return base
}

// sanitizePath makes an entry name safe to use as a filename
func sanitizePath(name string) string {
	var b bytes.Buffer
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte('@')
		case r < 0x20 || strings.ContainsRune(`:*?"<>|`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
