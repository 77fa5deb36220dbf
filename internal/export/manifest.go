package export

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/jchantrell/shadearc/internal/archive"
)

// ManifestName is the file describing an unpacked archive.
const ManifestName = "manifest.yaml"

// Manifest records how an archive was laid out and which file holds each
// entry, so the directory can be packed back.
type Manifest struct {
	Schema    string          `yaml:"schema"`
	Alignment int             `yaml:"alignment"`
	Endian    string          `yaml:"endian"`
	Entries   []ManifestEntry `yaml:"entries"`
}

// ManifestEntry describes one unpacked entry. When Strings is set the entry
// is rebuilt from that YAML list instead of File.
type ManifestEntry struct {
	Index   int    `yaml:"index"`
	Name    string `yaml:"name,omitempty"`
	File    string `yaml:"file"`
	Kind    string `yaml:"kind"`
	Strings string `yaml:"strings,omitempty"`
	Digest  string `yaml:"digest"`
}

func manifestFor(layout archive.Layout) *Manifest {
	endian := "little"
	if layout.ByteOrder == binary.BigEndian {
		endian = "big"
	}
	return &Manifest{
		Schema:    layout.Schema.String(),
		Alignment: layout.Alignment,
		Endian:    endian,
	}
}

// Layout converts the manifest's layout fields.
func (m *Manifest) Layout() (archive.Layout, error) {
	schema, err := archive.ParseSchema(m.Schema)
	if err != nil {
		return archive.Layout{}, err
	}
	var order binary.ByteOrder = binary.LittleEndian
	switch m.Endian {
	case "", "little":
	case "big":
		order = binary.BigEndian
	default:
		return archive.Layout{}, fmt.Errorf("unsupported endian %q", m.Endian)
	}
	alignment := m.Alignment
	if alignment < 1 {
		alignment = 1
	}
	return archive.Layout{Schema: schema, Alignment: alignment, ByteOrder: order}, nil
}

// validate checks that indices run densely from zero.
func (m *Manifest) validate() error {
	slices.SortFunc(m.Entries, func(a, b ManifestEntry) int { return a.Index - b.Index })
	for i, e := range m.Entries {
		if e.Index != i {
			return fmt.Errorf("manifest lists entry %d where %d was expected", e.Index, i)
		}
		if e.File == "" && e.Strings == "" {
			return fmt.Errorf("manifest entry %d names no file", e.Index)
		}
	}
	return nil
}

// ReadManifest loads the manifest of an unpacked directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteManifest stores m in dir.
func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
