package config

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/shadearc/internal/archive"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "offset-size", cfg.Layout.Schema)
	assert.Equal(t, 1, cfg.Layout.Alignment)
	assert.Equal(t, "little", cfg.Layout.Endian)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, filepath.Join(dir, ".shadearc", "catalog.db"), cfg.Database)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, runtime.NumCPU(), cfg.WorkerCount())

	layout, err := cfg.ArchiveLayout()
	require.NoError(t, err)
	assert.Equal(t, archive.DefaultLayout(), layout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
layout:
  schema: offset-list
  alignment: 16
  endian: big
workers: 3
names: names.yaml
log_level: debug
log_format: json
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.WorkerCount())
	assert.Equal(t, "names.yaml", cfg.Names)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)

	layout, err := cfg.ArchiveLayout()
	require.NoError(t, err)
	assert.Equal(t, archive.SchemaOffsetList, layout.Schema)
	assert.Equal(t, 16, layout.Alignment)
	assert.Equal(t, binary.BigEndian, layout.ByteOrder)
}

func TestLoad_Environment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	t.Setenv("SHADEARC_WORKERS", "5")
	t.Setenv("SHADEARC_LAYOUT_SCHEMA", "offset-list")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, "offset-list", cfg.Layout.Schema)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown schema":    "layout:\n  schema: fat\n",
		"zero alignment":    "layout:\n  alignment: 0\n",
		"odd alignment":     "layout:\n  alignment: 12\n",
		"unknown endian":    "layout:\n  endian: middle\n",
		"negative workers":  "workers: -2\n",
		"unknown log level": "log_level: loud\n",
		"unknown format":    "log_format: xml\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "shadearc.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
