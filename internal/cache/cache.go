package cache

import (
	"os"
	"path/filepath"
	"strings"
)

// Paths resolves where shadearc keeps its own files.
type Paths struct {
	root string
}

// Workspace returns the paths rooted at ~/.shadearc, or ./.shadearc when the
// home directory is unknown.
func Workspace() *Paths {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return &Paths{root: filepath.Join(".", ".shadearc")}
	}
	return &Paths{root: filepath.Join(homeDir, ".shadearc")}
}

// At returns paths rooted at dir.
func At(dir string) *Paths {
	return &Paths{root: dir}
}

// Dir returns the workspace root
func (p *Paths) Dir() string {
	return p.root
}

// CatalogPath returns the default catalog database
func (p *Paths) CatalogPath() string {
	return filepath.Join(p.root, "catalog.db")
}

// UnpackDir returns the default extraction directory for an archive, named
// after the archive file.
func (p *Paths) UnpackDir(archivePath string) string {
	base := filepath.Base(archivePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, " ", "_")
	return filepath.Join(p.root, "unpacked", base)
}

// EnsureDir creates a directory and all parent directories
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// FileExists checks if a file exists
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// FileSize returns the size of a file, or 0 if it doesn't exist
func FileSize(filename string) int64 {
	info, err := os.Stat(filename)
	if err != nil {
		return 0
	}
	return info.Size()
}
