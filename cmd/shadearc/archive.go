package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jchantrell/shadearc/internal/archive"
)

func archiveOptions() ([]archive.LoadOption, error) {
	layout, err := cfg.ArchiveLayout()
	if err != nil {
		return nil, err
	}
	return []archive.LoadOption{
		archive.WithLayout(layout),
		archiveWorkers(),
	}, nil
}

func archiveWorkers() archive.LoadOption {
	return archive.WithWorkers(cfg.WorkerCount())
}

// openArchive reads and loads an archive file, applying the configured
// name table. The raw file is returned alongside for digesting.
func openArchive(path string) (*archive.Archive, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading archive: %w", err)
	}

	opts, err := archiveOptions()
	if err != nil {
		return nil, nil, err
	}

	a, err := archive.Load(raw, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if err := applyNames(a); err != nil {
		return nil, nil, err
	}
	return a, raw, nil
}

func applyNames(a *archive.Archive) error {
	if cfg.Names == "" {
		return nil
	}

	f, err := os.Open(cfg.Names)
	if err != nil {
		return fmt.Errorf("opening names file: %w", err)
	}
	defer f.Close()

	names, err := archive.LoadNames(f)
	if err != nil {
		return fmt.Errorf("names file %s: %w", cfg.Names, err)
	}

	named := a.ApplyNames(names)
	slog.Debug("Applied names", "file", cfg.Names, "named", named, "listed", len(names))
	return nil
}

// saveArchive serializes a and writes it to path.
func saveArchive(a *archive.Archive, path string) (int, error) {
	buf, err := a.Save()
	if err != nil {
		return 0, fmt.Errorf("saving archive: %w", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return 0, fmt.Errorf("writing archive: %w", err)
	}
	return len(buf), nil
}
