package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jchantrell/shadearc/internal/database"
	"github.com/jchantrell/shadearc/internal/utils"
	"github.com/jchantrell/shadearc/internal/view"
)

var (
	showDiff bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <archive>...",
	Short: "Record archive entries and their digests in the catalog database",
	Long: `Catalog loads each archive and stores one row per entry in the SQLite
catalog: offsets, sizes, detected kind, codec block counts and a BLAKE3
digest of the decoded data. Re-cataloging an archive replaces its rows.

With --diff, entries whose digest changed since the previous catalog run
are reported before the rows are replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()

		db, err := database.NewDatabase(ctx, database.DefaultDatabaseOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		reg := view.DefaultRegistry()
		progress := utils.NewProgress(len(args), progressEnabled())

		var failed int
		var entries int64
		for i, arg := range args {
			progress.Update(i, arg)

			path, err := filepath.Abs(arg)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", arg, err)
			}

			a, raw, err := openArchive(path)
			if err != nil {
				slog.Error("Failed to load archive", "archive", path, "error", err)
				failed++
				continue
			}

			rec, recs, err := database.Describe(path, raw, a, reg)
			if err != nil {
				slog.Error("Failed to describe archive", "archive", path, "error", err)
				failed++
				continue
			}

			if showDiff {
				changes, err := db.Diff(ctx, path, recs)
				switch {
				case errors.Is(err, database.ErrNotCataloged):
					slog.Info("Archive not cataloged before", "archive", path)
				case err != nil:
					return fmt.Errorf("comparing %s: %w", path, err)
				default:
					printChanges(path, changes)
				}
			}

			id, err := db.RecordArchive(ctx, rec, recs)
			if err != nil {
				slog.Error("Failed to record archive", "archive", path, "error", err)
				failed++
				continue
			}
			entries += int64(len(recs))
			slog.Debug("Cataloged archive", "archive", path, "id", id, "entries", len(recs))
		}
		progress.Update(len(args), "")
		progress.Finish()

		fmt.Printf("Archives cataloged: %d/%d\n", len(args)-failed, len(args))
		fmt.Printf("Entries recorded: %s\n", utils.Number(entries))
		fmt.Printf("Duration: %s\n", utils.Duration(time.Since(start)))
		fmt.Println("Try running: shadearc query --tables")

		if failed > 0 {
			return fmt.Errorf("%d of %d archives could not be cataloged", failed, len(args))
		}
		return nil
	},
}

func printChanges(path string, changes []database.Change) {
	if len(changes) == 0 {
		fmt.Printf("%s: unchanged\n", path)
		return
	}
	fmt.Printf("%s: %d changed entries\n", path, len(changes))
	for _, c := range changes {
		switch {
		case c.Before == "":
			fmt.Printf("  + %4d\n", c.Index)
		case c.After == "":
			fmt.Printf("  - %4d\n", c.Index)
		default:
			fmt.Printf("  ~ %4d  %.12s -> %.12s\n", c.Index, c.Before, c.After)
		}
	}
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().BoolVar(&showDiff, "diff", false, "report entries changed since the last catalog run")
}
