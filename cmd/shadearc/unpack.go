package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jchantrell/shadearc/internal/cache"
	"github.com/jchantrell/shadearc/internal/export"
	"github.com/jchantrell/shadearc/internal/utils"
	"github.com/jchantrell/shadearc/internal/view"
)

var (
	unpackStrings bool
)

var unpackCmd = &cobra.Command{
	Use:   "unpack <archive> [dir]",
	Short: "Write every entry of an archive to a directory",
	Long: `Unpack decodes every entry and writes it to the output directory along
with a manifest.yaml describing the archive layout. The directory can be
rebuilt into an archive with pack.

Without a directory argument, entries are written under ~/.shadearc/unpacked.
With --strings, string tables are also written as editable YAML lists that
take precedence over the binary file when packing.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		a, _, err := openArchive(args[0])
		if err != nil {
			return err
		}

		outputDir := cache.Workspace().UnpackDir(args[0])
		if len(args) > 1 {
			outputDir = args[1]
		}

		slog.Info("Unpacking archive", "archive", args[0], "entries", a.Len(), "output", outputDir)

		progress := utils.NewProgress(a.Len(), progressEnabled())
		exporter := export.NewExporter(view.DefaultRegistry(), outputDir, unpackStrings)
		m, err := exporter.Unpack(a, func(current, total int, description string) {
			progress.Update(current, description)
		})
		progress.Finish()
		if err != nil {
			return fmt.Errorf("unpacking: %w", err)
		}

		var tables int
		for _, e := range m.Entries {
			if e.Strings != "" {
				tables++
			}
		}

		fmt.Printf("Entries written: %d\n", len(m.Entries))
		if unpackStrings {
			fmt.Printf("String tables: %d\n", tables)
		}
		fmt.Printf("Output: %s\n", outputDir)
		fmt.Printf("Duration: %s\n", utils.Duration(time.Since(start)))
		return nil
	},
}

var packCmd = &cobra.Command{
	Use:   "pack <dir> <archive>",
	Short: "Build an archive from an unpacked directory",
	Long: `Pack reads manifest.yaml from the directory, encodes every entry and
writes the archive. The layout recorded in the manifest is used; workers
come from the configuration.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		m, err := export.ReadManifest(args[0])
		if err != nil {
			return err
		}

		progress := utils.NewProgress(len(m.Entries), progressEnabled())
		res, err := export.Pack(args[0], func(current, total int, description string) {
			progress.Update(current, description)
		}, archiveWorkers())
		progress.Finish()
		if err != nil {
			return fmt.Errorf("packing %s: %w", args[0], err)
		}

		size, err := saveArchive(res.Archive, args[1])
		if err != nil {
			return err
		}

		for _, i := range res.Changed {
			e, _ := res.Archive.Get(i)
			slog.Info("Changed entry", "entry", e.Label())
		}

		fmt.Printf("Entries packed: %d\n", res.Archive.Len())
		fmt.Printf("Changed since unpack: %d\n", len(res.Changed))
		fmt.Printf("Archive size: %s\n", utils.Bytes(int64(size)))
		fmt.Printf("Duration: %s\n", utils.Duration(time.Since(start)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unpackCmd)
	rootCmd.AddCommand(packCmd)
	unpackCmd.Flags().BoolVar(&unpackStrings, "strings", false, "also write string tables as YAML")
}
