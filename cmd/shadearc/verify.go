package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jchantrell/shadearc/internal/archive"
	"github.com/jchantrell/shadearc/internal/shade"
	"github.com/jchantrell/shadearc/internal/utils"
)

type VerifyStats struct {
	Path       string
	Entries    int
	Compressed int64
	Decoded    int64
	Literals   int
	Runs       int
	Backrefs   int
	Err        error
}

var verifyCmd = &cobra.Command{
	Use:   "verify <archive>...",
	Short: "Check archives for offset and codec consistency",
	Long: `Verify loads each archive and checks that every stored offset matches
the recomputed layout, every payload decodes, and every entry survives a
re-encode round trip. Failures are logged per archive and verification
continues with the next one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		results := make([]VerifyStats, len(args))
		progress := utils.NewProgress(len(args), progressEnabled())

		var g errgroup.Group
		g.SetLimit(cfg.WorkerCount())
		for i, path := range args {
			g.Go(func() error {
				results[i] = verifyArchive(path)
				progress.Increment(path)
				return nil
			})
		}
		err := g.Wait()
		progress.Finish()
		if err != nil {
			return err
		}

		var failed int
		var compressed, decoded int64
		for _, r := range results {
			if r.Err != nil {
				failed++
				slog.Error("Verification failed", "archive", r.Path, "error", r.Err)
				continue
			}
			compressed += r.Compressed
			decoded += r.Decoded
			slog.Info("Verified archive",
				"archive", r.Path,
				"entries", r.Entries,
				"literals", r.Literals,
				"runs", r.Runs,
				"backrefs", r.Backrefs,
				"ratio", utils.Ratio(r.Compressed, r.Decoded))
		}

		fmt.Printf("Archives verified: %d/%d\n", len(args)-failed, len(args))
		fmt.Printf("Decoded size: %s (compressed to %s)\n", utils.Bytes(decoded), utils.Ratio(compressed, decoded))
		fmt.Printf("Duration: %s\n", utils.Duration(time.Since(start)))

		if failed > 0 {
			return fmt.Errorf("%d of %d archives failed verification", failed, len(args))
		}
		return nil
	},
}

func verifyArchive(path string) VerifyStats {
	stats := VerifyStats{Path: path}

	a, _, err := openArchive(path)
	if err != nil {
		stats.Err = err
		return stats
	}
	stats.Entries = a.Len()

	if err := a.Verify(); err != nil {
		stats.Err = err
		return stats
	}

	for _, e := range a.Entries() {
		st, err := shade.Inspect(e.Compressed)
		if err != nil {
			stats.Err = fmt.Errorf("entry %d: %w", e.Index, err)
			return stats
		}
		stats.Literals += st.Literals
		stats.Runs += st.Runs
		stats.Backrefs += st.Backrefs
		stats.Compressed += int64(len(e.Compressed))
		stats.Decoded += int64(len(e.Data))

		if err := roundTrip(e); err != nil {
			stats.Err = err
			return stats
		}
	}
	return stats
}

func roundTrip(e *archive.Entry) error {
	data, err := shade.Decode(shade.Encode(e.Data))
	if err != nil {
		return fmt.Errorf("entry %s: re-encoded stream does not decode: %w", e.Label(), err)
	}
	if !bytes.Equal(data, e.Data) {
		return fmt.Errorf("entry %s: re-encode round trip changed the data", e.Label())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
