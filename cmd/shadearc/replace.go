package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jchantrell/shadearc/internal/utils"
)

var (
	replaceOutput string
)

var replaceCmd = &cobra.Command{
	Use:   "replace <archive> <index|name> <file>",
	Short: "Replace the content of one entry",
	Long: `Replace swaps the decoded content of one entry for the contents of a
file and rewrites the archive. Only the replaced entry is re-encoded.

The archive is rewritten in place unless --output is given.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := openArchive(args[0])
		if err != nil {
			return err
		}

		e, err := a.Resolve(args[1])
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("reading replacement: %w", err)
		}

		before := len(e.Compressed)
		if err := a.Replace(e.Index, data); err != nil {
			return err
		}

		offset, err := a.RecalculateOffset(e)
		if err != nil {
			return err
		}
		slog.Debug("Replacing entry", "entry", e.Label(), "offset", fmt.Sprintf("0x%X", offset))

		output := args[0]
		if replaceOutput != "" {
			output = replaceOutput
		}
		size, err := saveArchive(a, output)
		if err != nil {
			return err
		}

		fmt.Printf("Replaced %s: %s -> %s compressed\n",
			e.Label(), utils.Bytes(int64(before)), utils.Bytes(int64(len(e.Compressed))))
		fmt.Printf("Archive size: %s\n", utils.Bytes(int64(size)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replaceCmd)
	replaceCmd.Flags().StringVarP(&replaceOutput, "output", "o", "", "write the archive here instead of in place")
}
