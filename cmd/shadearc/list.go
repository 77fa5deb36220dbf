package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jchantrell/shadearc/internal/utils"
	"github.com/jchantrell/shadearc/internal/view"
)

var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List the entries of an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, raw, err := openArchive(args[0])
		if err != nil {
			return err
		}

		reg := view.DefaultRegistry()

		fmt.Printf("%-6s %-10s %-12s %-12s %-6s %s\n", "Index", "Offset", "Compressed", "Decoded", "Kind", "Name")
		fmt.Println(strings.Repeat("-", 64))

		var compressed, decoded int64
		for _, e := range a.Entries() {
			kind := reg.Detect(view.SourceOf(e))
			fmt.Printf("%-6d 0x%08X %-12s %-12s %-6s %s\n",
				e.Index, e.Offset,
				utils.Bytes(int64(len(e.Compressed))),
				utils.Bytes(int64(len(e.Data))),
				kind, e.Name)
			compressed += int64(len(e.Compressed))
			decoded += int64(len(e.Data))
		}

		fmt.Println()
		fmt.Printf("Entries: %s\n", utils.Number(int64(a.Len())))
		fmt.Printf("Archive size: %s\n", utils.Bytes(int64(len(raw))))
		fmt.Printf("Decoded size: %s (compressed to %s)\n", utils.Bytes(decoded), utils.Ratio(compressed, decoded))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
