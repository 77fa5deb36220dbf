package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jchantrell/shadearc/internal/archive"
	"github.com/jchantrell/shadearc/internal/view"
)

var (
	textOutput string
)

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Read and edit string tables inside an archive",
}

var textDumpCmd = &cobra.Command{
	Use:   "dump <archive> <index|name>",
	Short: "Print every string of a string table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := openArchive(args[0])
		if err != nil {
			return err
		}
		txt, _, err := openTextEntry(a, args[1])
		if err != nil {
			return err
		}

		strs, err := txt.Strings()
		if err != nil {
			return err
		}
		for i, s := range strs {
			fmt.Printf("%4d\t%s\n", i, strconv.Quote(s))
		}
		return nil
	},
}

var textSetCmd = &cobra.Command{
	Use:   "set <archive> <index|name> <string-index> <text>",
	Short: "Replace one string and relocate the table's pointers",
	Long: `Set replaces one string of a string table. Every pointer past the edited
string, including the end-pointer table, moves by the change in length, and
only the edited entry is re-encoded.

The archive is rewritten in place unless --output is given.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := openArchive(args[0])
		if err != nil {
			return err
		}
		txt, e, err := openTextEntry(a, args[1])
		if err != nil {
			return err
		}

		i, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid string index %q: %w", args[2], err)
		}

		ed, err := txt.Set(i, args[3])
		if err != nil {
			return err
		}
		if err := view.Apply(e, ed); err != nil {
			return err
		}
		slog.Debug("Relocated string table",
			"entry", e.Label(),
			"string", i,
			"edit_point", fmt.Sprintf("0x%X", ed.EditPoint),
			"delta", ed.Delta)

		output := args[0]
		if textOutput != "" {
			output = textOutput
		}
		if _, err := saveArchive(a, output); err != nil {
			return err
		}

		fmt.Printf("Set string %d of %s (%+d bytes)\n", i, e.Label(), ed.Delta)
		return nil
	},
}

func openTextEntry(a *archive.Archive, ref string) (*view.Text, *archive.Entry, error) {
	e, err := a.Resolve(ref)
	if err != nil {
		return nil, nil, err
	}
	v, err := view.DefaultRegistry().Open(view.KindText, view.SourceOf(e))
	if err != nil {
		return nil, nil, err
	}
	return v.(*view.Text), e, nil
}

func init() {
	rootCmd.AddCommand(textCmd)
	textCmd.AddCommand(textDumpCmd)
	textCmd.AddCommand(textSetCmd)
	textSetCmd.Flags().StringVarP(&textOutput, "output", "o", "", "write the archive here instead of in place")
}
