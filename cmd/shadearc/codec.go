package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jchantrell/shadearc/internal/shade"
	"github.com/jchantrell/shadearc/internal/utils"
)

var (
	rawOutput bool
)

var compressCmd = &cobra.Command{
	Use:   "compress <in> <out>",
	Short: "Compress a single file into a Shade stream",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		stream := shade.Encode(data)
		if err := os.WriteFile(args[1], stream, 0644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}

		fmt.Printf("%s -> %s (%s)\n",
			utils.Bytes(int64(len(data))),
			utils.Bytes(int64(len(stream))),
			utils.Ratio(int64(len(stream)), int64(len(data))))
		return nil
	},
}

var decompressCmd = &cobra.Command{
	Use:   "decompress <in> <out>",
	Short: "Decompress a single Shade stream",
	Long: `Decompress decodes a Shade stream. The output is padded to the payload
alignment unless --raw is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		stream, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		decode := shade.Decode
		if rawOutput {
			decode = shade.DecodeRaw
		}
		data, err := decode(stream)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", args[0], err)
		}

		if err := os.WriteFile(args[1], data, 0644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}

		st, err := shade.Inspect(stream)
		if err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", utils.Bytes(int64(st.StreamSize)), utils.Bytes(int64(len(data))))
		fmt.Printf("Blocks: %d literal, %d run, %d backref\n", st.Literals, st.Runs, st.Backrefs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(decompressCmd)
	decompressCmd.Flags().BoolVar(&rawOutput, "raw", false, "write the decoded bytes without alignment padding")
}
