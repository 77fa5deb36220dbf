package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/jchantrell/shadearc/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string

	schema     string
	alignment  int
	endian     string
	workers    int
	dbPath     string
	namesFile  string
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "shadearc",
	Short: "Shade archive unpacking, repacking and string editing tool",
	Long: `shadearc reads and writes the packed archives used by Shade-compressed
Nintendo DS titles.

It lists, unpacks and repacks archives, compresses and decompresses single
streams, edits string tables with pointer relocation, and keeps a SQLite
catalog of entry digests to track changes between builds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("schema") {
			cfg.Layout.Schema = schema
		}
		if cmd.Flags().Changed("alignment") {
			cfg.Layout.Alignment = alignment
		}
		if cmd.Flags().Changed("endian") {
			cfg.Layout.Endian = endian
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if cmd.Flags().Changed("database") {
			cfg.Database = dbPath
		}
		if cmd.Flags().Changed("names") {
			cfg.Names = namesFile
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		slog.SetDefault(slog.New(newLogHandler(cfg.LogLevel, cfg.LogFormat)))

		slog.Debug("Configuration",
			"schema", cfg.Layout.Schema,
			"alignment", cfg.Layout.Alignment,
			"endian", cfg.Layout.Endian,
			"workers", cfg.WorkerCount(),
			"database", cfg.Database,
			"names", cfg.Names,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is shadearc.yaml in $HOME or pwd)")
	rootCmd.PersistentFlags().StringVar(&schema, "schema", "", "archive table schema (offset-size, offset-list)")
	rootCmd.PersistentFlags().IntVar(&alignment, "alignment", 1, "payload alignment in bytes")
	rootCmd.PersistentFlags().StringVar(&endian, "endian", "", "table byte order (little, big)")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "parallel encode/decode workers (0 = one per CPU)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "catalog database file path")
	rootCmd.PersistentFlags().StringVarP(&namesFile, "names", "n", "", "YAML file mapping entry indices to names")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogHandler writes to stderr, colored through tint unless JSON is asked for.
func newLogHandler(level, format string) slog.Handler {
	lvl, ok := logLevels[level]
	if !ok {
		lvl = slog.LevelInfo
	}
	if format == "json" {
		return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	return tint.NewHandler(os.Stderr, &tint.Options{Level: lvl})
}

func progressEnabled() bool {
	return !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug")
}
